// Package neighbors provides a k-nearest-neighbor classifier for the crop
// recommender.
package neighbors

import (
	"context"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/agriclean/core/model"
	"github.com/YuminosukeSato/agriclean/core/parallel"
	"github.com/YuminosukeSato/agriclean/metrics"
	"github.com/YuminosukeSato/agriclean/pkg/errors"
)

var (
	_ model.Classifier           = (*KNeighborsClassifier)(nil)
	_ model.ProbabilityPredictor = (*KNeighborsClassifier)(nil)
)

const parallelThreshold = 256

// KNeighborsClassifier votes among the k nearest training rows by Euclidean
// distance. Ties in the vote go to the smaller class label, ties in distance
// to the earlier training row.
type KNeighborsClassifier struct {
	model.BaseEstimator

	NNeighbors int

	FitX        *mat.Dense
	FitY        []int // index into ClassLabels
	ClassLabels []int // sorted
	NFeatures   int
}

// NewKNeighborsClassifier creates a classifier using k neighbors.
func NewKNeighborsClassifier(k int) *KNeighborsClassifier {
	return &KNeighborsClassifier{NNeighbors: k}
}

// Fit stores the training rows. y holds integer labels as an n×1 matrix.
func (kn *KNeighborsClassifier) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("KNeighborsClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("KNeighborsClassifier.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("KNeighborsClassifier.Fit", "y must be a column vector")
	}
	if kn.NNeighbors < 1 || kn.NNeighbors > r {
		return errors.NewValidationError("n_neighbors", "must be between 1 and the number of samples", kn.NNeighbors)
	}
	if err := errors.CheckMatrix("KNeighborsClassifier.Fit", X, r, c); err != nil {
		return err
	}

	seen := make(map[int]struct{})
	for i := 0; i < r; i++ {
		seen[int(y.At(i, 0))] = struct{}{}
	}
	kn.ClassLabels = kn.ClassLabels[:0]
	for l := range seen {
		kn.ClassLabels = append(kn.ClassLabels, l)
	}
	sort.Ints(kn.ClassLabels)
	index := make(map[int]int, len(kn.ClassLabels))
	for i, l := range kn.ClassLabels {
		index[l] = i
	}

	kn.FitX = mat.DenseCopyOf(X)
	kn.FitY = make([]int, r)
	for i := 0; i < r; i++ {
		kn.FitY[i] = index[int(y.At(i, 0))]
	}
	kn.NFeatures = c
	kn.SetFitted()
	return nil
}

// PredictProba returns, per row, the share of the k neighbors voting for each
// class in Classes() order.
func (kn *KNeighborsClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !kn.IsFitted() {
		return nil, errors.NewNotFittedError("KNeighborsClassifier", "PredictProba")
	}
	r, c := X.Dims()
	if c != kn.NFeatures {
		return nil, errors.NewDimensionError("KNeighborsClassifier.PredictProba", kn.NFeatures, c, 1)
	}

	q := mat.DenseCopyOf(X)
	out := mat.NewDense(r, len(kn.ClassLabels), nil)
	err := parallel.ParallelizeWithThreshold(context.Background(), r, parallelThreshold, func(_ context.Context, start, end int) error {
		for i := start; i < end; i++ {
			for _, n := range kn.nearest(q.RawRowView(i)) {
				cls := kn.FitY[n]
				out.Set(i, cls, out.At(i, cls)+1/float64(kn.NNeighbors))
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "knn predict")
	}
	return out, nil
}

// Predict returns the majority label of each row as an n×1 matrix.
func (kn *KNeighborsClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := kn.PredictProba(X)
	if err != nil {
		return nil, err
	}
	r, c := proba.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		best := 0
		for j := 1; j < c; j++ {
			if proba.At(i, j) > proba.At(i, best) {
				best = j
			}
		}
		out.Set(i, 0, float64(kn.ClassLabels[best]))
	}
	return out, nil
}

// Classes returns the class labels in probability-column order.
func (kn *KNeighborsClassifier) Classes() []int {
	return kn.ClassLabels
}

// GetParams returns the hyperparameters.
func (kn *KNeighborsClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{"n_neighbors": kn.NNeighbors}
}

type candidate struct {
	index int
	dist  float64
}

func (kn *KNeighborsClassifier) nearest(query []float64) []int {
	n, _ := kn.FitX.Dims()
	cands := make([]candidate, n)
	for i := 0; i < n; i++ {
		cands[i] = candidate{index: i, dist: metrics.Euclidean(query, kn.FitX.RawRowView(i))}
	}
	sort.Slice(cands, func(a, b int) bool {
		if cands[a].dist != cands[b].dist {
			return cands[a].dist < cands[b].dist
		}
		return cands[a].index < cands[b].index
	})
	idx := make([]int, kn.NNeighbors)
	for i := range idx {
		idx[i] = cands[i].index
	}
	return idx
}
