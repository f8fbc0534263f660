// Package linear_model provides the binary logistic regression used for the
// irrigation-need classifier.
package linear_model

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/agriclean/core/model"
	"github.com/YuminosukeSato/agriclean/pkg/errors"
)

var (
	_ model.Classifier           = (*LogisticRegression)(nil)
	_ model.ProbabilityPredictor = (*LogisticRegression)(nil)
	_ model.ParameterGetter      = (*LogisticRegression)(nil)
)

// LogisticRegression implements L2-regularized binary logistic regression
// fitted by full-batch gradient descent. Labels are integers; the larger
// label is the positive class.
type LogisticRegression struct {
	model.BaseEstimator

	// Hyperparameters
	C            float64 // Inverse regularization strength (1/alpha)
	MaxIter      int
	Tol          float64 // Stop when every gradient component is below Tol
	LearningRate float64

	// Model parameters
	Coef        []float64
	Intercept   float64
	ClassLabels []int // sorted; ClassLabels[1] is the positive class
	NFeatures   int
	NIter       int
}

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a new LogisticRegression classifier
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		C:            1.0,
		MaxIter:      500,
		Tol:          1e-4,
		LearningRate: 1.0,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// WithLRC sets the inverse regularization strength
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.C = c
	}
}

// WithLRMaxIter sets the maximum number of iterations
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.MaxIter = maxIter
	}
}

// WithLRTol sets the tolerance for stopping criteria
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.Tol = tol
	}
}

// Fit trains the logistic regression model. y must hold exactly two
// distinct labels.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("LogisticRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("LogisticRegression.Fit", "y must be a column vector")
	}
	if lr.C <= 0 {
		return errors.NewValidationError("C", "must be positive", lr.C)
	}

	lr.ClassLabels = uniqueLabels(y)
	if len(lr.ClassLabels) != 2 {
		return errors.NewValidationError("y", "binary classification needs exactly two classes", lr.ClassLabels)
	}
	lr.NFeatures = nFeatures

	target := make([]float64, nSamples)
	for i := range target {
		if int(y.At(i, 0)) == lr.ClassLabels[1] {
			target[i] = 1
		}
	}

	w := mat.NewVecDense(nFeatures, nil)
	b := 0.0
	// sklearn と同じく C·Σloss + ½‖w‖² を n で割った目的関数
	lambda := 1.0 / (lr.C * float64(nSamples))
	var z mat.VecDense
	resid := mat.NewVecDense(nSamples, nil)
	var grad mat.VecDense

	for iter := 0; iter < lr.MaxIter; iter++ {
		z.MulVec(X, w)
		for i := 0; i < nSamples; i++ {
			resid.SetVec(i, sigmoid(z.AtVec(i)+b)-target[i])
		}

		// ∇w = Xᵀ(p - y)/n + λw,  ∇b = Σ(p - y)/n
		grad.MulVec(X.T(), resid)
		grad.ScaleVec(1/float64(nSamples), &grad)
		grad.AddScaledVec(&grad, lambda, w)
		gradB := floats.Sum(resid.RawVector().Data) / float64(nSamples)

		// Adaptive learning rate
		rate := lr.LearningRate / (1.0 + 0.1*float64(iter))
		w.AddScaledVec(w, -rate, &grad)
		b -= rate * gradB
		lr.NIter = iter + 1

		if math.Max(mat.Norm(&grad, math.Inf(1)), math.Abs(gradB)) < lr.Tol {
			break
		}
	}

	lr.Coef = mat.Col(nil, 0, w)
	lr.Intercept = b
	lr.SetFitted()
	return nil
}

func uniqueLabels(y mat.Matrix) []int {
	rows, _ := y.Dims()
	seen := make(map[int]struct{})
	for i := 0; i < rows; i++ {
		seen[int(y.At(i, 0))] = struct{}{}
	}
	labels := make([]int, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Ints(labels)
	return labels
}

// Predict returns the predicted label of each row as an n×1 matrix.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}
	n, _ := proba.Dims()
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		label := lr.ClassLabels[0]
		if proba.At(i, 1) >= 0.5 {
			label = lr.ClassLabels[1]
		}
		out.Set(i, 0, float64(label))
	}
	return out, nil
}

// PredictProba returns probability estimates as an n×2 matrix whose columns
// follow Classes().
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !lr.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "PredictProba")
	}
	nSamples, nFeatures := X.Dims()
	if nFeatures != lr.NFeatures {
		return nil, errors.NewDimensionError("LogisticRegression.PredictProba", lr.NFeatures, nFeatures, 1)
	}

	var z mat.VecDense
	z.MulVec(X, mat.NewVecDense(len(lr.Coef), lr.Coef))
	probas := mat.NewDense(nSamples, 2, nil)
	for i := 0; i < nSamples; i++ {
		p1 := sigmoid(z.AtVec(i) + lr.Intercept)
		probas.Set(i, 0, 1.0-p1)
		probas.Set(i, 1, p1)
	}
	return probas, nil
}

// Classes returns the class labels in probability-column order.
func (lr *LogisticRegression) Classes() []int {
	return lr.ClassLabels
}

// Score returns the mean accuracy on the given test data and labels
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	nSamples, _ := X.Dims()
	correct := 0
	for i := 0; i < nSamples; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(nSamples), nil
}

// GetParams returns the model hyperparameters
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"C":             lr.C,
		"max_iter":      lr.MaxIter,
		"tol":           lr.Tol,
		"learning_rate": lr.LearningRate,
	}
}

// sigmoid computes the sigmoid function
func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + errors.StabilizeExp(-z))
}
