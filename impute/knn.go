// Package impute fills missing numeric cells with a k-nearest-neighbor
// imputer and selects the neighbor count by masked evaluation.
package impute

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/agriclean/core/model"
	"github.com/YuminosukeSato/agriclean/core/parallel"
	"github.com/YuminosukeSato/agriclean/metrics"
	"github.com/YuminosukeSato/agriclean/pkg/errors"
)

var _ model.Transformer = (*KNNImputer)(nil)

// Weights は近傍値の重み付け方法
type Weights int

const (
	// Uniform は近傍を等しく扱う（単純平均）
	Uniform Weights = iota
	// Distance は距離の逆数で重み付けする
	Distance
)

func (w Weights) String() string {
	if w == Distance {
		return "distance"
	}
	return "uniform"
}

// MarshalText は設定ファイル用の文字列表現を返す
func (w Weights) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// UnmarshalText は "uniform" または "distance" を受け付ける
func (w *Weights) UnmarshalText(text []byte) error {
	switch string(text) {
	case "uniform", "":
		*w = Uniform
	case "distance":
		*w = Distance
	default:
		return errors.NewValidationError("weights", "must be uniform or distance", string(text))
	}
	return nil
}

// 並列処理の閾値（この行数以下では逐次処理）
const parallelThreshold = 256

// KNNImputer はk近傍法による欠損値補完器
type KNNImputer struct {
	model.BaseEstimator

	NNeighbors int
	Weights    Weights

	fitX      *mat.Dense
	colMeans  []float64
	nFeatures int
}

// Option はKNNImputerの設定関数
type Option func(*KNNImputer)

// WithNeighbors は近傍数Kを設定する
func WithNeighbors(k int) Option {
	return func(imp *KNNImputer) {
		imp.NNeighbors = k
	}
}

// WithWeights は重み付け方法を設定する
func WithWeights(w Weights) Option {
	return func(imp *KNNImputer) {
		imp.Weights = w
	}
}

// NewKNNImputer は新しいKNNImputerを作成する（デフォルト: K=5, 均等重み）
func NewKNNImputer(opts ...Option) *KNNImputer {
	imp := &KNNImputer{NNeighbors: 5, Weights: Uniform}
	for _, opt := range opts {
		opt(imp)
	}
	return imp
}

// Fit は近傍候補となるデータを記憶し、列平均を計算する
// 観測値が一つもない列があればエラーを返す
func (imp *KNNImputer) Fit(X mat.Matrix) error {
	if imp.NNeighbors < 1 {
		return errors.NewValidationError("n_neighbors", "must be at least 1", imp.NNeighbors)
	}
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("KNNImputer.Fit", "empty data", errors.ErrEmptyData)
	}

	imp.fitX = mat.DenseCopyOf(X)
	imp.nFeatures = c
	imp.colMeans = make([]float64, c)
	for j := 0; j < c; j++ {
		var sum float64
		n := 0
		for i := 0; i < r; i++ {
			if v := imp.fitX.At(i, j); !math.IsNaN(v) {
				sum += v
				n++
			}
		}
		if n == 0 {
			imp.Reset()
			return errors.NewValidationError(fmt.Sprintf("column %d", j), "no observed values", r)
		}
		imp.colMeans[j] = sum / float64(n)
	}

	imp.SetFitted()
	return nil
}

// Transform は欠損値を補完した新しい行列を返す
func (imp *KNNImputer) Transform(X mat.Matrix) (mat.Matrix, error) {
	return imp.TransformContext(context.Background(), X)
}

// FitTransform はFitとTransformを続けて実行する
func (imp *KNNImputer) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := imp.Fit(X); err != nil {
		return nil, err
	}
	return imp.Transform(X)
}

// TransformContext は行単位で並列に補完する
// 各行は独立に計算され自分の行にのみ書き込むため、結果は逐次実行と同一
func (imp *KNNImputer) TransformContext(ctx context.Context, X mat.Matrix) (*mat.Dense, error) {
	if !imp.IsFitted() {
		return nil, errors.NewNotFittedError("KNNImputer", "Transform")
	}
	r, c := X.Dims()
	if c != imp.nFeatures {
		return nil, errors.NewDimensionError("KNNImputer.Transform", imp.nFeatures, c, 1)
	}

	out := mat.DenseCopyOf(X)
	err := parallel.ParallelizeWithThreshold(ctx, r, parallelThreshold, func(ctx context.Context, start, end int) error {
		for i := start; i < end; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			imp.imputeRow(out.RawRowView(i))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "knn transform")
	}
	return out, nil
}

type neighbor struct {
	index int
	dist  float64
}

// imputeRow は一行の欠損セルをその場で埋める
func (imp *KNNImputer) imputeRow(row []float64) {
	var missing []int
	for j, v := range row {
		if math.IsNaN(v) {
			missing = append(missing, j)
		}
	}
	if len(missing) == 0 {
		return
	}

	// 距離を計算できる候補を (距離, 行番号) の順に並べる
	n, _ := imp.fitX.Dims()
	query := append([]float64(nil), row...)
	cands := make([]neighbor, 0, n)
	for i := 0; i < n; i++ {
		d := metrics.NanEuclidean(query, imp.fitX.RawRowView(i))
		if math.IsNaN(d) {
			continue
		}
		cands = append(cands, neighbor{index: i, dist: d})
	}
	sort.Slice(cands, func(a, b int) bool {
		if cands[a].dist != cands[b].dist {
			return cands[a].dist < cands[b].dist
		}
		return cands[a].index < cands[b].index
	})

	donors := make([]neighbor, 0, imp.NNeighbors)
	for _, j := range missing {
		donors = donors[:0]
		for _, cand := range cands {
			if math.IsNaN(imp.fitX.At(cand.index, j)) {
				continue
			}
			donors = append(donors, cand)
			if len(donors) == imp.NNeighbors {
				break
			}
		}
		if len(donors) == 0 {
			row[j] = imp.colMeans[j]
			continue
		}
		row[j] = imp.estimate(donors, j)
	}
}

func (imp *KNNImputer) estimate(donors []neighbor, col int) float64 {
	if imp.Weights == Uniform {
		var sum float64
		for _, d := range donors {
			sum += imp.fitX.At(d.index, col)
		}
		return sum / float64(len(donors))
	}

	// 距離0の近傍があればそれらだけを等しく使う
	exact := false
	for _, d := range donors {
		if d.dist == 0 {
			exact = true
			break
		}
	}
	var sum, wsum float64
	for _, d := range donors {
		w := 1.0
		switch {
		case exact && d.dist != 0:
			continue
		case !exact:
			w = 1 / d.dist
		}
		sum += w * imp.fitX.At(d.index, col)
		wsum += w
	}
	return sum / wsum
}

// GetParams はハイパーパラメータを返す
func (imp *KNNImputer) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_neighbors": imp.NNeighbors,
		"weights":     imp.Weights.String(),
	}
}
