// Package linear provides the least-squares regressor used for irrigation
// quantity estimates.
package linear

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/agriclean/core/model"
	"github.com/YuminosukeSato/agriclean/core/parallel"
	"github.com/YuminosukeSato/agriclean/metrics"
	"github.com/YuminosukeSato/agriclean/pkg/errors"
)

var (
	_ model.Regressor       = (*LinearRegression)(nil)
	_ model.ParameterGetter = (*LinearRegression)(nil)
)

// 並列処理の閾値（この値以下の行数では逐次処理を使用）
const parallelThreshold = 1000

// LinearRegression は線形回帰モデル
// Alpha > 0 のときは切片を除く係数にL2正則化をかける（特徴量に強い共線性がある場合用）
type LinearRegression struct {
	model.BaseEstimator

	Weights   *mat.VecDense // 重み（係数）
	Intercept float64       // 切片
	NFeatures int           // 特徴量の数
	Alpha     float64       // L2正則化の強さ
}

// Option はLinearRegressionの設定関数
type Option func(*LinearRegression)

// WithAlpha はL2正則化の強さを設定する
func WithAlpha(alpha float64) Option {
	return func(lr *LinearRegression) {
		lr.Alpha = alpha
	}
}

// NewLinearRegression は新しい線形回帰モデルを作成する
func NewLinearRegression(opts ...Option) *LinearRegression {
	lr := &LinearRegression{}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// Fit はモデルを訓練データで学習させる
// 正規方程式 (XᵀX + αI') w = Xᵀy を解く（I'は切片の成分が0）
func (lr *LinearRegression) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("LinearRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("LinearRegression.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("LinearRegression.Fit", "y must be a column vector")
	}
	if lr.Alpha < 0 {
		return errors.NewValidationError("alpha", "must be non-negative", lr.Alpha)
	}

	// 切片項のために X に 1 の列を追加
	xb := mat.NewDense(r, c+1, nil)
	err := parallel.ParallelizeWithThreshold(context.Background(), r, parallelThreshold, func(_ context.Context, start, end int) error {
		for i := start; i < end; i++ {
			xb.Set(i, 0, 1.0)
			for j := 0; j < c; j++ {
				xb.Set(i, j+1, X.At(i, j))
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "build design matrix")
	}

	var xtx mat.Dense
	xtx.Mul(xb.T(), xb)
	for j := 1; j <= c; j++ {
		xtx.Set(j, j, xtx.At(j, j)+lr.Alpha)
	}

	yVec := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		yVec.SetVec(i, y.At(i, 0))
	}
	var xty mat.VecDense
	xty.MulVec(xb.T(), yVec)

	var w mat.VecDense
	if err := w.SolveVec(&xtx, &xty); err != nil {
		return errors.NewModelError("LinearRegression.Fit", "singular matrix", errors.ErrSingularMatrix)
	}

	lr.NFeatures = c
	lr.Intercept = w.AtVec(0)
	lr.Weights = mat.NewVecDense(c, nil)
	for j := 0; j < c; j++ {
		lr.Weights.SetVec(j, w.AtVec(j+1))
	}
	lr.SetFitted()
	return nil
}

// Predict は入力データに対する予測を行う
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !lr.IsFitted() {
		return nil, errors.NewNotFittedError("LinearRegression", "Predict")
	}
	r, c := X.Dims()
	if c != lr.NFeatures {
		return nil, errors.NewDimensionError("LinearRegression.Predict", lr.NFeatures, c, 1)
	}

	// y = X * weights + intercept
	var pred mat.VecDense
	pred.MulVec(X, lr.Weights)
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		out.Set(i, 0, pred.AtVec(i)+lr.Intercept)
	}
	return out, nil
}

// Score はモデルの決定係数（R²）を計算する
func (lr *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	yPred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	r, _ := y.Dims()
	return metrics.R2Score(column(y, r), column(yPred, r))
}

// GetWeights は学習された重み（係数）を返す
func (lr *LinearRegression) GetWeights() []float64 {
	if lr.Weights == nil {
		return nil
	}
	return mat.Col(nil, 0, lr.Weights)
}

// GetParams はハイパーパラメータを返す
func (lr *LinearRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{"alpha": lr.Alpha}
}

func column(m mat.Matrix, r int) *mat.VecDense {
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v
}
