// Package metrics は補完評価とモデル評価のための指標を提供する
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/agriclean/pkg/errors"
)

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// MaskedMSE は隠したセルだけを対象に平均二乗誤差を計算する
// hiddenは行優先（row-major）で、truthと同じ形状であること
func MaskedMSE(truth, imputed mat.Matrix, hidden []bool) (float64, error) {
	r, c := truth.Dims()
	ri, ci := imputed.Dims()
	if r != ri {
		return 0, errors.NewDimensionError("MaskedMSE", r, ri, 0)
	}
	if c != ci {
		return 0, errors.NewDimensionError("MaskedMSE", c, ci, 1)
	}
	if len(hidden) != r*c {
		return 0, errors.NewDimensionError("MaskedMSE", r*c, len(hidden), 0)
	}

	var sum float64
	count := 0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if !hidden[i*c+j] {
				continue
			}
			diff := truth.At(i, j) - imputed.At(i, j)
			sum += diff * diff
			count++
		}
	}
	if count == 0 {
		return 0, errors.NewValueError("MaskedMSE", "mask hides no cells")
	}

	mse := sum / float64(count)
	if err := errors.CheckScalar("MaskedMSE", mse); err != nil {
		return 0, err
	}
	return mse, nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// R2Score は決定係数（R²）を計算する
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var yMean float64
	for i := 0; i < n; i++ {
		yMean += yTrue.AtVec(i)
	}
	yMean /= float64(n)

	// 全変動（TSS）と残差変動（RSS）
	var tss, rss float64
	for i := 0; i < n; i++ {
		t := yTrue.AtVec(i)
		p := yPred.AtVec(i)
		tss += (t - yMean) * (t - yMean)
		rss += (t - p) * (t - p)
	}
	if tss == 0 {
		return 0, errors.NewValueError("R2Score", "total sum of squares is zero (no variance in yTrue)")
	}
	return 1 - rss/tss, nil
}

// AdjustedR2 は自由度調整済み決定係数を計算する
// n: サンプル数, p: 特徴量数
func AdjustedR2(r2 float64, n, p int) (float64, error) {
	if n-p-1 <= 0 {
		return 0, errors.NewValueError("AdjustedR2", "need more samples than features + 1")
	}
	return 1 - (1-r2)*float64(n-1)/float64(n-p-1), nil
}

// RegressionReport は回帰モデルの評価結果をまとめたもの
type RegressionReport struct {
	MAE        float64
	MSE        float64
	RMSE       float64
	R2         float64
	AdjustedR2 float64
}

// EvaluateRegression はMAE・MSE・RMSE・R²・調整済みR²をまとめて計算する
func EvaluateRegression(yTrue, yPred *mat.VecDense, nFeatures int) (RegressionReport, error) {
	var rep RegressionReport
	var err error
	if rep.MAE, err = MAE(yTrue, yPred); err != nil {
		return rep, err
	}
	if rep.MSE, err = MSE(yTrue, yPred); err != nil {
		return rep, err
	}
	rep.RMSE = math.Sqrt(rep.MSE)
	if rep.R2, err = R2Score(yTrue, yPred); err != nil {
		return rep, err
	}
	if rep.AdjustedR2, err = AdjustedR2(rep.R2, yTrue.Len(), nFeatures); err != nil {
		return rep, err
	}
	return rep, nil
}

func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue.IsEmpty() {
		return 0, errors.NewValueError(op, "empty vector")
	}
	n := yTrue.Len()
	if yPred.IsEmpty() || yPred.Len() != n {
		got := 0
		if !yPred.IsEmpty() {
			got = yPred.Len()
		}
		return 0, errors.NewDimensionError(op, n, got, 0)
	}
	return n, nil
}
