package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/agriclean/pkg/errors"
)

func TestRegressionMetrics(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{3, -0.5, 2, 7})
	yPred := mat.NewVecDense(4, []float64{2.5, 0.0, 2, 8})

	tests := []struct {
		name string
		fn   func(a, b *mat.VecDense) (float64, error)
		want float64
	}{
		{"MSE", MSE, 0.375},
		{"RMSE", RMSE, math.Sqrt(0.375)},
		{"MAE", MAE, 0.5},
		{"R2Score", R2Score, 0.9486081370449679},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(yTrue, yPred)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-10)
		})
	}
}

func TestRegressionMetricsDimensionMismatch(t *testing.T) {
	_, err := MSE(mat.NewVecDense(3, nil), mat.NewVecDense(2, nil))
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))
}

func TestR2ScoreConstantTarget(t *testing.T) {
	y := mat.NewVecDense(3, []float64{1, 1, 1})
	_, err := R2Score(y, y)
	assert.Error(t, err)
}

func TestEvaluateRegression(t *testing.T) {
	yTrue := mat.NewVecDense(5, []float64{1, 2, 3, 4, 5})
	yPred := mat.NewVecDense(5, []float64{1.1, 1.9, 3.2, 3.8, 5.0})

	rep, err := EvaluateRegression(yTrue, yPred, 2)
	require.NoError(t, err)
	assert.InDelta(t, 0.12, rep.MAE, 1e-12)
	assert.InDelta(t, 0.02, rep.MSE, 1e-12)
	assert.InDelta(t, 0.99, rep.R2, 1e-12)
	assert.InDelta(t, 0.98, rep.AdjustedR2, 1e-12)

	_, err = EvaluateRegression(yTrue, yPred, 4)
	assert.Error(t, err)
}

func TestMaskedMSE(t *testing.T) {
	truth := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	imputed := mat.NewDense(2, 2, []float64{1, 5, 3, 2})

	// 隠したセルのみが誤差に寄与する
	mse, err := MaskedMSE(truth, imputed, []bool{false, true, false, false})
	require.NoError(t, err)
	assert.InDelta(t, 9.0, mse, 1e-12)

	mse, err = MaskedMSE(truth, imputed, []bool{true, true, true, true})
	require.NoError(t, err)
	assert.InDelta(t, 13.0/4, mse, 1e-12)

	_, err = MaskedMSE(truth, imputed, make([]bool, 4))
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve))

	_, err = MaskedMSE(truth, mat.NewDense(1, 2, nil), make([]bool, 4))
	assert.Error(t, err)
}

func TestAccuracy(t *testing.T) {
	acc, err := Accuracy([]string{"rice", "maize", "rice", "jute"}, []string{"rice", "rice", "rice", "jute"})
	require.NoError(t, err)
	assert.InDelta(t, 0.75, acc, 1e-12)

	_, err = Accuracy(nil, nil)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestEvaluateClassification(t *testing.T) {
	var warned []error
	errors.SetWarningHandler(func(w error) { warned = append(warned, w) })
	defer errors.SetWarningHandler(nil)

	yTrue := []string{"true", "true", "false", "false", "true"}
	yPred := []string{"true", "false", "false", "false", "true"}

	rep, err := EvaluateClassification(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, rep.Accuracy, 1e-12)
	require.Len(t, rep.Classes, 2)

	f := rep.Classes[0]
	assert.Equal(t, "false", f.Label)
	assert.InDelta(t, 2.0/3, f.Precision, 1e-12)
	assert.InDelta(t, 1.0, f.Recall, 1e-12)
	assert.InDelta(t, 0.8, f.F1, 1e-12)
	assert.Equal(t, 2, f.Support)

	tr := rep.Classes[1]
	assert.InDelta(t, 1.0, tr.Precision, 1e-12)
	assert.InDelta(t, 2.0/3, tr.Recall, 1e-12)
	assert.Empty(t, warned)

	// 一度も予測されないクラスは警告される
	_, err = EvaluateClassification([]string{"a", "b"}, []string{"a", "a"})
	require.NoError(t, err)
	assert.Len(t, warned, 1)
}

func TestNanEuclidean(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name string
		x, y []float64
		want float64
	}{
		{"fully observed", []float64{0, 0}, []float64{3, 4}, 5},
		// 2座標中1座標のみ共通: sqrt(2/1 * 9)
		{"one missing", []float64{3, nan}, []float64{0, 1}, math.Sqrt(18)},
		{"identical", []float64{1, nan, 2}, []float64{1, 5, 2}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, NanEuclidean(tt.x, tt.y), 1e-12)
		})
	}

	assert.True(t, math.IsNaN(NanEuclidean([]float64{nan, 1}, []float64{2, nan})))
	assert.InDelta(t, 5.0, Euclidean([]float64{0, 0}, []float64{3, 4}), 1e-12)
}
