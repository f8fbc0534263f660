package impute

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/agriclean/pkg/errors"
)

var nan = math.NaN()

func TestKNNImputerWeights(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 2,
		2, 4,
		3, 6,
		nan, 8,
	})

	tests := []struct {
		name    string
		weights Weights
		want    float64
	}{
		// 近傍は行2（√8）と行1（√32）
		{"uniform", Uniform, 2.5},
		// 重みは距離の逆数なので 2:1
		{"distance", Distance, 8.0 / 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imp := NewKNNImputer(WithNeighbors(2), WithWeights(tt.weights))
			out, err := imp.FitTransform(X)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, out.At(3, 0), 1e-12)
			// 観測済みのセルは変わらない
			assert.Equal(t, 8.0, out.At(3, 1))
			assert.Equal(t, 1.0, out.At(0, 0))
		})
	}
}

func TestKNNImputerZeroDistanceDonors(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 5,
		1, 7,
		1, nan,
		2, 9,
	})
	imp := NewKNNImputer(WithNeighbors(3), WithWeights(Distance))
	out, err := imp.FitTransform(X)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, out.At(2, 1), 1e-12)
}

func TestKNNImputerFallsBackToColumnMean(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		nan, 1,
		2, nan,
		4, nan,
	})
	imp := NewKNNImputer(WithNeighbors(2))
	out, err := imp.FitTransform(X)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, out.At(0, 0), 1e-12)
	assert.InDelta(t, 1.0, out.At(1, 1), 1e-12)
	assert.InDelta(t, 1.0, out.At(2, 1), 1e-12)
}

func TestKNNImputerErrors(t *testing.T) {
	imp := NewKNNImputer()

	_, err := imp.Transform(mat.NewDense(1, 1, []float64{1}))
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	err = imp.Fit(mat.NewDense(2, 2, []float64{1, nan, 2, nan}))
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.False(t, imp.IsFitted())

	require.NoError(t, imp.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})))
	_, err = imp.Transform(mat.NewDense(1, 3, nil))
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))

	err = NewKNNImputer(WithNeighbors(0)).Fit(mat.NewDense(1, 1, []float64{1}))
	assert.True(t, errors.As(err, &ve))
}

func TestKNNImputerParallelMatchesSequential(t *testing.T) {
	const rows, cols = 700, 4
	data := make([]float64, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := math.Sin(float64(i*(j+1))) * 10
			if (i+j)%9 == 0 {
				v = nan
			}
			data[i*cols+j] = v
		}
	}
	X := mat.NewDense(rows, cols, data)

	imp := NewKNNImputer(WithNeighbors(3))
	require.NoError(t, imp.Fit(X))
	got, err := imp.TransformContext(context.Background(), X)
	require.NoError(t, err)

	want := mat.DenseCopyOf(X)
	for i := 0; i < rows; i++ {
		imp.imputeRow(want.RawRowView(i))
	}
	assert.True(t, mat.Equal(want, got))

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			assert.False(t, math.IsNaN(got.At(i, j)))
		}
	}
}

func TestKNNImputerCancelled(t *testing.T) {
	X := mat.NewDense(300, 1, nil)
	X.Set(0, 0, nan)
	imp := NewKNNImputer()
	require.NoError(t, imp.Fit(X))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := imp.TransformContext(ctx, X)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWeightsText(t *testing.T) {
	var w Weights
	require.NoError(t, w.UnmarshalText([]byte("distance")))
	assert.Equal(t, Distance, w)
	b, _ := w.MarshalText()
	assert.Equal(t, "distance", string(b))
	assert.Error(t, w.UnmarshalText([]byte("gaussian")))
}
