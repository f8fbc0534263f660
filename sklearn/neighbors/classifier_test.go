package neighbors

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/agriclean/core/model"
	"github.com/YuminosukeSato/agriclean/pkg/errors"
)

func clusters() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(6, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		10, 10,
		10, 11,
		11, 10,
	})
	y := mat.NewDense(6, 1, []float64{7, 7, 7, 3, 3, 3})
	return X, y
}

func TestKNeighborsClassifierPredict(t *testing.T) {
	X, y := clusters()
	kn := NewKNeighborsClassifier(3)
	require.NoError(t, kn.Fit(X, y))
	assert.Equal(t, []int{3, 7}, kn.Classes())

	pred, err := kn.Predict(mat.NewDense(2, 2, []float64{0.5, 0.5, 9, 9}))
	require.NoError(t, err)
	assert.Equal(t, 7.0, pred.At(0, 0))
	assert.Equal(t, 3.0, pred.At(1, 0))
}

func TestKNeighborsClassifierProba(t *testing.T) {
	X, y := clusters()
	kn := NewKNeighborsClassifier(4)
	require.NoError(t, kn.Fit(X, y))

	// (0,0) の近傍4つは クラス7が3つ、クラス3が1つ
	proba, err := kn.PredictProba(mat.NewDense(1, 2, []float64{0, 0}))
	require.NoError(t, err)
	assert.InDelta(t, 0.25, proba.At(0, 0), 1e-12)
	assert.InDelta(t, 0.75, proba.At(0, 1), 1e-12)

	_, ok := model.SupportsProba(kn)
	assert.True(t, ok)
}

func TestKNeighborsClassifierVoteTieGoesToSmallerLabel(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{0, 2})
	y := mat.NewDense(2, 1, []float64{9, 4})
	kn := NewKNeighborsClassifier(2)
	require.NoError(t, kn.Fit(X, y))

	pred, err := kn.Predict(mat.NewDense(1, 1, []float64{1}))
	require.NoError(t, err)
	assert.Equal(t, 4.0, pred.At(0, 0))
}

func TestKNeighborsClassifierParallelMatchesSequential(t *testing.T) {
	X, y := clusters()
	kn := NewKNeighborsClassifier(3)
	require.NoError(t, kn.Fit(X, y))

	q := mat.NewDense(600, 2, nil)
	for i := 0; i < 600; i++ {
		q.Set(i, 0, float64(i%12))
		q.Set(i, 1, float64(i%7))
	}
	pred, err := kn.Predict(q)
	require.NoError(t, err)
	for i := 0; i < 600; i++ {
		single, err := kn.Predict(mat.NewDense(1, 2, q.RawRowView(i)))
		require.NoError(t, err)
		assert.Equal(t, single.At(0, 0), pred.At(i, 0))
	}
}

func TestKNeighborsClassifierErrors(t *testing.T) {
	X, y := clusters()

	_, err := NewKNeighborsClassifier(3).Predict(X)
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	err = NewKNeighborsClassifier(7).Fit(X, y)
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))

	kn := NewKNeighborsClassifier(1)
	require.NoError(t, kn.Fit(X, y))
	_, err = kn.Predict(mat.NewDense(1, 3, nil))
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))
}

func TestKNeighborsClassifierGob(t *testing.T) {
	X, y := clusters()
	kn := NewKNeighborsClassifier(3)
	require.NoError(t, kn.Fit(X, y))

	var buf bytes.Buffer
	require.NoError(t, model.SaveModelToWriter(kn, &buf))
	var loaded KNeighborsClassifier
	require.NoError(t, model.LoadModelFromReader(&loaded, &buf))

	pred, err := loaded.Predict(mat.NewDense(1, 2, []float64{10, 10}))
	require.NoError(t, err)
	assert.Equal(t, 3.0, pred.At(0, 0))
}
