package impute

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/agriclean/dataset"
	"github.com/YuminosukeSato/agriclean/pkg/errors"
	"github.com/YuminosukeSato/agriclean/pkg/log"
)

// sensorMatrix は相関のある3列を持つ欠損なしの行列
func sensorMatrix(rows int) *mat.Dense {
	m := mat.NewDense(rows, 3, nil)
	for i := 0; i < rows; i++ {
		x := float64(i%23) + 0.37*float64(i)
		m.Set(i, 0, x)
		m.Set(i, 1, 2*x+math.Sin(float64(i)))
		m.Set(i, 2, 50-0.5*x+math.Cos(float64(i)))
	}
	return m
}

func newTestTuner(cfg TuneConfig) (*Tuner, *log.TestLogger) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	return NewTuner(cfg, logger), logger
}

func TestSelectKIsArgmin(t *testing.T) {
	tuner, logger := newTestTuner(DefaultTuneConfig())

	rep, err := tuner.SelectK(context.Background(), sensorMatrix(200))
	require.NoError(t, err)

	require.Len(t, rep.Errors, len(DefaultCandidates))
	best := rep.Errors[0]
	for i, ke := range rep.Errors {
		assert.Equal(t, DefaultCandidates[i], ke.K)
		// マスク評価の誤差は常に非負の有限値
		assert.False(t, math.IsNaN(ke.MSE) || math.IsInf(ke.MSE, 0))
		assert.GreaterOrEqual(t, ke.MSE, 0.0)
		if ke.MSE < best.MSE {
			best = ke
		}
	}
	assert.Equal(t, best.K, rep.SelectedK)
	assert.Equal(t, best.MSE, rep.SelectedMSE)
	assert.Equal(t, 200, rep.SampleRows)
	assert.Positive(t, rep.MaskedCells)

	assert.True(t, rep.SanityChecked)
	assert.Positive(t, rep.SanityMaskedCells)
	assert.GreaterOrEqual(t, rep.SanityMSE, 0.0)

	assert.True(t, logger.ContainsMessage("neighbor count selected"))
	assert.True(t, logger.ContainsField(log.SelectedKKey, float64(rep.SelectedK)))
}

func TestSelectKTiesGoToFirstCandidate(t *testing.T) {
	// 全行が同一なら補完は厳密でありどのKでも誤差は0
	m := mat.NewDense(30, 2, nil)
	for i := 0; i < 30; i++ {
		m.Set(i, 0, 6.5)
		m.Set(i, 1, 40)
	}
	cfg := DefaultTuneConfig()
	cfg.Candidates = []int{7, 3, 5}
	tuner, _ := newTestTuner(cfg)

	rep, err := tuner.SelectK(context.Background(), m)
	require.NoError(t, err)
	for _, ke := range rep.Errors {
		assert.Equal(t, 0.0, ke.MSE)
	}
	assert.Equal(t, 7, rep.SelectedK)
}

func TestSelectKIsReproducible(t *testing.T) {
	tuner, _ := newTestTuner(DefaultTuneConfig())
	a, err := tuner.SelectK(context.Background(), sensorMatrix(80))
	require.NoError(t, err)
	b, err := tuner.SelectK(context.Background(), sensorMatrix(80))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSelectKDegenerateSample(t *testing.T) {
	tests := []struct {
		name   string
		rows   int
		mutate func(*TuneConfig)
	}{
		{"too few rows", 5, func(*TuneConfig) {}},
		{"empty sample", 0, func(*TuneConfig) {}},
		{"mask hides nothing", 40, func(c *TuneConfig) { c.MaskRate = 1e-12 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultTuneConfig()
			tt.mutate(&cfg)
			tuner, _ := newTestTuner(cfg)

			var m mat.Matrix = &mat.Dense{}
			if tt.rows > 0 {
				m = sensorMatrix(tt.rows)
			}
			_, err := tuner.SelectK(context.Background(), m)
			var de *errors.DegenerateSampleError
			require.True(t, errors.As(err, &de), "got %v", err)
		})
	}
}

func TestSelectKRejectsEmptyCandidates(t *testing.T) {
	cfg := DefaultTuneConfig()
	cfg.Candidates = nil
	tuner, _ := newTestTuner(cfg)
	_, err := tuner.SelectK(context.Background(), sensorMatrix(20))
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestRandomMaskRate(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	hidden := RandomMask(1000, 10, 0.1, rng)
	rate := float64(CountHidden(hidden)) / float64(len(hidden))
	assert.InDelta(t, 0.1, rate, 0.01)

	masked := ApplyMask(mat.NewDense(1000, 10, nil), hidden)
	for idx, h := range hidden {
		assert.Equal(t, h, math.IsNaN(masked.At(idx/10, idx%10)))
	}
}

func TestSampleRowsCap(t *testing.T) {
	rows := make([]int, 50)
	for i := range rows {
		rows[i] = i * 2
	}
	got := sampleRows(rows, 10, rand.New(rand.NewPCG(42, 0)))
	require.Len(t, got, 10)
	assert.IsIncreasing(t, got)

	assert.Equal(t, rows, sampleRows(rows, 100, rand.New(rand.NewPCG(42, 0))))
}

func sensorTable(t *testing.T, rows int, holes bool) *dataset.Table {
	t.Helper()
	m := sensorMatrix(rows)
	a, b, c := make([]float64, rows), make([]float64, rows), make([]float64, rows)
	labels := make([]string, rows)
	for i := 0; i < rows; i++ {
		a[i], b[i], c[i] = m.At(i, 0), m.At(i, 1), m.At(i, 2)
		labels[i] = []string{"rice", "maize", "jute"}[i%3]
		if holes && i%7 == 3 {
			b[i] = math.NaN()
		}
		if holes && i%11 == 5 {
			c[i] = math.NaN()
		}
	}
	tbl, err := dataset.NewTable(
		dataset.NewNumericColumn("Soil Moisture", a),
		dataset.NewCategoricalColumn("label", labels),
		dataset.NewNumericColumn("Air humidity (%)", b),
		dataset.NewNumericColumn("Temperature", c),
	)
	require.NoError(t, err)
	return tbl
}

func TestImputeTableFillsCandidateColumns(t *testing.T) {
	tbl := sensorTable(t, 120, true)
	labelsBefore, _ := tbl.Column("label")
	labelsCopy := append([]string(nil), labelsBefore.Strings...)
	moistureBefore, _ := tbl.Floats("Soil Moisture")
	moistureCopy := append([]float64(nil), moistureBefore...)

	tuner, _ := newTestTuner(DefaultTuneConfig())
	rep, err := tuner.ImputeTable(context.Background(), tbl)
	require.NoError(t, err)

	assert.False(t, rep.Skipped)
	assert.Equal(t, []string{"Air humidity (%)", "Temperature"}, rep.Columns)
	assert.Equal(t, 17, rep.MissingBefore["Air humidity (%)"])
	assert.Equal(t, rep.Tuning.SelectedK, rep.SelectedK)

	for _, c := range rep.Columns {
		assert.Zero(t, tbl.MissingCounts()[c], c)
	}
	assert.Equal(t, []string{"Soil Moisture", "label", "Air humidity (%)", "Temperature"}, tbl.Names())

	labels, _ := tbl.Column("label")
	assert.Equal(t, labelsCopy, labels.Strings)
	moisture, _ := tbl.Floats("Soil Moisture")
	assert.Equal(t, moistureCopy, moisture)
}

func TestImputeTableSkipsCompleteData(t *testing.T) {
	tbl := sensorTable(t, 30, false)
	tuner, logger := newTestTuner(DefaultTuneConfig())
	rep, err := tuner.ImputeTable(context.Background(), tbl)
	require.NoError(t, err)
	assert.True(t, rep.Skipped)
	assert.Nil(t, rep.Tuning)
	assert.True(t, logger.ContainsMessage("imputation skipped"))
}

func TestImputeTableDegenerate(t *testing.T) {
	// 全行に欠損があると正解データが作れない
	vals := []float64{1, math.NaN(), 3, math.NaN()}
	other := []float64{math.NaN(), 2, math.NaN(), 4}
	tbl, err := dataset.NewTable(
		dataset.NewNumericColumn("N", vals),
		dataset.NewNumericColumn("P", other),
	)
	require.NoError(t, err)

	tuner, _ := newTestTuner(DefaultTuneConfig())
	_, err = tuner.ImputeTable(context.Background(), tbl)
	var de *errors.DegenerateSampleError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 0, de.Rows)
}
