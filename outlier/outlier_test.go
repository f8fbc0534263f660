package outlier

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/agriclean/dataset"
	"github.com/YuminosukeSato/agriclean/pkg/errors"
	"github.com/YuminosukeSato/agriclean/pkg/log"
)

func TestQuantileLinear(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{0.25, 1.75},
		{0.5, 2.5},
		{0.75, 3.25},
		{1, 4},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Quantile(sorted, tt.p), 1e-12, "p=%v", tt.p)
	}
	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
	assert.Equal(t, 7.0, Median([]float64{7}))
	assert.Equal(t, 3.0, Median([]float64{1, 3, 100}))
}

func TestDetectIQR(t *testing.T) {
	tbl, err := dataset.NewTable(
		dataset.NewNumericColumn("N", []float64{10, 12, 11, 13, 12, 90, math.NaN()}),
		dataset.NewCategoricalColumn("label", []string{"a", "b", "c", "d", "e", "f", "g"}),
	)
	require.NoError(t, err)

	res := DetectIQR(tbl)
	require.Len(t, res, 1)
	// sorted: 10 11 12 12 13 90 → Q1=11.25, Q3=12.75
	assert.InDelta(t, 11.25, res[0].Q1, 1e-12)
	assert.InDelta(t, 12.75, res[0].Q3, 1e-12)
	assert.InDelta(t, 1.5, res[0].IQR, 1e-12)
	assert.Equal(t, 1, res[0].Outliers)

	// 報告のみで値は変わらない
	n, _ := tbl.Floats("N")
	assert.Equal(t, 90.0, n[5])
}

func soilTable(t *testing.T) *dataset.Table {
	t.Helper()
	tbl, err := dataset.NewTable(
		dataset.NewNumericColumn("ph", []float64{6.0, 9.5, 7.0, 5.0, 8.0}),
		dataset.NewNumericColumn("K", []float64{40, 250, 60, 201, 20}),
		dataset.NewNumericColumn("Pressure (KPa)", []float64{101, 85, 99, 100, 120}),
		dataset.NewCategoricalColumn("label", []string{"rice", "rice", "maize", "jute", "rice"}),
	)
	require.NoError(t, err)
	return tbl
}

func TestCorrectReplacesWithInRangeMedian(t *testing.T) {
	tbl := soilTable(t)
	logger, _ := log.NewTestLogger(log.LevelDebug)
	c := NewCorrector(DefaultRanges(), DefaultCorrectedColumns, logger)

	corrections, err := c.Correct(tbl)
	require.NoError(t, err)
	require.Len(t, corrections, 2)

	// 範囲内の ph は 5,6,7,8 → 中央値 6.5
	ph, _ := tbl.Floats("ph")
	assert.Equal(t, 6.5, ph[1])
	assert.Equal(t, []int{1}, corrections[0].Rows)
	assert.Equal(t, 6.5, corrections[0].Median)

	k, _ := tbl.Floats("K")
	assert.Equal(t, []float64{40, 40, 60, 40, 20}, k)
	assert.Equal(t, 2, corrections[1].Corrected)

	assert.True(t, logger.ContainsField(log.CorrectedKey, float64(2)))
}

func TestCorrectIsIdempotent(t *testing.T) {
	tbl := soilTable(t)
	c := NewCorrector(DefaultRanges(), DefaultCorrectedColumns, nil)
	_, err := c.Correct(tbl)
	require.NoError(t, err)
	first := tbl.Clone()

	corrections, err := c.Correct(tbl)
	require.NoError(t, err)
	for _, corr := range corrections {
		assert.Zero(t, corr.Corrected)
	}
	assert.Equal(t, first, tbl)
}

func TestValidateReportsUncorrectedColumns(t *testing.T) {
	tbl := soilTable(t)
	ranges := DefaultRanges()

	before := Validate(tbl, ranges)
	require.Len(t, before.Checks, len(ranges))
	assert.Equal(t, 5, before.Total())

	_, err := NewCorrector(ranges, DefaultCorrectedColumns, nil).Correct(tbl)
	require.NoError(t, err)

	after := Validate(tbl, ranges)
	ph, _ := after.Check("ph")
	assert.Zero(t, ph.OutOfRange)
	k, _ := after.Check("K")
	assert.Zero(t, k.OutOfRange)

	// 補正対象外の列は報告のみ
	pressure, ok := after.Check("Pressure (KPa)")
	require.True(t, ok)
	assert.Equal(t, 2, pressure.OutOfRange)

	rain, _ := after.Check("rainfall")
	assert.False(t, rain.Present)
}

func TestCorrectSkipsUnknownColumns(t *testing.T) {
	tbl := soilTable(t)
	c := NewCorrector(DefaultRanges(), []string{"label", "rainfall", "ph"}, nil)
	corrections, err := c.Correct(tbl)
	require.NoError(t, err)
	require.Len(t, corrections, 1)
	assert.Equal(t, "ph", corrections[0].Column)
}

func TestCorrectFailsWithoutInRangeValues(t *testing.T) {
	tbl, err := dataset.NewTable(dataset.NewNumericColumn("ph", []float64{10, 11}))
	require.NoError(t, err)
	_, err = NewCorrector(DefaultRanges(), []string{"ph"}, nil).Correct(tbl)
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve))
}

func TestLoadRanges(t *testing.T) {
	rt, err := LoadRanges(strings.NewReader(`
- column: ph
  lower: 3
  upper: 9
- column: K
  lower: 0
  upper: 200
`))
	require.NoError(t, err)
	assert.Equal(t, RangeTable{{"ph", 3, 9}, {"K", 0, 200}}, rt)

	_, err = LoadRanges(strings.NewReader("- column: ph\n  lower: 9\n  upper: 3\n"))
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))

	_, err = LoadRanges(strings.NewReader("- column: ph\n  lower: 1\n  upper: 3\n- column: ph\n  lower: 1\n  upper: 3\n"))
	assert.True(t, errors.As(err, &ve))

	_, err = LoadRanges(strings.NewReader("- column: ph\n  low: 1\n"))
	assert.Error(t, err)
}

func TestDefaultRangesValid(t *testing.T) {
	rt := DefaultRanges()
	require.NoError(t, rt.Validate())
	assert.Len(t, rt, 13)
	r, ok := rt.Lookup("Pressure (KPa)")
	require.True(t, ok)
	assert.Equal(t, Range{"Pressure (KPa)", 90, 110}, r)
}
