package report

import (
	"bytes"
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/agriclean/dataset"
	"github.com/YuminosukeSato/agriclean/impute"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func sweep() *impute.TuningReport {
	return &impute.TuningReport{
		Errors: []impute.KError{
			{K: 2, MSE: 0.9}, {K: 3, MSE: 0.7}, {K: 5, MSE: 0.5},
			{K: 7, MSE: 0.55}, {K: 9, MSE: 0.6}, {K: 11, MSE: 0.66},
		},
		SelectedK:   5,
		SelectedMSE: 0.5,
	}
}

func soil(t *testing.T) *dataset.Table {
	t.Helper()
	tbl, err := dataset.NewTable(
		dataset.NewNumericColumn("ph", []float64{6, 6.5, 7, math.NaN(), 9.5}),
		dataset.NewNumericColumn("K", []float64{40, 45, 38, 250, 41}),
		dataset.NewNumericColumn("N", []float64{90, 85, 60, 74, 78}),
		dataset.NewCategoricalColumn("label", []string{"rice", "rice", "maize", "jute", "rice"}),
	)
	require.NoError(t, err)
	return tbl
}

func TestKSweepPlotFormats(t *testing.T) {
	p, err := KSweepPlot(sweep())
	require.NoError(t, err)

	var png bytes.Buffer
	require.NoError(t, WritePlot(p, &png, "png"))
	assert.True(t, bytes.HasPrefix(png.Bytes(), pngMagic))

	var svg bytes.Buffer
	require.NoError(t, WritePlot(p, &svg, "svg"))
	assert.Contains(t, svg.String(), "<svg")

	assert.Error(t, WritePlot(p, &svg, "bmp"))
}

func TestKSweepPlotRequiresResults(t *testing.T) {
	_, err := KSweepPlot(nil)
	assert.Error(t, err)
	_, err = KSweepPlot(&impute.TuningReport{})
	assert.Error(t, err)
}

func TestBoxPlots(t *testing.T) {
	tbl := soil(t)

	_, err := ColumnBoxPlot(tbl, "label")
	assert.Error(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteBoxPlotGrid(tbl, tbl.NumericNames(), 2, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))

	assert.Error(t, WriteBoxPlotGrid(tbl, nil, 2, &buf))
	assert.Error(t, WriteBoxPlotGrid(tbl, []string{"ph"}, 0, &buf))
}

func TestSaveCleaningCharts(t *testing.T) {
	dir := t.TempDir()
	paths, err := SaveCleaningCharts(dir, sweep(), soil(t))
	require.NoError(t, err)
	require.Len(t, paths, 2)
	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	paths, err = SaveCleaningCharts(t.TempDir(), nil, soil(t))
	require.NoError(t, err)
	assert.Len(t, paths, 1)
}
