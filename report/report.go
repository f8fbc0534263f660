// Package report renders cleaning diagnostics as charts: the K sweep of the
// imputer and per-column box plots for outlier inspection.
package report

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/YuminosukeSato/agriclean/dataset"
	"github.com/YuminosukeSato/agriclean/impute"
	"github.com/YuminosukeSato/agriclean/pkg/errors"
)

const (
	chartWidth  = 6 * vg.Inch
	chartHeight = 4 * vg.Inch
	tileSize    = 3 * vg.Inch
)

// KSweepPlot は近傍数Kと平均二乗誤差の折れ線グラフを作成する
func KSweepPlot(rep *impute.TuningReport) (*plot.Plot, error) {
	if rep == nil || len(rep.Errors) == 0 {
		return nil, errors.NewModelError("KSweepPlot", "no sweep results", errors.ErrEmptyData)
	}
	p := plot.New()
	p.Title.Text = "Choosing the best K for the KNN imputer"
	p.X.Label.Text = "K (number of neighbors)"
	p.Y.Label.Text = "Mean squared error"
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(rep.Errors))
	ticks := make([]plot.Tick, len(rep.Errors))
	for i, ke := range rep.Errors {
		pts[i] = plotter.XY{X: float64(ke.K), Y: ke.MSE}
		ticks[i] = plot.Tick{Value: float64(ke.K), Label: strconv.Itoa(ke.K)}
	}
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, errors.Wrap(err, "k sweep line")
	}
	p.Add(line, points)
	p.X.Tick.Marker = plot.ConstantTicks(ticks)

	best, err := plotter.NewScatter(plotter.XYs{{X: float64(rep.SelectedK), Y: rep.SelectedMSE}})
	if err != nil {
		return nil, errors.Wrap(err, "selected k marker")
	}
	best.GlyphStyle.Shape = draw.RingGlyph{}
	best.GlyphStyle.Radius = vg.Points(6)
	p.Add(best)
	p.Legend.Add("selected K="+strconv.Itoa(rep.SelectedK), best)
	return p, nil
}

// ColumnBoxPlot は一列の箱ひげ図を作成する（欠損値は除く）
func ColumnBoxPlot(tbl *dataset.Table, column string) (*plot.Plot, error) {
	values, err := tbl.Floats(column)
	if err != nil {
		return nil, err
	}
	vals := make(plotter.Values, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return nil, errors.NewModelError("ColumnBoxPlot", "column "+column+" has no values", errors.ErrEmptyData)
	}

	p := plot.New()
	p.Title.Text = column
	box, err := plotter.NewBoxPlot(vg.Points(30), 0, vals)
	if err != nil {
		return nil, errors.Wrapf(err, "box plot %s", column)
	}
	p.Add(box)
	p.HideX()
	return p, nil
}

// WritePlot は単一のグラフを format（"png" または "svg"）で書き出す
func WritePlot(p *plot.Plot, w io.Writer, format string) error {
	wt, err := p.WriterTo(chartWidth, chartHeight, format)
	if err != nil {
		return errors.Wrapf(err, "render %s", format)
	}
	_, err = wt.WriteTo(w)
	return errors.Wrap(err, "write chart")
}

// WriteBoxPlotGrid は列ごとの箱ひげ図をperRow列の格子に並べてPNGで書き出す
func WriteBoxPlotGrid(tbl *dataset.Table, columns []string, perRow int, w io.Writer) error {
	if len(columns) == 0 {
		return errors.NewModelError("WriteBoxPlotGrid", "no columns", errors.ErrEmptyData)
	}
	if perRow < 1 {
		return errors.NewValidationError("perRow", "must be at least 1", perRow)
	}
	rows := (len(columns) + perRow - 1) / perRow

	plots := make([][]*plot.Plot, rows)
	for r := range plots {
		plots[r] = make([]*plot.Plot, perRow)
		for c := range plots[r] {
			idx := r*perRow + c
			if idx >= len(columns) {
				blank := plot.New()
				blank.HideAxes()
				plots[r][c] = blank
				continue
			}
			p, err := ColumnBoxPlot(tbl, columns[idx])
			if err != nil {
				return err
			}
			plots[r][c] = p
		}
	}

	img := vgimg.New(vg.Length(perRow)*tileSize, vg.Length(rows)*tileSize)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: rows, Cols: perRow,
		PadX: vg.Millimeter, PadY: vg.Millimeter,
		PadTop: vg.Points(4), PadBottom: vg.Points(4),
		PadLeft: vg.Points(4), PadRight: vg.Points(4),
	}
	canvases := plot.Align(plots, tiles, dc)
	for r := range plots {
		for c := range plots[r] {
			plots[r][c].Draw(canvases[r][c])
		}
	}

	png := vgimg.PngCanvas{Canvas: img}
	_, err := png.WriteTo(w)
	return errors.Wrap(err, "write box plot grid")
}

// SaveCleaningCharts は k_sweep.png と boxplots.png をdirに書き出し、作成したパスを返す
// 補完をスキップした場合はK探索のグラフを作らない
func SaveCleaningCharts(dir string, tuning *impute.TuningReport, tbl *dataset.Table) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create %s", dir)
	}
	var written []string

	if tuning != nil {
		p, err := KSweepPlot(tuning)
		if err != nil {
			return written, err
		}
		path := filepath.Join(dir, "k_sweep.png")
		if err := writeFile(path, func(w io.Writer) error { return WritePlot(p, w, "png") }); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	if cols := tbl.NumericNames(); len(cols) > 0 {
		path := filepath.Join(dir, "boxplots.png")
		if err := writeFile(path, func(w io.Writer) error { return WriteBoxPlotGrid(tbl, cols, 4, w) }); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "close %s", path)
}
