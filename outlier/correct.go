package outlier

import (
	"math"

	"github.com/YuminosukeSato/agriclean/dataset"
	"github.com/YuminosukeSato/agriclean/pkg/errors"
	"github.com/YuminosukeSato/agriclean/pkg/log"
)

// ColumnCheck は一列の論理範囲チェックの結果
type ColumnCheck struct {
	Column     string
	Lower      float64
	Upper      float64
	Present    bool // データセットに列が存在するか
	OutOfRange int
}

// RangeReport は範囲表の全項目に対するチェック結果（範囲表の順）
type RangeReport struct {
	Checks []ColumnCheck
}

// Total は範囲外の値の総数
func (r RangeReport) Total() int {
	n := 0
	for _, c := range r.Checks {
		n += c.OutOfRange
	}
	return n
}

// Check は列名に対応する結果を返す
func (r RangeReport) Check(column string) (ColumnCheck, bool) {
	for _, c := range r.Checks {
		if c.Column == column {
			return c, true
		}
	}
	return ColumnCheck{}, false
}

// Validate は範囲表の各項目について範囲外の値を数える。値は変更しない
func Validate(tbl *dataset.Table, ranges RangeTable) RangeReport {
	rep := RangeReport{Checks: make([]ColumnCheck, 0, len(ranges))}
	for _, r := range ranges {
		check := ColumnCheck{Column: r.Column, Lower: r.Lower, Upper: r.Upper}
		if values, err := tbl.Floats(r.Column); err == nil {
			check.Present = true
			check.OutOfRange = len(outOfRange(values, r))
		}
		rep.Checks = append(rep.Checks, check)
	}
	return rep
}

// Correction は一列の補正結果
type Correction struct {
	Column    string
	Median    float64 // 補正時点で範囲内の値から計算した中央値
	Corrected int
	Rows      []int
}

// Corrector は論理範囲外の値を列の中央値で置き換える
type Corrector struct {
	Ranges  RangeTable
	Columns []string // 補正対象（この順に処理する）
	logger  log.Logger
}

// NewCorrector は新しいCorrectorを作成する。loggerがnilならグローバルロガーを使う
func NewCorrector(ranges RangeTable, columns []string, logger log.Logger) *Corrector {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &Corrector{Ranges: ranges, Columns: columns, logger: logger.With(log.ComponentKey, "outlier")}
}

// Correct は対象列を順に処理し、範囲外の値をその時点の範囲内の値の中央値で置き換える
// 範囲表またはデータセットにない列はスキップする。何度実行しても結果は変わらない
func (c *Corrector) Correct(tbl *dataset.Table) ([]Correction, error) {
	var out []Correction
	for _, name := range c.Columns {
		r, ok := c.Ranges.Lookup(name)
		if !ok {
			c.logger.Debug("no logical range, skipping", log.ColumnKey, name)
			continue
		}
		values, err := tbl.Floats(name)
		if err != nil {
			c.logger.Debug("column not in dataset, skipping", log.ColumnKey, name)
			continue
		}

		corr := Correction{Column: name, Rows: outOfRange(values, r)}
		if len(corr.Rows) == 0 {
			corr.Median = Median(inRange(values, r))
			out = append(out, corr)
			continue
		}

		valid := inRange(values, r)
		if len(valid) == 0 {
			return nil, errors.NewValueError("Correct", "column "+name+" has no values inside its logical range")
		}
		corr.Median = Median(valid)
		for _, i := range corr.Rows {
			values[i] = corr.Median
		}
		corr.Corrected = len(corr.Rows)
		out = append(out, corr)

		c.logger.Info("out-of-range values replaced",
			log.ColumnKey, name,
			log.LowerKey, r.Lower,
			log.UpperKey, r.Upper,
			log.CorrectedKey, corr.Corrected,
			log.MedianKey, corr.Median,
		)
	}
	return out, nil
}

func outOfRange(values []float64, r Range) []int {
	var rows []int
	for i, v := range values {
		if !math.IsNaN(v) && !r.Contains(v) {
			rows = append(rows, i)
		}
	}
	return rows
}

// inRange は範囲内の値を昇順で返す
func inRange(values []float64, r Range) []float64 {
	sorted := observed(values)
	out := sorted[:0]
	for _, v := range sorted {
		if r.Contains(v) {
			out = append(out, v)
		}
	}
	return out
}
