package outlier

import (
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/agriclean/pkg/errors"
)

// Range は一列の物理的に妥当な値の範囲 [Lower, Upper]
type Range struct {
	Column string  `yaml:"column" validate:"required"`
	Lower  float64 `yaml:"lower"`
	Upper  float64 `yaml:"upper" validate:"gtefield=Lower"`
}

// Contains はvが範囲内かどうかを返す
func (r Range) Contains(v float64) bool {
	return v >= r.Lower && v <= r.Upper
}

// RangeTable は順序付きの論理範囲表
type RangeTable []Range

// DefaultCorrectedColumns は既定で補正する列
var DefaultCorrectedColumns = []string{"ph", "K"}

// DefaultRanges はセンサー・土壌データ用の既定の論理範囲表を返す
func DefaultRanges() RangeTable {
	return RangeTable{
		{Column: "Air temperature (C)", Lower: 0, Upper: 50},
		{Column: "Wind speed (Km/h)", Lower: 0, Upper: 120},
		{Column: "Wind gust (Km/h)", Lower: 0, Upper: 150},
		{Column: "Air humidity (%)", Lower: 0, Upper: 100},
		{Column: "Pressure (KPa)", Lower: 90, Upper: 110},
		{Column: "ph", Lower: 3, Upper: 9},
		{Column: "rainfall", Lower: 0, Upper: 300},
		{Column: "N", Lower: 0, Upper: 150},
		{Column: "P", Lower: 0, Upper: 150},
		{Column: "K", Lower: 0, Upper: 200},
		{Column: "Soil Moisture", Lower: 0, Upper: 100},
		{Column: "Soil Humidity", Lower: 0, Upper: 100},
		{Column: "Temperature", Lower: 0, Upper: 50},
	}
}

// Lookup は列名に対応する範囲を返す
func (rt RangeTable) Lookup(column string) (Range, bool) {
	for _, r := range rt {
		if r.Column == column {
			return r, true
		}
	}
	return Range{}, false
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate は各範囲の下限・上限と列名の重複を検証する
func (rt RangeTable) Validate() error {
	seen := make(map[string]struct{}, len(rt))
	for _, r := range rt {
		if err := validate.Struct(r); err != nil {
			return errors.NewValidationError(r.Column, "invalid range", err.Error())
		}
		if _, dup := seen[r.Column]; dup {
			return errors.NewValidationError(r.Column, "duplicate range entry", r)
		}
		seen[r.Column] = struct{}{}
	}
	return nil
}

// LoadRanges はYAMLの範囲表を読み込む
//
//	- column: ph
//	  lower: 3
//	  upper: 9
func LoadRanges(r io.Reader) (RangeTable, error) {
	var rt RangeTable
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&rt); err != nil {
		return nil, errors.Wrap(err, "decode range table")
	}
	if err := rt.Validate(); err != nil {
		return nil, err
	}
	return rt, nil
}

// LoadRangesFile はファイルから範囲表を読み込む
func LoadRangesFile(path string) (RangeTable, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("file", path, path)
		}
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	return LoadRanges(f)
}
