package training

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/agriclean/dataset"
	"github.com/YuminosukeSato/agriclean/pkg/errors"
)

// CropFeatures are the soil and climate inputs of the crop recommender.
var CropFeatures = []string{"N", "P", "K", "temperature", "humidity", "ph", "rainfall"}

// CropLabel is the crop-name column.
const CropLabel = "label"

// NeedFeatures are the inputs of the irrigation-need classifier.
var NeedFeatures = []string{
	"soil_moisture", "temperature", "soil_humidity", "Relative_Soil_Saturation",
	"temp_diff", "Evapotranspiration", "rain_vs_soil", "rainfall", "ph_encoded",
	"n", "p", "k", "np_ratio", "nk_ratio", "crop_encoded", "rain_3days",
	"moisture_temp_ratio", "evapo_ratio", "rain_effect", "moisture_change_rate",
	"temp_scaled", "npk_balance", "wind_ratio",
}

// QuantityFeatures are the inputs of the irrigation quantity regressor.
var QuantityFeatures = []string{
	"soil_moisture", "temperature", "soil_humidity", "air_temperature_(c)",
	"wind_speed_(km/h)", "humidity", "wind_gust_(km/h)", "pressure_(kpa)",
	"ph", "rainfall", "n", "p", "k", "soil_moisture_diff",
	"Relative_Soil_Saturation", "temp_diff", "wind_effect",
	"Evapotranspiration", "rain_3days", "rain_vs_soil",
	"np_ratio", "nk_ratio", "ph_encoded", "crop_encoded",
	"moisture_temp_ratio", "evapo_ratio", "rain_effect",
	"moisture_change_rate", "temp_scaled", "npk_balance", "wind_ratio",
}

const (
	// StatusColumn is the irrigation-needed flag.
	StatusColumn = "status"
	// WaterColumn is the recommended irrigation depth in millimetres.
	WaterColumn = "recommended_water_mm"
)

// columnMeans returns the mean of the observed values of each column of m.
// A column with no observed value is an error.
func columnMeans(m mat.Matrix, names []string) ([]float64, error) {
	r, c := m.Dims()
	means := make([]float64, c)
	obs := make([]float64, 0, r)
	for j := 0; j < c; j++ {
		obs = obs[:0]
		for i := 0; i < r; i++ {
			if v := m.At(i, j); !math.IsNaN(v) {
				obs = append(obs, v)
			}
		}
		if len(obs) == 0 {
			return nil, errors.NewValidationError(names[j], "column has no observed values", r)
		}
		means[j] = stat.Mean(obs, nil)
	}
	return means, nil
}

// fillMissing returns a copy of X with NaN cells replaced by the column's fill
// value.
func fillMissing(X mat.Matrix, fill []float64) (*mat.Dense, error) {
	_, c := X.Dims()
	if c != len(fill) {
		return nil, errors.NewDimensionError("fillMissing", len(fill), c, 1)
	}
	out := mat.DenseCopyOf(X)
	out.Apply(func(_, j int, v float64) float64 {
		if math.IsNaN(v) {
			return fill[j]
		}
		return v
	}, out)
	return out, nil
}

// meanFilledMatrix extracts the named columns for rows and fills missing
// cells with the column means over those rows.
func meanFilledMatrix(tbl *dataset.Table, names []string, rows []int) (*mat.Dense, []float64, error) {
	m, err := tbl.Matrix(names, rows)
	if err != nil {
		return nil, nil, err
	}
	means, err := columnMeans(m, names)
	if err != nil {
		return nil, nil, err
	}
	filled, err := fillMissing(m, means)
	if err != nil {
		return nil, nil, err
	}
	return filled, means, nil
}

// parseFlag reads a boolean cell. Numeric columns are true when non-zero.
func parseFlag(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "on", "y":
		return true, true
	case "no", "off", "n":
		return false, true
	}
	b, err := strconv.ParseBool(s)
	return b, err == nil
}

// flagColumn reads a boolean target column. Missing or unparseable cells are
// errors.
func flagColumn(tbl *dataset.Table, name string) ([]bool, error) {
	c, ok := tbl.Column(name)
	if !ok {
		return nil, errors.NewNotFoundError("column", name, "")
	}
	out := make([]bool, tbl.NumRows())
	for i := range out {
		if c.IsMissing(i) {
			return nil, errors.NewValueError("flagColumn", "missing "+name+" at row "+strconv.Itoa(i))
		}
		if c.Kind == dataset.Numeric {
			out[i] = c.Floats[i] != 0
			continue
		}
		b, ok := parseFlag(c.Strings[i])
		if !ok {
			return nil, errors.NewValueError("flagColumn", "cannot read "+strconv.Quote(c.Strings[i])+" as a flag")
		}
		out[i] = b
	}
	return out, nil
}

// LabelEncoder maps string labels to integers by their sorted position.
type LabelEncoder struct {
	Classes []string
}

// Fit records the distinct non-empty labels.
func (e *LabelEncoder) Fit(labels []string) error {
	seen := make(map[string]struct{})
	for _, l := range labels {
		if l != "" {
			seen[l] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return errors.NewModelError("LabelEncoder.Fit", "no labels", errors.ErrEmptyData)
	}
	e.Classes = make([]string, 0, len(seen))
	for l := range seen {
		e.Classes = append(e.Classes, l)
	}
	sort.Strings(e.Classes)
	return nil
}

// Transform encodes labels as an n×1 matrix.
func (e *LabelEncoder) Transform(labels []string) (*mat.Dense, error) {
	out := mat.NewDense(len(labels), 1, nil)
	for i, l := range labels {
		k := sort.SearchStrings(e.Classes, l)
		if k == len(e.Classes) || e.Classes[k] != l {
			return nil, errors.NewValidationError("label", "unknown label", l)
		}
		out.Set(i, 0, float64(k))
	}
	return out, nil
}

// Inverse returns the label of code.
func (e *LabelEncoder) Inverse(code int) (string, error) {
	if code < 0 || code >= len(e.Classes) {
		return "", errors.NewValidationError("code", "out of range", code)
	}
	return e.Classes[code], nil
}
