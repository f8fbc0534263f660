// Package advisor turns a trained crop model into a single-reading
// recommendation with an optional confidence and a short crop description.
package advisor

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/agriclean/core/model"
	"github.com/YuminosukeSato/agriclean/pkg/errors"
	"github.com/YuminosukeSato/agriclean/training"
)

// Reading is one set of soil and climate inputs. The bounds match the
// dashboard's input widgets.
type Reading struct {
	N           float64 `json:"N" validate:"gte=0,lte=200"`
	P           float64 `json:"P" validate:"gte=0,lte=200"`
	K           float64 `json:"K" validate:"gte=0,lte=200"`
	Temperature float64 `json:"temperature" validate:"gte=0,lte=50"`
	Humidity    float64 `json:"humidity" validate:"gte=0,lte=100"`
	PH          float64 `json:"ph" validate:"gte=0,lte=14"`
	Rainfall    float64 `json:"rainfall" validate:"gte=0,lte=300"`
}

func (r Reading) row() []float64 {
	return []float64{r.N, r.P, r.K, r.Temperature, r.Humidity, r.PH, r.Rainfall}
}

// Recommendation is the advisor's answer.
type Recommendation struct {
	Crop string
	// Confidence is the largest class probability; valid only when
	// HasConfidence is true.
	Confidence    float64
	HasConfidence bool
	Info          string
}

// Advisor recommends crops from a fitted CropModel. It is safe for
// concurrent use.
type Advisor struct {
	crop  *training.CropModel
	pred  model.Predictor
	proba model.ProbabilityPredictor // nil when the estimator has no probabilities
}

// New wraps a fitted crop model. Whether the estimator reports probabilities
// is decided here, once.
func New(crop *training.CropModel) (*Advisor, error) {
	if crop == nil || crop.Classifier == nil || crop.Scaler == nil {
		return nil, errors.NewValueError("advisor.New", "crop model is incomplete")
	}
	if len(crop.Features) != len(training.CropFeatures) {
		return nil, errors.NewDimensionError("advisor.New", len(training.CropFeatures), len(crop.Features), 1)
	}
	a := &Advisor{crop: crop, pred: crop.Estimator()}
	if pp, ok := model.SupportsProba(a.pred); ok {
		a.proba = pp
	}
	return a, nil
}

// Load reads a crop model file and wraps it.
func Load(path string) (*Advisor, error) {
	crop, err := training.LoadCropModel(path)
	if err != nil {
		return nil, err
	}
	return New(crop)
}

var validate = validator.New()

// Recommend validates r and returns the recommended crop.
func (a *Advisor) Recommend(r Reading) (Recommendation, error) {
	var rec Recommendation
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return rec, errors.NewValidationError(fe.Field(), "out of range ("+fe.Tag()+"="+fe.Param()+")", fe.Value())
		}
		return rec, errors.Wrap(err, "validate reading")
	}

	x, err := a.crop.Scale(mat.NewDense(1, len(training.CropFeatures), r.row()))
	if err != nil {
		return rec, err
	}
	out, err := a.pred.Predict(x)
	if err != nil {
		return rec, err
	}
	code := int(out.At(0, 0))
	if rec.Crop, err = a.crop.Encoder.Inverse(code); err != nil {
		return rec, err
	}

	if a.proba != nil {
		p, err := a.proba.PredictProba(x)
		if err != nil {
			return rec, err
		}
		_, c := p.Dims()
		for j := 0; j < c; j++ {
			rec.Confidence = max(rec.Confidence, p.At(0, j))
		}
		rec.HasConfidence = true
	}
	rec.Info = Describe(rec.Crop)
	return rec, nil
}

// CropInfo holds the short descriptions shown next to a recommendation.
var CropInfo = map[string]string{
	"rice":        "Rice - High water requirement, suitable for humid conditions",
	"maize":       "Maize - Moderate water requirement, good for moderate climate",
	"chickpea":    "Chickpea - Low water requirement, drought tolerant",
	"kidneybeans": "Kidney Beans - Moderate water requirement",
	"pigeonpeas":  "Pigeon Peas - Drought tolerant, good for semi-arid regions",
	"mothbeans":   "Moth Beans - Very drought tolerant",
	"mungbean":    "Mung Bean - Short growing season, moderate water needs",
	"blackgram":   "Black Gram - Good for dry farming",
	"lentil":      "Lentil - Cool season crop, low water requirement",
	"pomegranate": "Pomegranate - Drought tolerant fruit crop",
	"banana":      "Banana - High water requirement, tropical fruit",
	"mango":       "Mango - Tropical fruit, moderate water needs",
	"grapes":      "Grapes - Mediterranean climate preferred",
	"watermelon":  "Watermelon - High water requirement in summer",
	"muskmelon":   "Muskmelon - Warm season crop",
	"apple":       "Apple - Temperate climate fruit",
	"orange":      "Orange - Citrus fruit, warm climate",
	"papaya":      "Papaya - Tropical fruit, year-round growing",
	"coconut":     "Coconut - Coastal tropical crop",
	"cotton":      "Cotton - Cash crop, moderate water needs",
	"jute":        "Jute - Fiber crop, high humidity required",
	"coffee":      "Coffee - Shade-grown, specific climate needs",
}

// Describe returns the description of crop, or "" when none is known.
// Lookup ignores case.
func Describe(crop string) string {
	return CropInfo[strings.ToLower(crop)]
}
