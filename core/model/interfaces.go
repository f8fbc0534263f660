// Package model defines the estimator contracts shared by the imputer,
// scalers and the supervised models.
package model

import "gonum.org/v1/gonum/mat"

// Fitter は教師ありモデルの学習インターフェース
type Fitter interface {
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Transformer はデータ変換のインターフェース（スケーラー、補完器）
type Transformer interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (mat.Matrix, error)
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// ProbabilityPredictor is the optional capability of classifiers that can
// report a per-class confidence. Callers check for it once with a type
// assertion instead of probing at prediction time.
type ProbabilityPredictor interface {
	Predictor
	PredictProba(X mat.Matrix) (mat.Matrix, error)
	Classes() []int
}

// Classifier combines fitting and prediction for label outputs.
type Classifier interface {
	Fitter
	Predictor
}

// Regressor is a Classifier's continuous counterpart; Score returns R².
type Regressor interface {
	Fitter
	Predictor
	Score(X, y mat.Matrix) (float64, error)
}

// ParameterGetter exposes hyperparameters for logging and reports.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}

// SupportsProba reports whether p exposes class probabilities.
func SupportsProba(p Predictor) (ProbabilityPredictor, bool) {
	pp, ok := p.(ProbabilityPredictor)
	return pp, ok
}
