package training

import (
	"context"
	"math"
	"strconv"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/agriclean/dataset"
	"github.com/YuminosukeSato/agriclean/linear"
	"github.com/YuminosukeSato/agriclean/metrics"
	"github.com/YuminosukeSato/agriclean/pkg/errors"
	"github.com/YuminosukeSato/agriclean/pkg/log"
	"github.com/YuminosukeSato/agriclean/preprocessing"
	"github.com/YuminosukeSato/agriclean/sklearn/linear_model"
)

// NeedModel predicts whether a field needs irrigation.
type NeedModel struct {
	Features []string
	// Means fills missing inputs at prediction time
	Means      []float64
	Scaler     *preprocessing.StandardScaler
	Classifier *linear_model.LogisticRegression
}

// Predict returns the irrigation flag for each raw feature row.
func (m *NeedModel) Predict(X mat.Matrix) ([]bool, error) {
	filled, err := fillMissing(X, m.Means)
	if err != nil {
		return nil, err
	}
	xs, err := m.Scaler.Transform(filled)
	if err != nil {
		return nil, err
	}
	pred, err := m.Classifier.Predict(xs)
	if err != nil {
		return nil, err
	}
	r, _ := pred.Dims()
	out := make([]bool, r)
	for i := range out {
		out[i] = pred.At(i, 0) != 0
	}
	return out, nil
}

// NeedEvaluation is the held-out score of an irrigation-need model.
type NeedEvaluation struct {
	Split
	Report metrics.ClassificationReport
}

// TrainIrrigationNeed fits the irrigation-need classifier on every row.
// Missing feature cells are filled with the column mean.
func (t *Trainer) TrainIrrigationNeed(ctx context.Context, tbl *dataset.Table) (*NeedModel, *NeedEvaluation, error) {
	start := time.Now()
	status, err := flagColumn(tbl, StatusColumn)
	if err != nil {
		return nil, nil, err
	}
	X, means, err := meanFilledMatrix(tbl, NeedFeatures, nil)
	if err != nil {
		return nil, nil, err
	}
	y := mat.NewDense(len(status), 1, nil)
	for i, s := range status {
		if s {
			y.Set(i, 0, 1)
		}
	}

	trainIdx, testIdx, err := t.split(ctx, len(status))
	if err != nil {
		return nil, nil, err
	}
	m := &NeedModel{
		Features: append([]string(nil), NeedFeatures...),
		Means:    means,
		Scaler:   preprocessing.NewStandardScaler(),
		Classifier: linear_model.NewLogisticRegression(
			linear_model.WithLRC(t.opts.NeedC),
			linear_model.WithLRMaxIter(t.opts.NeedMaxIter),
		),
	}
	xTrain, err := m.Scaler.FitTransform(takeRows(X, trainIdx))
	if err != nil {
		return nil, nil, errors.Wrap(err, "scale irrigation features")
	}
	if err := m.Classifier.Fit(xTrain, takeRows(y, trainIdx)); err != nil {
		return nil, nil, errors.Wrap(err, "fit irrigation classifier")
	}

	pred, err := m.Predict(takeRows(X, testIdx))
	if err != nil {
		return nil, nil, err
	}
	truth := make([]string, len(testIdx))
	got := make([]string, len(testIdx))
	for i, r := range testIdx {
		truth[i] = strconv.FormatBool(status[r])
		got[i] = strconv.FormatBool(pred[i])
	}
	rep, err := metrics.EvaluateClassification(truth, got)
	if err != nil {
		return nil, nil, err
	}

	eval := &NeedEvaluation{Split: Split{TrainRows: len(trainIdx), TestRows: len(testIdx)}, Report: rep}
	t.logDone("irrigation_need_logistic", eval.Split, len(NeedFeatures), start,
		log.AccuracyKey, rep.Accuracy, "metrics.macro_f1", rep.MacroF1, "train.iterations", m.Classifier.NIter)
	return m, eval, nil
}

// QuantityModel estimates the irrigation depth for fields that need water.
type QuantityModel struct {
	Features  []string
	Means     []float64
	Scaler    *preprocessing.StandardScaler
	Regressor *linear.LinearRegression
}

// Predict returns the recommended water depth in millimetres for each raw
// feature row.
func (m *QuantityModel) Predict(X mat.Matrix) ([]float64, error) {
	filled, err := fillMissing(X, m.Means)
	if err != nil {
		return nil, err
	}
	xs, err := m.Scaler.Transform(filled)
	if err != nil {
		return nil, err
	}
	pred, err := m.Regressor.Predict(xs)
	if err != nil {
		return nil, err
	}
	return mat.Col(nil, 0, pred), nil
}

// QuantityEvaluation is the held-out score of an irrigation quantity model.
type QuantityEvaluation struct {
	Split
	Report metrics.RegressionReport
}

// TrainIrrigationQuantity fits the water-depth regressor on rows whose status
// is true and whose target is present.
func (t *Trainer) TrainIrrigationQuantity(ctx context.Context, tbl *dataset.Table) (*QuantityModel, *QuantityEvaluation, error) {
	start := time.Now()
	status, err := flagColumn(tbl, StatusColumn)
	if err != nil {
		return nil, nil, err
	}
	water, err := tbl.Floats(WaterColumn)
	if err != nil {
		return nil, nil, err
	}

	var rows []int
	for i, s := range status {
		if s && !math.IsNaN(water[i]) {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		return nil, nil, errors.NewModelError("TrainIrrigationQuantity", "no irrigated rows", errors.ErrEmptyData)
	}
	X, means, err := meanFilledMatrix(tbl, QuantityFeatures, rows)
	if err != nil {
		return nil, nil, err
	}
	y := takeFloats(water, rows)

	trainIdx, testIdx, err := t.split(ctx, len(rows))
	if err != nil {
		return nil, nil, err
	}
	m := &QuantityModel{
		Features:  append([]string(nil), QuantityFeatures...),
		Means:     means,
		Scaler:    preprocessing.NewStandardScaler(),
		Regressor: linear.NewLinearRegression(linear.WithAlpha(t.opts.QuantityAlpha)),
	}
	xTrain, err := m.Scaler.FitTransform(takeRows(X, trainIdx))
	if err != nil {
		return nil, nil, errors.Wrap(err, "scale irrigation features")
	}
	yTrain := takeFloats(y, trainIdx)
	if err := m.Regressor.Fit(xTrain, mat.NewDense(len(yTrain), 1, yTrain)); err != nil {
		return nil, nil, errors.Wrap(err, "fit irrigation regressor")
	}

	pred, err := m.Predict(takeRows(X, testIdx))
	if err != nil {
		return nil, nil, err
	}
	yTest := takeFloats(y, testIdx)
	rep, err := metrics.EvaluateRegression(mat.NewVecDense(len(yTest), yTest), mat.NewVecDense(len(pred), pred), len(QuantityFeatures))
	if err != nil {
		return nil, nil, err
	}

	eval := &QuantityEvaluation{Split: Split{TrainRows: len(trainIdx), TestRows: len(testIdx)}, Report: rep}
	t.logDone("irrigation_quantity_linear", eval.Split, len(QuantityFeatures), start,
		log.MAEKey, rep.MAE, log.RMSEKey, rep.RMSE, log.R2ScoreKey, rep.R2)
	return m, eval, nil
}
