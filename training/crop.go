package training

import (
	"context"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/agriclean/core/model"
	"github.com/YuminosukeSato/agriclean/dataset"
	"github.com/YuminosukeSato/agriclean/metrics"
	"github.com/YuminosukeSato/agriclean/pkg/errors"
	"github.com/YuminosukeSato/agriclean/pkg/log"
	"github.com/YuminosukeSato/agriclean/preprocessing"
	"github.com/YuminosukeSato/agriclean/sklearn/neighbors"
)

// CropModel recommends a crop from soil and climate readings. Inputs are
// standardized before the neighbor search.
type CropModel struct {
	Features   []string
	Encoder    LabelEncoder
	Scaler     *preprocessing.StandardScaler
	Classifier *neighbors.KNeighborsClassifier
}

// Estimator returns the fitted classifier.
func (m *CropModel) Estimator() model.Predictor {
	return m.Classifier
}

// Scale standardizes raw feature rows.
func (m *CropModel) Scale(X mat.Matrix) (mat.Matrix, error) {
	return m.Scaler.Transform(X)
}

// Predict returns the recommended crop for each raw feature row.
func (m *CropModel) Predict(X mat.Matrix) ([]string, error) {
	xs, err := m.Scale(X)
	if err != nil {
		return nil, err
	}
	codes, err := m.Classifier.Predict(xs)
	if err != nil {
		return nil, err
	}
	return m.decode(codes)
}

func (m *CropModel) decode(codes mat.Matrix) ([]string, error) {
	r, _ := codes.Dims()
	out := make([]string, r)
	for i := range out {
		l, err := m.Encoder.Inverse(int(codes.At(i, 0)))
		if err != nil {
			return nil, err
		}
		out[i] = l
	}
	return out, nil
}

// CropEvaluation is the held-out score of a crop model.
type CropEvaluation struct {
	Split
	Accuracy float64
}

// TrainCrop fits the crop recommender on rows with a label. Missing feature
// cells are filled with the column mean.
func (t *Trainer) TrainCrop(ctx context.Context, tbl *dataset.Table) (*CropModel, *CropEvaluation, error) {
	start := time.Now()
	labelCol, ok := tbl.Column(CropLabel)
	if !ok {
		return nil, nil, errors.NewNotFoundError("column", CropLabel, "")
	}
	if labelCol.Kind != dataset.Categorical {
		return nil, nil, errors.NewValidationError(CropLabel, "label column must be categorical", labelCol.Kind.String())
	}

	var rows []int
	var labels []string
	for i := 0; i < tbl.NumRows(); i++ {
		if !labelCol.IsMissing(i) {
			rows = append(rows, i)
			labels = append(labels, labelCol.Strings[i])
		}
	}
	if len(rows) == 0 {
		return nil, nil, errors.NewModelError("TrainCrop", "no labelled rows", errors.ErrEmptyData)
	}

	X, _, err := meanFilledMatrix(tbl, CropFeatures, rows)
	if err != nil {
		return nil, nil, err
	}
	m := &CropModel{
		Features:   append([]string(nil), CropFeatures...),
		Scaler:     preprocessing.NewStandardScaler(),
		Classifier: neighbors.NewKNeighborsClassifier(t.opts.CropNeighbors),
	}
	if err := m.Encoder.Fit(labels); err != nil {
		return nil, nil, err
	}
	y, err := m.Encoder.Transform(labels)
	if err != nil {
		return nil, nil, err
	}

	trainIdx, testIdx, err := t.split(ctx, len(rows))
	if err != nil {
		return nil, nil, err
	}
	xTrain, err := m.Scaler.FitTransform(takeRows(X, trainIdx))
	if err != nil {
		return nil, nil, errors.Wrap(err, "scale crop features")
	}
	if err := m.Classifier.Fit(xTrain, takeRows(y, trainIdx)); err != nil {
		return nil, nil, errors.Wrap(err, "fit crop classifier")
	}

	pred, err := m.Predict(takeRows(X, testIdx))
	if err != nil {
		return nil, nil, err
	}
	truth := make([]string, len(testIdx))
	for i, r := range testIdx {
		truth[i] = labels[r]
	}
	acc, err := metrics.Accuracy(truth, pred)
	if err != nil {
		return nil, nil, err
	}

	eval := &CropEvaluation{Split: Split{TrainRows: len(trainIdx), TestRows: len(testIdx)}, Accuracy: acc}
	t.logDone("crop_knn", eval.Split, len(CropFeatures), start, log.AccuracyKey, acc)
	return m, eval, nil
}
