package metrics

import (
	"sort"

	"github.com/YuminosukeSato/agriclean/pkg/errors"
)

// Accuracy は正解率を計算する
func Accuracy(yTrue, yPred []string) (float64, error) {
	if err := checkLabels("Accuracy", yTrue, yPred); err != nil {
		return 0, err
	}
	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue)), nil
}

// ClassScores はクラス単位の適合率・再現率・F1スコア
type ClassScores struct {
	Label     string
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// ClassificationReport は分類モデルの評価結果をまとめたもの
type ClassificationReport struct {
	Accuracy float64
	Classes  []ClassScores // ラベルの辞書順
	MacroF1  float64
}

// EvaluateClassification はクラスごとの適合率・再現率・F1と正解率を計算する
// 予測が一つもないクラスの適合率は0とし、UndefinedMetricWarningを出す
func EvaluateClassification(yTrue, yPred []string) (ClassificationReport, error) {
	var rep ClassificationReport
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return rep, err
	}
	rep.Accuracy = acc

	labelSet := make(map[string]struct{})
	for i := range yTrue {
		labelSet[yTrue[i]] = struct{}{}
		labelSet[yPred[i]] = struct{}{}
	}
	labels := make([]string, 0, len(labelSet))
	for l := range labelSet {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	var f1Sum float64
	for _, label := range labels {
		var tp, fp, fn int
		for i := range yTrue {
			switch {
			case yTrue[i] == label && yPred[i] == label:
				tp++
			case yTrue[i] != label && yPred[i] == label:
				fp++
			case yTrue[i] == label && yPred[i] != label:
				fn++
			}
		}

		cs := ClassScores{Label: label, Support: tp + fn}
		if tp+fp == 0 {
			errors.Warn(errors.NewUndefinedMetricWarning("precision", "no predicted samples for "+label, 0))
		} else {
			cs.Precision = float64(tp) / float64(tp+fp)
		}
		if tp+fn > 0 {
			cs.Recall = float64(tp) / float64(tp+fn)
		}
		if cs.Precision+cs.Recall > 0 {
			cs.F1 = 2 * cs.Precision * cs.Recall / (cs.Precision + cs.Recall)
		}
		f1Sum += cs.F1
		rep.Classes = append(rep.Classes, cs)
	}
	rep.MacroF1 = f1Sum / float64(len(labels))
	return rep, nil
}

func checkLabels(op string, yTrue, yPred []string) error {
	if len(yTrue) == 0 {
		return errors.NewModelError(op, "empty labels", errors.ErrEmptyData)
	}
	if len(yTrue) != len(yPred) {
		return errors.NewDimensionError(op, len(yTrue), len(yPred), 0)
	}
	return nil
}
