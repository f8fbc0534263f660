package outlier

import (
	"github.com/YuminosukeSato/agriclean/dataset"
)

// IQRFactor は四分位範囲の何倍を外れ値とみなすか
const IQRFactor = 1.5

// IQRResult は一列分のIQR判定結果（報告専用で補正には使わない）
type IQRResult struct {
	Column   string
	Q1       float64
	Q3       float64
	IQR      float64
	Lower    float64
	Upper    float64
	Outliers int
}

// DetectIQR は全数値列について Q1-1.5×IQR 未満または Q3+1.5×IQR 超の値を数える
// 観測値のない列は結果に含めない
func DetectIQR(tbl *dataset.Table) []IQRResult {
	var results []IQRResult
	for _, name := range tbl.NumericNames() {
		values, _ := tbl.Floats(name)
		sorted := observed(values)
		if len(sorted) == 0 {
			continue
		}
		res := IQRResult{
			Column: name,
			Q1:     Quantile(sorted, 0.25),
			Q3:     Quantile(sorted, 0.75),
		}
		res.IQR = res.Q3 - res.Q1
		res.Lower = res.Q1 - IQRFactor*res.IQR
		res.Upper = res.Q3 + IQRFactor*res.IQR
		for _, v := range sorted {
			if v < res.Lower || v > res.Upper {
				res.Outliers++
			}
		}
		results = append(results, res)
	}
	return results
}
