// Package outlier flags statistically unusual values with the IQR rule and
// corrects physically implausible values against a logical-range table.
package outlier

import (
	"math"
	"sort"
)

// Quantile は線形補間（pandasのデフォルト、Hyndman-Fan type 7）による分位点を返す
// sortedは昇順でNaNを含まないこと。空の場合はNaN
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// Median は中央値を返す。偶数個のときは中央2値の平均
func Median(sorted []float64) float64 {
	return Quantile(sorted, 0.5)
}

// observed はNaNを除いた値を昇順に並べたコピーを返す
func observed(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}
