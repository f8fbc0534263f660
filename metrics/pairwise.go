package metrics

import "math"

// NanEuclidean は欠損値（NaN）を含むベクトル間のユークリッド距離を計算する
// 両方で観測されている座標のみを使い、観測数の比で二乗和を拡大する:
//
//	d(x, y) = sqrt(n / n_present * Σ_present (x_i - y_i)²)
//
// 共通して観測されている座標がない場合はNaNを返す
func NanEuclidean(x, y []float64) float64 {
	var sum float64
	present := 0
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		d := x[i] - y[i]
		sum += d * d
		present++
	}
	if present == 0 {
		return math.NaN()
	}
	return math.Sqrt(float64(len(x)) / float64(present) * sum)
}

// Euclidean は欠損値を含まないベクトル間のユークリッド距離
func Euclidean(x, y []float64) float64 {
	var sum float64
	for i := range x {
		d := x[i] - y[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
