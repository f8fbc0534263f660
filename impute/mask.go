package impute

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// RandomMask は各セルを独立に確率rateで隠すマスクを行優先で返す
func RandomMask(rows, cols int, rate float64, rng *rand.Rand) []bool {
	hidden := make([]bool, rows*cols)
	for i := range hidden {
		hidden[i] = rng.Float64() < rate
	}
	return hidden
}

// CountHidden は隠されたセルの数を返す
func CountHidden(hidden []bool) int {
	n := 0
	for _, h := range hidden {
		if h {
			n++
		}
	}
	return n
}

// ApplyMask は隠したセルをNaNにしたコピーを返す
func ApplyMask(m mat.Matrix, hidden []bool) *mat.Dense {
	out := mat.DenseCopyOf(m)
	_, c := out.Dims()
	for idx, h := range hidden {
		if h {
			out.Set(idx/c, idx%c, math.NaN())
		}
	}
	return out
}

// sampleRows はrowsから最大limit行を非復元抽出し、元の順序で返す
func sampleRows(rows []int, limit int, rng *rand.Rand) []int {
	if len(rows) <= limit {
		return append([]int(nil), rows...)
	}
	perm := rng.Perm(len(rows))[:limit]
	picked := make([]bool, len(rows))
	for _, p := range perm {
		picked[p] = true
	}
	out := make([]int, 0, limit)
	for i, r := range rows {
		if picked[i] {
			out = append(out, r)
		}
	}
	return out
}
