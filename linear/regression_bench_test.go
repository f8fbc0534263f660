package linear

import "testing"

// BenchmarkLinearRegressionFit は逐次・並列の両方の経路を計測する
func BenchmarkLinearRegressionFit(b *testing.B) {
	sizes := []struct {
		name string
		rows int
		cols int
	}{
		{"Sequential_900x10", 900, 10}, // 閾値(1000)未満
		{"Parallel_5000x31", 5000, 31},
		{"Parallel_20000x31", 20000, 31},
	}

	for _, size := range sizes {
		b.Run(size.name, func(b *testing.B) {
			X, y := createData(size.rows, size.cols, 0.1)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := NewLinearRegression().Fit(X, y); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
