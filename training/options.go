// Package training fits the supervised models that consume the cleaned data:
// the crop recommender, the irrigation-need classifier and the irrigation
// quantity regressor. Every fitted model is a gob-encodable bundle holding
// its feature list, preprocessing state and estimator.
package training

// Options controls the trainers.
type Options struct {
	TestSize      float64 `yaml:"test_size" envconfig:"TEST_SIZE" validate:"gt=0,lt=1"`
	Seed          uint64  `yaml:"seed" envconfig:"SEED"`
	CropNeighbors int     `yaml:"crop_neighbors" envconfig:"CROP_NEIGHBORS" validate:"min=1"`
	// NeedC はロジスティック回帰の正則化の逆数
	NeedC       float64 `yaml:"need_c" envconfig:"NEED_C" validate:"gt=0"`
	NeedMaxIter int     `yaml:"need_max_iter" envconfig:"NEED_MAX_ITER" validate:"min=1"`
	// QuantityAlpha は水量回帰のL2正則化（派生特徴量が強く共線なため）
	QuantityAlpha float64 `yaml:"quantity_alpha" envconfig:"QUANTITY_ALPHA" validate:"gte=0"`
}

// DefaultOptions returns an 80/20 split with seed 42.
func DefaultOptions() Options {
	return Options{
		TestSize:      0.2,
		Seed:          42,
		CropNeighbors: 5,
		NeedC:         1.0,
		NeedMaxIter:   500,
		QuantityAlpha: 1.0,
	}
}
