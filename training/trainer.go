package training

import (
	"context"
	"time"

	"github.com/YuminosukeSato/agriclean/pkg/log"
)

// Trainer fits the supervised models. It holds configuration only.
type Trainer struct {
	opts   Options
	logger log.Logger
}

// NewTrainer creates a Trainer. A nil logger selects the global logger.
func NewTrainer(opts Options, logger log.Logger) *Trainer {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &Trainer{opts: opts, logger: logger.With(log.ComponentKey, "training")}
}

// Split holds the sizes of a train/test split.
type Split struct {
	TrainRows int
	TestRows  int
}

func (t *Trainer) split(ctx context.Context, n int) ([]int, []int, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return TrainTestSplit(n, t.opts.TestSize, t.opts.Seed)
}

func (t *Trainer) logDone(name string, split Split, nFeatures int, start time.Time, fields ...any) {
	base := []any{
		log.ModelNameKey, name,
		log.SamplesKey, split.TrainRows,
		log.FeaturesKey, nFeatures,
		log.RandomSeedKey, t.opts.Seed,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	}
	t.logger.Info("model trained", append(base, fields...)...)
}
