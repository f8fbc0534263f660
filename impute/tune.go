package impute

import (
	"context"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/agriclean/dataset"
	"github.com/YuminosukeSato/agriclean/metrics"
	"github.com/YuminosukeSato/agriclean/pkg/errors"
	"github.com/YuminosukeSato/agriclean/pkg/log"
)

// DefaultCandidates は評価する近傍数の候補（この順で同値は先勝ち）
var DefaultCandidates = []int{2, 3, 5, 7, 9, 11}

// TuneConfig はK探索の設定
type TuneConfig struct {
	Candidates     []int   `yaml:"candidates" envconfig:"CANDIDATES" validate:"min=1,dive,min=1"`
	SampleCap      int     `yaml:"sample_cap" envconfig:"SAMPLE_CAP" validate:"min=1"`
	MaskRate       float64 `yaml:"mask_rate" envconfig:"MASK_RATE" validate:"gt=0,lt=1"`
	SanityMaskRate float64 `yaml:"sanity_mask_rate" envconfig:"SANITY_MASK_RATE" validate:"gte=0,lt=1"`
	SampleSeed     uint64  `yaml:"sample_seed" envconfig:"SAMPLE_SEED"`
	MaskSeed       uint64  `yaml:"mask_seed" envconfig:"MASK_SEED"`
	// MinSampleRows が0のときは max(Candidates)+1 を使う
	MinSampleRows int     `yaml:"min_sample_rows" envconfig:"MIN_SAMPLE_ROWS" validate:"gte=0"`
	Weights       Weights `yaml:"weights" envconfig:"WEIGHTS"`
}

// DefaultTuneConfig はサンプル上限1000行・マスク率10%・確認用マスク率5%の設定を返す
func DefaultTuneConfig() TuneConfig {
	return TuneConfig{
		Candidates:     slices.Clone(DefaultCandidates),
		SampleCap:      1000,
		MaskRate:       0.10,
		SanityMaskRate: 0.05,
		SampleSeed:     42,
		MaskSeed:       7,
		Weights:        Uniform,
	}
}

func (c TuneConfig) minRows() int {
	if c.MinSampleRows > 0 {
		return c.MinSampleRows
	}
	if len(c.Candidates) == 0 {
		return 1
	}
	return slices.Max(c.Candidates) + 1
}

// KError は一つの近傍数に対するマスク評価の結果
type KError struct {
	K   int
	MSE float64
}

// TuningReport はK探索の結果
type TuningReport struct {
	SampleRows  int
	MaskedCells int
	Errors      []KError // Candidatesの順
	SelectedK   int
	SelectedMSE float64

	// 確認用マスク（選択済みKで評価するのみ、Kは選び直さない）
	SanityChecked     bool
	SanityMaskedCells int
	SanityMSE         float64
}

// Tuner はマスク評価によって近傍数を選ぶ
type Tuner struct {
	Config TuneConfig
	logger log.Logger
}

// NewTuner は新しいTunerを作成する。loggerがnilならグローバルロガーを使う
func NewTuner(cfg TuneConfig, logger log.Logger) *Tuner {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &Tuner{Config: cfg, logger: logger.With(log.ComponentKey, "impute")}
}

// SelectK は欠損のない行列truthの一部を隠し、各候補Kで補完した誤差を比較する
// 誤差は隠したセルのみで計算し、最小のKを選ぶ（同値は候補の先頭側）
func (t *Tuner) SelectK(ctx context.Context, truth mat.Matrix) (*TuningReport, error) {
	cfg := t.Config
	if len(cfg.Candidates) == 0 {
		return nil, errors.NewValidationError("candidates", "at least one neighbor count is required", cfg.Candidates)
	}
	rows, cols := truth.Dims()
	if rows < cfg.minRows() {
		return nil, errors.NewDegenerateSampleError("SelectK", rows, cfg.minRows(), "too few fully observed rows")
	}
	if err := errors.CheckMatrix("SelectK", truth, rows, cols); err != nil {
		return nil, err
	}

	rep := &TuningReport{SampleRows: rows}
	maskRNG := rand.New(rand.NewPCG(cfg.MaskSeed, 1))
	hidden := RandomMask(rows, cols, cfg.MaskRate, maskRNG)
	rep.MaskedCells = CountHidden(hidden)
	if rep.MaskedCells == 0 {
		return nil, errors.NewDegenerateSampleError("SelectK", rows, cfg.minRows(), "mask hides no cells")
	}
	masked := ApplyMask(truth, hidden)

	t.logger.Debug("masked tuning sample",
		log.SampleRowsKey, rows,
		log.MaskedCellsKey, rep.MaskedCells,
		log.MaskRateKey, cfg.MaskRate,
	)

	best := -1
	for _, k := range cfg.Candidates {
		mse, err := t.maskedError(ctx, k, truth, masked, hidden)
		if err != nil {
			return nil, errors.Wrapf(err, "evaluate k=%d", k)
		}
		rep.Errors = append(rep.Errors, KError{K: k, MSE: mse})
		t.logger.Debug("evaluated neighbor count", log.KKey, k, log.MSEKey, mse)

		if best < 0 || mse < rep.Errors[best].MSE {
			best = len(rep.Errors) - 1
		}
	}
	rep.SelectedK = rep.Errors[best].K
	rep.SelectedMSE = rep.Errors[best].MSE

	if cfg.SanityMaskRate > 0 {
		if err := t.sanityCheck(ctx, truth, rep); err != nil {
			return nil, err
		}
	}

	t.logger.Info("neighbor count selected",
		log.SelectedKKey, rep.SelectedK,
		log.MSEKey, rep.SelectedMSE,
		log.SampleRowsKey, rows,
	)
	return rep, nil
}

func (t *Tuner) maskedError(ctx context.Context, k int, truth mat.Matrix, masked *mat.Dense, hidden []bool) (float64, error) {
	imp := NewKNNImputer(WithNeighbors(k), WithWeights(t.Config.Weights))
	if err := imp.Fit(masked); err != nil {
		return 0, err
	}
	filled, err := imp.TransformContext(ctx, masked)
	if err != nil {
		return 0, err
	}
	return metrics.MaskedMSE(truth, filled, hidden)
}

func (t *Tuner) sanityCheck(ctx context.Context, truth mat.Matrix, rep *TuningReport) error {
	rows, cols := truth.Dims()
	rng := rand.New(rand.NewPCG(t.Config.MaskSeed, 2))
	hidden := RandomMask(rows, cols, t.Config.SanityMaskRate, rng)
	rep.SanityMaskedCells = CountHidden(hidden)
	if rep.SanityMaskedCells == 0 {
		t.logger.Warn("sanity mask hid no cells, skipping", log.MaskRateKey, t.Config.SanityMaskRate)
		return nil
	}

	mse, err := t.maskedError(ctx, rep.SelectedK, truth, ApplyMask(truth, hidden), hidden)
	if err != nil {
		return errors.Wrap(err, "sanity check")
	}
	rep.SanityChecked = true
	rep.SanityMSE = mse
	t.logger.Info("sanity check",
		log.SelectedKKey, rep.SelectedK,
		log.MaskRateKey, t.Config.SanityMaskRate,
		log.MSEKey, mse,
	)
	if rep.SelectedMSE > 0 && mse > 2*rep.SelectedMSE {
		errors.Warn(errors.NewDataQualityWarning("imputation_sanity", mse/rep.SelectedMSE,
			"sanity-check error is more than twice the tuning error"))
	}
	return nil
}

// Report はテーブル補完の結果
type Report struct {
	// Skipped は欠損を含む数値列がなく補完を行わなかったことを示す
	Skipped       bool
	Columns       []string // 補完対象の列（元の列順）
	MissingBefore map[string]int
	Tuning        *TuningReport
	SelectedK     int
}

// ImputeTable はテーブルの数値列の欠損をその場で補完する
//  1. 全数値列で欠損のない行から最大SampleCap行を抽出（SampleSeedで再現可能）
//  2. SelectKで近傍数を選択
//  3. 選んだKで数値列全体を補完し、非数値列は行位置のまま残す
func (t *Tuner) ImputeTable(ctx context.Context, tbl *dataset.Table) (*Report, error) {
	start := time.Now()
	if len(t.Config.Candidates) == 0 {
		return nil, errors.NewValidationError("candidates", "at least one neighbor count is required", t.Config.Candidates)
	}
	cols := tbl.MissingColumns()
	rep := &Report{Columns: cols, MissingBefore: make(map[string]int, len(cols))}
	if len(cols) == 0 {
		rep.Skipped = true
		t.logger.Info("no missing numeric values, imputation skipped", log.RowsKey, tbl.NumRows())
		return rep, nil
	}
	counts := tbl.MissingCounts()
	for _, c := range cols {
		rep.MissingBefore[c] = counts[c]
	}

	numeric := tbl.NumericNames()
	complete, err := tbl.CompleteRows(numeric)
	if err != nil {
		return nil, err
	}
	if len(complete) < t.Config.minRows() {
		return nil, errors.NewDegenerateSampleError("ImputeTable", len(complete), t.Config.minRows(),
			"too few fully observed rows")
	}
	sampleRNG := rand.New(rand.NewPCG(t.Config.SampleSeed, 0))
	sample, err := tbl.Matrix(numeric, sampleRows(complete, t.Config.SampleCap, sampleRNG))
	if err != nil {
		return nil, err
	}

	tuning, err := t.SelectK(ctx, sample)
	if err != nil {
		return nil, err
	}
	rep.Tuning = tuning
	rep.SelectedK = tuning.SelectedK

	full, err := tbl.Matrix(numeric, nil)
	if err != nil {
		return nil, err
	}
	imp := NewKNNImputer(WithNeighbors(tuning.SelectedK), WithWeights(t.Config.Weights))
	if err := imp.Fit(full); err != nil {
		return nil, errors.Wrap(err, "fit imputer")
	}
	filled, err := imp.TransformContext(ctx, full)
	if err != nil {
		return nil, err
	}
	if err := tbl.SetFromMatrix(numeric, filled); err != nil {
		return nil, err
	}

	for _, c := range cols {
		values, _ := tbl.Floats(c)
		for _, v := range values {
			if math.IsNaN(v) {
				return nil, errors.NewValueError("ImputeTable", "column "+c+" still has missing values")
			}
		}
	}

	t.logger.Info("imputation applied",
		log.SelectedKKey, rep.SelectedK,
		log.ColumnsKey, len(cols),
		log.RowsKey, tbl.NumRows(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return rep, nil
}
