// Package cleaning runs the data cleaning and imputation stage: load, detect
// missing values, select and apply the KNN imputer, screen outliers, correct
// logical-range violations and validate the result.
package cleaning

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/agriclean/dataset"
	"github.com/YuminosukeSato/agriclean/impute"
	"github.com/YuminosukeSato/agriclean/outlier"
	"github.com/YuminosukeSato/agriclean/pkg/errors"
	"github.com/YuminosukeSato/agriclean/pkg/log"
)

// Inputs names the two source files. Both are required.
type Inputs struct {
	// CropPath is the small crop-feature dataset. It is profiled and passed
	// through unchanged.
	CropPath string
	// SensorPath is the larger environmental/sensor dataset that is cleaned.
	SensorPath string
}

// Options configures a Stage.
type Options struct {
	Tuning         impute.TuneConfig
	Ranges         outlier.RangeTable
	CorrectColumns []string
}

// DefaultOptions returns the built-in tuning, range table and correction set.
func DefaultOptions() Options {
	return Options{
		Tuning:         impute.DefaultTuneConfig(),
		Ranges:         outlier.DefaultRanges(),
		CorrectColumns: slices.Clone(outlier.DefaultCorrectedColumns),
	}
}

// Result carries everything the stage produced. Nothing is kept in package
// state; callers pass the Result on to whoever needs it.
type Result struct {
	RunID string

	Crop   *dataset.Table
	Sensor *dataset.Table

	CropProfile   dataset.Profile
	SensorProfile dataset.Profile // before imputation

	// DuplicateRatio is a diagnostic only. Duplicates are not removed.
	DuplicateRatio float64

	Imputation   *impute.Report
	IQR          []outlier.IQRResult
	RangesBefore outlier.RangeReport
	Corrections  []outlier.Correction
	RangesAfter  outlier.RangeReport

	Duration time.Duration
}

// Stage is the cleaning pipeline. It holds configuration only and is safe to
// reuse across runs.
type Stage struct {
	opts   Options
	logger log.Logger
}

// NewStage creates a Stage. A nil logger selects the global logger.
func NewStage(opts Options, logger log.Logger) *Stage {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &Stage{opts: opts, logger: logger.With(log.ComponentKey, "cleaning")}
}

// Run loads both inputs and cleans the sensor table. A missing input fails
// the run before any stage starts.
func (s *Stage) Run(ctx context.Context, in Inputs) (*Result, error) {
	crop, err := s.load(in.CropPath)
	if err != nil {
		return nil, err
	}
	sensor, err := s.load(in.SensorPath)
	if err != nil {
		return nil, err
	}
	return s.RunTables(ctx, crop, sensor)
}

func (s *Stage) load(path string) (*dataset.Table, error) {
	if path == "" {
		return nil, errors.NewValidationError("path", "input path is required", path)
	}
	tbl, err := dataset.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	s.logger.Info("dataset loaded",
		log.StageKey, log.StageLoad,
		log.PathKey, path,
		log.RowsKey, tbl.NumRows(),
		log.ColumnsKey, tbl.NumColumns(),
	)
	return tbl, nil
}

// RunTables cleans sensor in place and returns the report. crop is only
// profiled.
func (s *Stage) RunTables(ctx context.Context, crop, sensor *dataset.Table) (*Result, error) {
	start := time.Now()
	res := &Result{
		RunID:         uuid.NewString(),
		Crop:          crop,
		Sensor:        sensor,
		CropProfile:   crop.Profile(),
		SensorProfile: sensor.Profile(),
	}
	logger := s.logger.With(log.RunIDKey, res.RunID)

	res.DuplicateRatio = sensor.DuplicateRatio()
	logger.Info("missing values detected",
		log.StageKey, log.StageLoad,
		log.ColumnsKey, len(sensor.MissingColumns()),
		log.DuplicateRatioKey, res.DuplicateRatio,
	)
	if res.DuplicateRatio > 0 {
		errors.Warn(errors.NewDataQualityWarning("duplicate_rows", res.DuplicateRatio,
			"sensor dataset contains duplicate rows"))
	}

	tuner := impute.NewTuner(s.opts.Tuning, logger.With(log.StageKey, log.StageImpute))
	imp, err := tuner.ImputeTable(ctx, sensor)
	if err != nil {
		return nil, errors.Wrap(err, "impute")
	}
	res.Imputation = imp

	res.IQR = outlier.DetectIQR(sensor)
	for _, r := range res.IQR {
		if r.Outliers > 0 {
			logger.Debug("iqr outliers",
				log.StageKey, log.StageOutliers,
				log.ColumnKey, r.Column,
				log.IQROutliersKey, r.Outliers,
			)
		}
	}

	res.RangesBefore = outlier.Validate(sensor, s.opts.Ranges)
	corrector := outlier.NewCorrector(s.opts.Ranges, s.opts.CorrectColumns, logger.With(log.StageKey, log.StageOutliers))
	res.Corrections, err = corrector.Correct(sensor)
	if err != nil {
		return nil, errors.Wrap(err, "correct outliers")
	}

	res.RangesAfter = outlier.Validate(sensor, s.opts.Ranges)
	for _, c := range res.RangesAfter.Checks {
		if c.Present && c.OutOfRange > 0 {
			logger.Warn("values remain outside logical range",
				log.StageKey, log.StageValidate,
				log.ColumnKey, c.Column,
				log.OutOfRangeKey, c.OutOfRange,
			)
		}
	}

	res.Duration = time.Since(start)
	logger.Info("cleaning completed",
		log.RowsKey, sensor.NumRows(),
		log.OutOfRangeKey, res.RangesAfter.Total(),
		log.DurationMsKey, res.Duration.Milliseconds(),
	)
	return res, nil
}
