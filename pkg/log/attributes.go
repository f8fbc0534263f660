// Standard attribute keys for agriclean log records.
//
// Keys follow a hierarchical naming convention (e.g. "data.rows",
// "impute.k") so pipeline runs can be filtered and compared.

package log

// Run and operation context.
const (
	// RunIDKey identifies one execution of the cleaning stage.
	RunIDKey = "run.id"

	// ComponentKey identifies the package performing the operation.
	// Examples: "dataset", "impute", "outlier", "training"
	ComponentKey = "component"

	// OperationKey specifies the operation being performed.
	OperationKey = "operation"

	// StageKey names the pipeline step ("load", "impute", "outliers", ...).
	StageKey = "stage"

	// ModelNameKey identifies the type of model.
	ModelNameKey = "model.name"
)

// Data shape and quality.
const (
	RowsKey           = "data.rows"
	ColumnsKey        = "data.columns"
	ColumnKey         = "data.column"
	PathKey           = "data.path"
	MissingKey        = "data.missing"
	DuplicateRatioKey = "data.duplicate_ratio"
)

// Imputation.
const (
	// SampleRowsKey is the number of complete rows used for the K sweep.
	SampleRowsKey = "impute.sample_rows"

	// MaskedCellsKey is the number of cells hidden by the synthetic mask.
	MaskedCellsKey = "impute.masked_cells"

	// MaskRateKey is the per-cell probability of hiding a value.
	MaskRateKey = "impute.mask_rate"

	// KKey is the neighbor count under evaluation.
	KKey = "impute.k"

	// SelectedKKey is the neighbor count chosen by the sweep.
	SelectedKKey = "impute.selected_k"

	// MSEKey is a mean squared error over masked cells.
	MSEKey = "impute.mse"
)

// Outliers.
const (
	LowerKey       = "range.lower"
	UpperKey       = "range.upper"
	OutOfRangeKey  = "range.out_of_range"
	CorrectedKey   = "range.corrected"
	IQROutliersKey = "iqr.outliers"
	MedianKey      = "range.median"
)

// Training and evaluation.
const (
	SamplesKey    = "train.samples"
	FeaturesKey   = "train.features"
	AccuracyKey   = "metrics.accuracy"
	MAEKey        = "metrics.mae"
	RMSEKey       = "metrics.rmse"
	R2ScoreKey    = "metrics.r2"
	RandomSeedKey = "config.random_seed"
	DurationMsKey = "perf.duration_ms"
)

// Standard stage names.
const (
	StageLoad     = "load"
	StageImpute   = "impute"
	StageOutliers = "outliers"
	StageValidate = "validate"
	StageWrite    = "write"
)
