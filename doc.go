// Package agriclean prepares agricultural sensor data for crop and irrigation
// models and trains those models.
//
// The cleaning stage loads a crop-feature dataset and an environmental
// sensor dataset, fills missing numeric sensor values with a k-nearest-
// neighbor imputer, screens numeric columns with the IQR rule and replaces
// logically impossible readings (ph, K by default) with the median of the
// in-range values. K is chosen by hiding a known fraction of cells in a
// complete sample and keeping the candidate with the lowest reconstruction
// error.
//
// # Quick Start
//
//	stage := cleaning.NewStage(cleaning.DefaultOptions(), nil)
//	res, err := stage.Run(ctx, cleaning.Inputs{
//	    CropPath:   "data/Crop_recommendation.csv",
//	    SensorPath: "data/TARP.csv",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("selected K:", res.Imputation.SelectedK)
//
// # Packages
//
//   - dataset: column-major tables, CSV/XLSX input and output
//   - impute: KNN imputer, synthetic masks and the K sweep
//   - outlier: quantiles, IQR screening, logical ranges and median correction
//   - cleaning: the end-to-end cleaning stage and its YAML summary
//   - training: crop recommender, irrigation need and quantity models
//   - advisor: single-reading crop recommendation
//   - report: K sweep and box plot charts
//   - metrics: regression, classification and distance functions
//   - preprocessing, linear, sklearn/linear_model, sklearn/neighbors: estimators
//   - core/model: estimator interfaces and gob persistence
//   - core/parallel: row-parallel workers
//   - config: defaults, YAML and AGRICLEAN_* environment settings
//
// # Performance
//
// Row-wise work (imputation, neighbor search, design matrices) is split
// across CPU cores once a table exceeds a few hundred rows. Results do not
// depend on the number of workers.
//
// The command-line entry point is cmd/agriclean.
package agriclean
