package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/agriclean/dataset"
	"github.com/YuminosukeSato/agriclean/pkg/errors"
	"github.com/YuminosukeSato/agriclean/pkg/log"
	"github.com/YuminosukeSato/agriclean/training"
)

var trainTargets = []string{"crop", "need", "quantity"}

func newTrainCmd(a *app) *cobra.Command {
	var only []string
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit the crop recommender and the irrigation models",
		Long: `Fits the models and writes them as gob files to the model directory:

  crop      k-nearest-neighbor crop recommender (crop dataset)
  need      logistic irrigation-need classifier (irrigation dataset)
  quantity  ridge regression of recommended_water_mm on irrigated rows`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTrain(cmd, only)
		},
	}
	cmd.Flags().StringSliceVar(&only, "only", trainTargets, "models to train (crop, need, quantity)")
	return cmd
}

func (a *app) runTrain(cmd *cobra.Command, only []string) error {
	want := make(map[string]bool, len(only))
	for _, o := range only {
		switch o {
		case "crop", "need", "quantity":
			want[o] = true
		default:
			return errors.NewValidationError("only", "unknown model", o)
		}
	}
	if err := os.MkdirAll(a.cfg.Paths.ModelDir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", a.cfg.Paths.ModelDir)
	}

	ctx := cmd.Context()
	trainer := training.NewTrainer(a.cfg.Training, a.logger)

	if want["crop"] {
		tbl, err := a.loadTable(a.cfg.Paths.CropFile)
		if err != nil {
			return err
		}
		m, eval, err := trainer.TrainCrop(ctx, tbl)
		if err != nil {
			return err
		}
		path, err := training.SaveCropModel(m, a.cfg.Paths.ModelDir)
		if err != nil {
			return err
		}
		a.logger.Info("crop model saved", log.PathKey, path, log.AccuracyKey, eval.Accuracy)
	}

	if !want["need"] && !want["quantity"] {
		return nil
	}
	irrigation, err := a.loadTable(a.cfg.Paths.IrrigationFile)
	if err != nil {
		return err
	}
	if want["need"] {
		m, eval, err := trainer.TrainIrrigationNeed(ctx, irrigation)
		if err != nil {
			return err
		}
		path, err := training.SaveNeedModel(m, a.cfg.Paths.ModelDir)
		if err != nil {
			return err
		}
		a.logger.Info("irrigation need model saved", log.PathKey, path, log.AccuracyKey, eval.Report.Accuracy)
		for _, c := range eval.Report.Classes {
			a.logger.Info("class scores",
				"class", c.Label,
				"precision", c.Precision,
				"recall", c.Recall,
				"f1", c.F1,
				"support", c.Support,
			)
		}
	}
	if want["quantity"] {
		m, eval, err := trainer.TrainIrrigationQuantity(ctx, irrigation)
		if err != nil {
			return err
		}
		path, err := training.SaveQuantityModel(m, a.cfg.Paths.ModelDir)
		if err != nil {
			return err
		}
		a.logger.Info("irrigation quantity model saved",
			log.PathKey, path,
			log.MAEKey, eval.Report.MAE,
			log.RMSEKey, eval.Report.RMSE,
			log.R2ScoreKey, eval.Report.R2,
			"metrics.adjusted_r2", eval.Report.AdjustedR2,
		)
	}
	return nil
}

func (a *app) loadTable(name string) (*dataset.Table, error) {
	path, err := a.cfg.ResolvePath(name)
	if err != nil {
		return nil, err
	}
	return dataset.ReadFile(path)
}
