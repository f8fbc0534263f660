package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/agriclean/cleaning"
	"github.com/YuminosukeSato/agriclean/dataset"
	"github.com/YuminosukeSato/agriclean/pkg/errors"
	"github.com/YuminosukeSato/agriclean/pkg/log"
	"github.com/YuminosukeSato/agriclean/report"
)

func newCleanCmd(a *app) *cobra.Command {
	var noCharts bool
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Impute, screen and correct the sensor dataset",
		Long: `Loads the crop and sensor datasets, imputes missing numeric sensor values
with a KNN imputer whose K is chosen on a masked sample, reports IQR outliers,
replaces out-of-range ph and K values with the in-range median, and writes
the cleaned dataset, a YAML summary and diagnostic charts to the output
directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runClean(cmd, !noCharts)
		},
	}
	cmd.Flags().BoolVar(&noCharts, "no-charts", false, "skip writing the PNG charts")
	return cmd
}

func (a *app) runClean(cmd *cobra.Command, charts bool) error {
	cropPath, err := a.cfg.ResolvePath(a.cfg.Paths.CropFile)
	if err != nil {
		return err
	}
	sensorPath, err := a.cfg.ResolvePath(a.cfg.Paths.SensorFile)
	if err != nil {
		return err
	}
	ranges, err := a.cfg.Ranges()
	if err != nil {
		return err
	}

	opts := cleaning.Options{
		Tuning:         a.cfg.Impute,
		Ranges:         ranges,
		CorrectColumns: a.cfg.Outlier.CorrectColumns,
	}
	res, err := cleaning.NewStage(opts, a.logger).Run(cmd.Context(), cleaning.Inputs{
		CropPath:   cropPath,
		SensorPath: sensorPath,
	})
	if err != nil {
		return err
	}

	outDir := a.cfg.Paths.OutputDir
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", outDir)
	}
	cleanedPath := filepath.Join(outDir, cleanedName(sensorPath))
	if err := dataset.WriteFile(res.Sensor, cleanedPath); err != nil {
		return err
	}
	summaryPath := filepath.Join(outDir, "cleaning_summary.yaml")
	if err := writeTo(summaryPath, res.WriteSummary); err != nil {
		return err
	}
	written := []string{cleanedPath, summaryPath}

	if charts {
		paths, err := report.SaveCleaningCharts(outDir, res.Imputation.Tuning, res.Sensor)
		if err != nil {
			return err
		}
		written = append(written, paths...)
	}

	a.logger.Info("outputs written",
		log.StageKey, log.StageWrite,
		log.RunIDKey, res.RunID,
		"files", written,
	)
	return nil
}

// cleanedName maps TARP.csv to TARP_cleaned.csv, keeping the extension.
func cleanedName(src string) string {
	base := filepath.Base(src)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "_cleaned" + ext
}

func writeTo(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "close %s", path)
}
