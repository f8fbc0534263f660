package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/agriclean/advisor"
	"github.com/YuminosukeSato/agriclean/pkg/errors"
	"github.com/YuminosukeSato/agriclean/training"
)

func newRecommendCmd(a *app) *cobra.Command {
	var (
		modelPath string
		r         advisor.Reading
	)
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend a crop for one soil and climate reading",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if modelPath == "" {
				modelPath = filepath.Join(a.cfg.Paths.ModelDir, training.CropModelFile)
			}
			adv, err := advisor.Load(modelPath)
			if err != nil {
				return err
			}
			rec, err := adv.Recommend(r)
			if err != nil {
				return err
			}
			return printRecommendation(cmd.OutOrStdout(), rec)
		},
	}

	f := cmd.Flags()
	f.StringVar(&modelPath, "model", "", "crop model file (default <model_dir>/"+training.CropModelFile+")")
	f.Float64Var(&r.N, "n", 50, "nitrogen content of the soil")
	f.Float64Var(&r.P, "p", 50, "phosphorus content of the soil")
	f.Float64Var(&r.K, "k", 50, "potassium content of the soil")
	f.Float64Var(&r.Temperature, "temperature", 25, "average temperature (C)")
	f.Float64Var(&r.Humidity, "humidity", 80, "relative humidity (%)")
	f.Float64Var(&r.PH, "ph", 6.5, "soil pH")
	f.Float64Var(&r.Rainfall, "rainfall", 100, "rainfall (mm)")
	return cmd
}

func printRecommendation(w io.Writer, rec advisor.Recommendation) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Recommended crop: %s\n", rec.Crop)
	if rec.HasConfidence {
		fmt.Fprintf(&sb, "Confidence: %.2f%%\n", rec.Confidence*100)
	}
	if rec.Info != "" {
		fmt.Fprintln(&sb, rec.Info)
	}
	_, err := io.WriteString(w, sb.String())
	return errors.Wrap(err, "write recommendation")
}
