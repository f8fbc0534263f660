// Command agriclean cleans the agricultural sensor data, trains the crop and
// irrigation models and answers single crop recommendations.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/agriclean/config"
	"github.com/YuminosukeSato/agriclean/pkg/errors"
	"github.com/YuminosukeSato/agriclean/pkg/log"
)

// app carries what every subcommand needs once the root has run.
type app struct {
	configFile string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger log.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "agriclean",
		Short: "Agricultural data cleaning and crop/irrigation models",
		Long: `agriclean prepares the sensor dataset for the downstream models.

  clean      impute missing sensor values, screen outliers and correct
             logically impossible readings
  train      fit the crop recommender and the irrigation models
  recommend  recommend a crop for one soil and climate reading

Settings come from built-in defaults, an optional YAML file (--config) and
AGRICLEAN_* environment variables, in that order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format (console, json)")

	root.AddCommand(newCleanCmd(a), newTrainCmd(a), newRecommendCmd(a))
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = log.Setup(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	err := errors.SafeExecute("agriclean", func() error {
		return root.ExecuteContext(ctx)
	})
	if err != nil {
		log.GetLogger().Error("command failed", err)
		stop()
		os.Exit(1)
	}
}
