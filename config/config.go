// Package config loads agriclean settings from defaults, an optional YAML
// file and AGRICLEAN_* environment variables, in that order of precedence
// (later wins).
package config

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/agriclean/impute"
	"github.com/YuminosukeSato/agriclean/outlier"
	"github.com/YuminosukeSato/agriclean/pkg/errors"
	"github.com/YuminosukeSato/agriclean/training"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "AGRICLEAN"

// Config is the complete application configuration.
type Config struct {
	Paths    PathsConfig       `yaml:"paths" envconfig:"PATHS"`
	Log      LogConfig         `yaml:"log" envconfig:"LOG"`
	Impute   impute.TuneConfig `yaml:"impute" envconfig:"IMPUTE"`
	Outlier  OutlierConfig     `yaml:"outlier" envconfig:"OUTLIER"`
	Training training.Options  `yaml:"training" envconfig:"TRAINING"`
}

// PathsConfig holds input and output locations. Relative file names are
// resolved against DataDir by ResolvePath.
type PathsConfig struct {
	DataDir        string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	CropFile       string `yaml:"crop_file" envconfig:"CROP_FILE" validate:"required"`
	SensorFile     string `yaml:"sensor_file" envconfig:"SENSOR_FILE" validate:"required"`
	IrrigationFile string `yaml:"irrigation_file" envconfig:"IRRIGATION_FILE" validate:"required"`
	OutputDir      string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	ModelDir       string `yaml:"model_dir" envconfig:"MODEL_DIR" validate:"required"`
}

// LogConfig selects the log level and encoding.
type LogConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json console"`
}

// OutlierConfig controls logical-range correction.
type OutlierConfig struct {
	// RangesFile replaces the built-in range table when set.
	RangesFile string `yaml:"ranges_file" envconfig:"RANGES_FILE"`
	// CorrectColumns lists the columns whose out-of-range values are replaced.
	// Every table entry is still validated and reported.
	CorrectColumns []string `yaml:"correct_columns" envconfig:"CORRECT_COLUMNS"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Paths: PathsConfig{
			DataDir:        "data",
			CropFile:       "Crop_recommendation.csv",
			SensorFile:     "TARP.csv",
			IrrigationFile: "Final_irregation_optimization_data.csv",
			OutputDir:      "output",
			ModelDir:       "models",
		},
		Log:      LogConfig{Level: "info", Format: "console"},
		Impute:   impute.DefaultTuneConfig(),
		Outlier:  OutlierConfig{CorrectColumns: slices.Clone(outlier.DefaultCorrectedColumns)},
		Training: training.DefaultOptions(),
	}
}

// Load builds the configuration. When file is non-empty it must exist; its
// keys overlay the defaults. Environment variables override both.
func Load(file string) (*Config, error) {
	cfg := Default()

	if file != "" {
		if err := loadFile(file, &cfg); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, errors.Wrap(err, "load config from env")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewNotFoundError("file", path, path)
		}
		return errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return errors.NewValidationError(fe.Namespace(), "failed '"+fe.Tag()+"' constraint", fe.Value())
		}
		return errors.Wrap(err, "validate config")
	}
	return nil
}

// ResolvePath maps a configured file name to a path. An absolute name is
// used as-is; anything else is joined to DataDir. No other location is
// tried. A missing file yields a NotFoundError naming the single path tried.
func (c *Config) ResolvePath(name string) (string, error) {
	path := name
	if !filepath.IsAbs(name) {
		path = filepath.Join(c.Paths.DataDir, name)
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewNotFoundError("file", name, path)
		}
		return "", errors.Wrapf(err, "stat %s", path)
	}
	return path, nil
}

// Ranges returns the logical-range table: RangesFile if set, otherwise the
// built-in table.
func (c *Config) Ranges() (outlier.RangeTable, error) {
	if c.Outlier.RangesFile == "" {
		return outlier.DefaultRanges(), nil
	}
	path, err := c.ResolvePath(c.Outlier.RangesFile)
	if err != nil {
		return nil, err
	}
	return outlier.LoadRangesFile(path)
}
