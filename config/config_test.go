package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/agriclean/impute"
	"github.com/YuminosukeSato/agriclean/pkg/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []int{2, 3, 5, 7, 9, 11}, cfg.Impute.Candidates)
	assert.Equal(t, []string{"ph", "K"}, cfg.Outlier.CorrectColumns)
	assert.Equal(t, uint64(42), cfg.Training.Seed)
}

func TestLoadLayers(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "agriclean.yaml", `
paths:
  data_dir: /srv/farm
impute:
  mask_rate: 0.2
  weights: distance
log:
  level: debug
`)
	t.Setenv("AGRICLEAN_LOG_LEVEL", "warn")
	t.Setenv("AGRICLEAN_IMPUTE_CANDIDATES", "3,5")

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, "/srv/farm", cfg.Paths.DataDir)
	// ファイルにないキーは既定値のまま
	assert.Equal(t, "TARP.csv", cfg.Paths.SensorFile)
	assert.Equal(t, 0.2, cfg.Impute.MaskRate)
	assert.Equal(t, impute.Distance, cfg.Impute.Weights)
	// 環境変数が最優先
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, []int{3, 5}, cfg.Impute.Candidates)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		var nf *errors.NotFoundError
		assert.True(t, errors.As(err, &nf))
	})

	t.Run("unknown key", func(t *testing.T) {
		file := writeFile(t, t.TempDir(), "c.yaml", "impute:\n  neighbours: 3\n")
		_, err := Load(file)
		assert.Error(t, err)
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Setenv("AGRICLEAN_IMPUTE_MASK_RATE", "1.5")
		_, err := Load("")
		var ve *errors.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Contains(t, ve.ParamName, "MaskRate")
	})

	t.Run("bad env syntax", func(t *testing.T) {
		t.Setenv("AGRICLEAN_TRAINING_SEED", "forty-two")
		_, err := Load("")
		assert.Error(t, err)
	})
}

func TestResolvePath(t *testing.T) {
	dir := t.TempDir()
	abs := writeFile(t, dir, "TARP.csv", "a\n1\n")

	cfg := Default()
	cfg.Paths.DataDir = dir

	got, err := cfg.ResolvePath("TARP.csv")
	require.NoError(t, err)
	assert.Equal(t, abs, got)

	got, err = cfg.ResolvePath(abs)
	require.NoError(t, err)
	assert.Equal(t, abs, got)

	_, err = cfg.ResolvePath("Crop_recommendation.csv")
	var nf *errors.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, filepath.Join(dir, "Crop_recommendation.csv"), nf.Tried)
}

func TestRanges(t *testing.T) {
	cfg := Default()
	rt, err := cfg.Ranges()
	require.NoError(t, err)
	assert.Len(t, rt, 13)

	dir := t.TempDir()
	writeFile(t, dir, "ranges.yaml", "- column: ph\n  lower: 4\n  upper: 8\n")
	cfg.Paths.DataDir = dir
	cfg.Outlier.RangesFile = "ranges.yaml"
	rt, err = cfg.Ranges()
	require.NoError(t, err)
	require.Len(t, rt, 1)
	assert.Equal(t, 8.0, rt[0].Upper)
}
