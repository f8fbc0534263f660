package log

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/agriclean/pkg/errors"
)

func TestTestLoggerCapturesFields(t *testing.T) {
	logger, buffer := NewTestLogger(LevelDebug)

	logger.Debug("debug message", "key1", "value1", "number", 42)
	logger.Warn("warning message", ColumnKey, "ph")
	logger.Error("error message", errors.New("boom"), StageKey, StageImpute)

	require.NotEmpty(t, buffer.String())
	assert.True(t, logger.ContainsMessage("debug message"))
	assert.True(t, logger.ContainsField("key1", "value1"))
	assert.True(t, logger.ContainsField("number", 42.0))
	assert.True(t, logger.ContainsField(ErrAttrKey, "boom"))
	assert.True(t, logger.ContainsField(StageKey, StageImpute))
}

func TestTestLoggerWithSharesBuffer(t *testing.T) {
	logger, _ := NewTestLogger(LevelInfo)
	child := logger.With(ComponentKey, "impute", RunIDKey, "run-1")
	child.Info("K sweep finished", SelectedKKey, 5)
	child.Debug("filtered out")

	entries, err := logger.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "impute", entries[0][ComponentKey])
	assert.Equal(t, 5.0, entries[0][SelectedKKey])
	assert.False(t, logger.Enabled(context.Background(), LevelDebug))
}

func TestZerologLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	zerolog.ErrorStackMarshaler = stackMarshaler
	logger := NewZerologLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))

	logger.With(ComponentKey, "outlier").Info("corrected", ColumnKey, "ph", CorrectedKey, 2)
	logger.Debug("hidden")
	logger.Error("load failed", errors.NewNotFoundError("file", "TARP.csv", ""), PathKey, "TARP.csv")

	out := buf.String()
	assert.Contains(t, out, `"component":"outlier"`)
	assert.Contains(t, out, `"range.corrected":2`)
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"error":"agriclean: file \"TARP.csv\" not found"`)
	assert.Contains(t, out, `"stack"`)
}

func TestZerologLoggerEnabled(t *testing.T) {
	logger := NewZerologLogger(zerolog.New(&bytes.Buffer{}).Level(zerolog.WarnLevel))
	ctx := context.Background()
	assert.False(t, logger.Enabled(ctx, LevelInfo))
	assert.True(t, logger.Enabled(ctx, LevelError))
}

func TestSetupInstallsDefault(t *testing.T) {
	prev := GetLogger()
	defer SetLogger(prev)
	defer errors.SetWarnLogger(nil)

	var buf bytes.Buffer
	logger := Setup("info", "json", &buf)
	assert.Same(t, logger, GetLogger())

	errors.Warn(errors.NewDataQualityWarning("duplicate_rows", 0.1, "duplicates"))
	assert.Contains(t, buf.String(), "DataQualityWarning")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"debug", LevelDebug, true},
		{"info", LevelInfo, true},
		{"warning", LevelWarn, true},
		{"error", LevelError, true},
		{"loud", LevelInfo, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}
