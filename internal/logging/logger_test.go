package logging

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers
func createTestConfig(writer *strings.Builder) Config {
	return Config{
		Writer:    writer,
		Workspace: "/tmp/test-workspace",
		Level:     InfoLevel,
	}
}

func TestGet_WithoutLogger(t *testing.T) {
	t.Parallel()

	logger := Get(context.Background())

	require.NotNil(t, logger)
	require.Equal(t, zerolog.Disabled, logger.GetLevel())
}

func TestNew_WithCustomWriter(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	ctx, err := New(context.Background(), nil, createTestConfig(&buf))

	require.NoError(t, err)
	require.NotNil(t, ctx)

	logger := Get(ctx)
	require.NotNil(t, logger)
	assert.Equal(t, InfoLevel, logger.GetLevel())
}

func TestNew_NoWriterNoFilesystem_ReturnsError(t *testing.T) {
	t.Parallel()

	ctx, err := New(context.Background(), nil, Config{Level: InfoLevel})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "filesystem required when no writer provided")
	assert.Nil(t, ctx)
}

func TestNew_WritesWorkspaceField(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	ctx, err := New(context.Background(), nil, createTestConfig(&buf))
	require.NoError(t, err)

	Get(ctx).Info().Str("symbol", "AAPL").Msg("fetched dividends")

	output := buf.String()
	assert.Contains(t, output, `"workspace":"/tmp/test-workspace"`)
	assert.Contains(t, output, `"symbol":"AAPL"`)
	assert.Contains(t, output, "fetched dividends")
}

func TestNew_LevelFiltersDebug(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	ctx, err := New(context.Background(), nil, createTestConfig(&buf))
	require.NoError(t, err)

	Get(ctx).Debug().Msg("hidden")
	assert.Empty(t, buf.String())
}

func TestNew_ConsoleTee(t *testing.T) {
	t.Parallel()

	var file, console strings.Builder
	cfg := createTestConfig(&file)
	cfg.Console = &console

	ctx, err := New(context.Background(), nil, cfg)
	require.NoError(t, err)

	Get(ctx).Warn().Msg("rate limited")

	assert.Contains(t, file.String(), `"level":"warn"`)
	assert.Contains(t, console.String(), "rate limited")
	assert.NotContains(t, console.String(), `"level"`)
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"", InfoLevel},
		{"debug", DebugLevel},
		{"WARN", WarnLevel},
		{" error ", ErrorLevel},
		{"bogus", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}
