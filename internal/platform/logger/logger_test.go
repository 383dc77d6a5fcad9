package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/phrazzld/medivue-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupReturnsLogger(t *testing.T) {
	// Not parallel: Setup mutates the process default logger.
	original := slog.Default()
	defer slog.SetDefault(original)

	for _, level := range []string{"debug", "info", "warn", "error", "WARN"} {
		logger, err := Setup(config.ServerConfig{LogLevel: level})
		require.NoError(t, err, "level %q", level)
		require.NotNil(t, logger, "level %q", level)
	}

	// An invalid level falls back to info instead of failing
	logger, err := Setup(config.ServerConfig{LogLevel: "verbose"})
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
}

func TestSetupLevelFiltering(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	logger, err := Setup(config.ServerConfig{LogLevel: "warn"})
	require.NoError(t, err)

	ctx := context.Background()
	assert.False(t, logger.Enabled(ctx, slog.LevelInfo))
	assert.True(t, logger.Enabled(ctx, slog.LevelWarn))
	assert.True(t, logger.Enabled(ctx, slog.LevelError))
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	testLogger, buf := GetTestLogger(t)
	ctx := WithLogger(context.Background(), testLogger)

	FromContext(ctx).Info("hello from context")
	AssertLogContains(t, buf, "hello from context")

	// A bare context yields the default logger rather than nil
	require.NotNil(t, FromContext(context.Background()))
}

func TestFromContextOrDefault(t *testing.T) {
	t.Parallel()

	fallback, buf := GetTestLogger(t)

	// Context without a logger uses the fallback
	log := FromContextOrDefault(context.Background(), fallback)
	log.Info("fallback used")
	AssertLogContains(t, buf, "fallback used")

	// Context with a logger wins over the fallback
	ctxLogger, ctxBuf := GetTestLogger(t)
	ctx := WithLogger(context.Background(), ctxLogger)
	FromContextOrDefault(ctx, fallback).Info("context logger used")
	AssertLogContains(t, ctxBuf, "context logger used")

	// Nil fallback still yields a usable logger
	require.NotNil(t, FromContextOrDefault(context.Background(), nil))
}
