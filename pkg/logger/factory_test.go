package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/captiveportal/pkg/logger"
	"github.com/dmitrymomot/captiveportal/pkg/requestid"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json output with static attrs", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(
			logger.WithOutput(buf),
			logger.WithFormat(logger.FormatJSON),
			logger.WithAttr(slog.String("svc", "test")),
		)
		log.Info("hello")

		entry := decode(t, buf)
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "hello", entry["msg"])
		assert.Equal(t, "test", entry["svc"])
	})

	t.Run("text is the default format", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		logger.New(logger.WithOutput(buf)).Info("hello")
		assert.Contains(t, buf.String(), "level=INFO")
		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("level filters records", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithLevel(slog.LevelWarn))
		log.Info("dropped")
		assert.Empty(t, buf.String())
	})

	t.Run("invalid format panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { logger.New(logger.WithFormat("xml")) })
	})

	t.Run("context extractors", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(
			logger.WithOutput(buf),
			logger.WithFormat(logger.FormatJSON),
			logger.WithContextExtractors(logger.StringExtractor("request_id", requestid.FromContext), nil),
		)
		ctx := requestid.WithContext(context.Background(), "req-42")
		log.With("component", "test").InfoContext(ctx, "with id")

		entry := decode(t, buf)
		assert.Equal(t, "req-42", entry["request_id"])
		assert.Equal(t, "test", entry["component"])
	})
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log, err := logger.NewFromConfig(logger.Config{Level: "debug", Format: logger.FormatJSON, Service: "portalctl"}, logger.WithOutput(buf))
	require.NoError(t, err)
	log.Debug("debugging")

	entry := decode(t, buf)
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "portalctl", entry["service"])

	_, err = logger.NewFromConfig(logger.Config{Level: "loud"})
	assert.Error(t, err)
	_, err = logger.NewFromConfig(logger.Config{Format: "xml"})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]slog.Level{
		"DEBUG": slog.LevelDebug, "": slog.LevelInfo, "warning": slog.LevelWarn, "error": slog.LevelError,
	} {
		got, err := logger.ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestDiscard(t *testing.T) {
	t.Parallel()
	log := logger.Discard()
	assert.False(t, log.Enabled(context.Background(), slog.LevelError))
}
