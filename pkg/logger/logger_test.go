package logger_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stafflow/stafflow/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	t.Run("Should return the attached logger", func(t *testing.T) {
		var buf bytes.Buffer
		l := logger.NewLogger(&logger.Config{Level: logger.InfoLevel, Output: &buf})
		ctx := logger.ContextWithLogger(context.Background(), l)
		logger.FromContext(ctx).Info("attached")
		assert.Contains(t, buf.String(), "attached")
	})
	t.Run("Should fall back to the default logger", func(t *testing.T) {
		assert.NotNil(t, logger.FromContext(context.Background()))
	})
	t.Run("Should tolerate a nil context", func(t *testing.T) {
		assert.NotNil(t, logger.FromContext(nil)) //nolint:staticcheck
	})
}

func TestNewLogger(t *testing.T) {
	t.Run("Should respect the configured level", func(t *testing.T) {
		var buf bytes.Buffer
		l := logger.NewLogger(&logger.Config{Level: logger.WarnLevel, Output: &buf})
		l.Info("hidden")
		l.Warn("visible")
		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, "visible")
	})
	t.Run("Should emit JSON when configured", func(t *testing.T) {
		var buf bytes.Buffer
		l := logger.NewLogger(&logger.Config{Level: logger.InfoLevel, Output: &buf, JSON: true})
		l.Info("hello", "key", "value")
		require.NotEmpty(t, buf.String())
		assert.Contains(t, buf.String(), `"key":"value"`)
	})
	t.Run("Should carry With fields on child loggers", func(t *testing.T) {
		var buf bytes.Buffer
		l := logger.NewLogger(&logger.Config{Level: logger.InfoLevel, Output: &buf})
		l.With("component", "resolver").Info("scoped")
		assert.Contains(t, buf.String(), "resolver")
	})
}
