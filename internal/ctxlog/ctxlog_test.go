package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	t.Run("returns the embedded logger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		ctx := WithLogger(context.Background(), logger)

		require.Same(t, logger, FromContext(ctx))
	})

	t.Run("falls back to a discarding logger", func(t *testing.T) {
		logger := FromContext(context.Background())
		require.NotNil(t, logger)
		assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
	})
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))
	ctx = With(ctx, "build_id", "b-1")

	FromContext(ctx).Info("hello")

	assert.Contains(t, buf.String(), "build_id=b-1")
	assert.Contains(t, buf.String(), "msg=hello")
}
