package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("Should write JSON at the requested level", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(&buf, "json", "warn")
		require.NoError(t, err)

		logger.Info("hidden")
		logger.Warn("shown", "club_id", "club-1")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), `"club_id":"club-1"`)
	})

	t.Run("Should reject unknown settings", func(t *testing.T) {
		_, err := New(&bytes.Buffer{}, "xml", "info")
		assert.Error(t, err)
		_, err = New(&bytes.Buffer{}, "text", "loud")
		assert.Error(t, err)
	})
}

func TestContextLogger(t *testing.T) {
	logger, err := New(&bytes.Buffer{}, "text", "info")
	require.NoError(t, err)

	ctx := ContextWithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
	assert.Nil(t, FromContext(context.Background()))
	assert.Equal(t, context.Background(), ContextWithLogger(context.Background(), nil))
}
