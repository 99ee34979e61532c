package contextutil_test

import (
	"context"
	"testing"

	"leavedesk/internal/shared/contextutil"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestGetLogger(t *testing.T) {
	contextLogger := zap.NewNop().Named("from-context")
	defaultLogger := zap.NewNop().Named("fallback")

	t.Run("prefers the context logger", func(t *testing.T) {
		ctx := contextutil.WithLogger(context.Background(), contextLogger)
		assert.Same(t, contextLogger, contextutil.GetLogger(ctx, defaultLogger))
	})

	t.Run("falls back to the supplied default", func(t *testing.T) {
		assert.Same(t, defaultLogger, contextutil.GetLogger(context.Background(), defaultLogger))
	})

	t.Run("never returns nil", func(t *testing.T) {
		assert.NotNil(t, contextutil.GetLogger(context.Background(), nil))
	})
}

func TestExtractMetadata(t *testing.T) {
	ctx := contextutil.WithRequestID(context.Background(), "req-1")
	ctx = contextutil.WithUserID(ctx, "user-1")
	ctx = contextutil.WithRole(ctx, "ADMIN")

	md := contextutil.ExtractMetadata(ctx)

	assert.Equal(t, "req-1", md.RequestID)
	assert.Equal(t, "user-1", md.UserID)
	assert.Equal(t, "ADMIN", md.Role)

	assert.Equal(t, contextutil.Metadata{}, contextutil.ExtractMetadata(context.Background()))
}
