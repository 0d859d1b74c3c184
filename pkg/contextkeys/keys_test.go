package contextkeys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestID(ctx))

	ctx = WithRequestID(ctx, "req-123")
	assert.Equal(t, "req-123", RequestID(ctx))
	assert.Equal(t, "req-123", ctx.Value(RequestIDKey))
}

func TestKeysAreTyped(t *testing.T) {
	ctx := context.WithValue(context.Background(), "request_id", "untyped")
	assert.Empty(t, RequestID(ctx), "a plain string key must not collide")
}
