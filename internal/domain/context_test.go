package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestIDFromContext(ctx))

	ctx = NewContextWithRequestID(ctx, "req-42")
	assert.Equal(t, "req-42", RequestIDFromContext(ctx))

	// Inner value shadows the outer one.
	inner := NewContextWithRequestID(ctx, "req-43")
	assert.Equal(t, "req-43", RequestIDFromContext(inner))
	assert.Equal(t, "req-42", RequestIDFromContext(ctx))
}
