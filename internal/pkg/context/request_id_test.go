package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestID_RoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-9")
	assert.Equal(t, "req-9", GetRequestID(ctx))
}

func TestRequestID_EmptyAndMissing(t *testing.T) {
	base := context.Background()
	assert.Equal(t, base, WithRequestID(base, ""))
	assert.Empty(t, GetRequestID(base))
	//nolint:staticcheck // nil context is accepted
	assert.Empty(t, GetRequestID(nil))
}
