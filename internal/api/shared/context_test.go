package shared

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("simulated rand failure")
}

func TestSetAndGetTraceID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))

	traced := SetTraceID(ctx)
	traceID := GetTraceID(traced)
	assert.Len(t, traceID, 32)
	_, err := hex.DecodeString(traceID)
	assert.NoError(t, err)

	assert.Empty(t, GetTraceID(ctx), "parent context must be unchanged")
}

func TestGetTraceIDWrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), TraceIDKey, 123)
	assert.Empty(t, GetTraceID(ctx))
}

func TestOwnerID(t *testing.T) {
	tests := []struct {
		name   string
		ctx    context.Context
		want   string
		wantOK bool
	}{
		{"set", SetOwnerID(context.Background(), "owner-1"), "owner-1", true},
		{"missing", context.Background(), "", false},
		{"empty", SetOwnerID(context.Background(), ""), "", false},
		{"wrong type", context.WithValue(context.Background(), OwnerIDContextKey, 42), "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := GetOwnerID(tc.ctx)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewTraceIDFallback(t *testing.T) {
	readers := map[string]io.Reader{
		"read error":   failingReader{},
		"partial read": io.LimitReader(rand.Reader, TraceIDLength/2),
	}

	for name, r := range readers {
		t.Run(name, func(t *testing.T) {
			id := newTraceID(r)
			require.Len(t, id, 32)
			_, err := hex.DecodeString(id)
			assert.NoError(t, err)
		})
	}
}

func TestFallbackTraceIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := fallbackTraceID()
		assert.False(t, seen[id], "duplicate fallback trace id %s", id)
		seen[id] = true
	}
}
