package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nimbus-docs/internal/nimbus_docs/model"
)

func TestMemoryStore_LoadSave(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	_, err := s.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	ws := New([]model.EndpointDescriptor{{Endpoint: "http://x", Method: "GET"}})
	require.NoError(t, s.Save(ctx, "a", ws))

	// the store keeps its own copy
	ws.Reset()
	got, err := s.Load(ctx, "a")
	require.NoError(t, err)
	require.Len(t, got.Descriptors, 1)

	got.Reset()
	again, err := s.Load(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, again.Descriptors, 1)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Minute)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Save(ctx, "a", New(nil)))
	now = now.Add(30 * time.Second)
	_, err := s.Load(ctx, "a")
	require.NoError(t, err)

	// Load refreshes lastSeen
	now = now.Add(45 * time.Second)
	_, err = s.Load(ctx, "a")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = s.Load(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, s.Len())
}
