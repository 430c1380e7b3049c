package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nimbus-docs/internal/nimbus_docs/model"
)

type sink struct {
	mu   sync.Mutex
	sets [][]model.EndpointDescriptor
}

func (s *sink) store(d []model.EndpointDescriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets = append(s.sets, d)
}

func (s *sink) latest() []model.EndpointDescriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sets) == 0 {
		return nil
	}
	return s.sets[len(s.sets)-1]
}

func (s *sink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sets)
}

func TestWorker_LoadOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apis.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"endpoint":"http://a","method":"GET"}]`), 0o644))

	s := &sink{}
	w := &Worker{Log: zap.NewNop(), Path: path, OnLoad: s.store}
	require.NoError(t, w.LoadOnce())
	require.Len(t, s.latest(), 1)
	assert.Equal(t, "http://a", s.latest()[0].Endpoint)

	require.NoError(t, os.WriteFile(path, []byte(`nope`), 0o644))
	assert.Error(t, w.LoadOnce())
	assert.Equal(t, 1, s.count())
}

func TestWorker_RunReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "apis.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))

	s := &sink{}
	w := &Worker{Log: zap.NewNop(), Path: path, OnLoad: s.store}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`[{}]`), 0o644))
	require.NoError(t, os.WriteFile(path, []byte(`nope`), 0o644))
	time.Sleep(2 * DebounceDelay)
	assert.Zero(t, s.count())

	require.NoError(t, os.WriteFile(path, []byte(`[{"endpoint":"http://b","method":"POST"}]`), 0o644))
	assert.Eventually(t, func() bool {
		d := s.latest()
		return len(d) == 1 && d[0].Endpoint == "http://b"
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
