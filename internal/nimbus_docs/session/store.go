package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound 会话不存在或已过期
var ErrNotFound = errors.New("session not found")

// Store 工作区存储，按会话 ID 整体读写（后写覆盖先写）
type Store interface {
	Load(ctx context.Context, id string) (*Workspace, error)
	Save(ctx context.Context, id string, ws *Workspace) error
}

type memoryEntry struct {
	ws       *Workspace
	lastSeen time.Time
}

// MemoryStore 进程内存储，进程重启后会话丢失
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]*memoryEntry
	now     func() time.Time
}

// NewMemoryStore ttl <= 0 表示永不过期
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Load(_ context.Context, id string) (*Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok || s.expired(e) {
		delete(s.entries, id)
		return nil, ErrNotFound
	}
	e.lastSeen = s.now()
	return e.ws.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, id string, ws *Workspace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = &memoryEntry{ws: ws.Clone(), lastSeen: s.now()}
	s.prune()
	return nil
}

// Len 当前未过期的会话数
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()
	return len(s.entries)
}

func (s *MemoryStore) expired(e *memoryEntry) bool {
	return s.ttl > 0 && s.now().Sub(e.lastSeen) > s.ttl
}

func (s *MemoryStore) prune() {
	for id, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, id)
		}
	}
}
