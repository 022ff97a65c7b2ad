package store

import (
	"context"
	"sync"
	"time"
)

type memorySession struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore keeps everything in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	data     map[Key][]byte
	sessions map[string]memorySession
	now      func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:     map[Key][]byte{},
		sessions: map[string]memorySession{},
		now:      time.Now,
	}
}

// WithClock replaces the clock used for session expiry.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Get(_ context.Context, key Key) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(data), nil
}

func (s *MemoryStore) Put(_ context.Context, key Key, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = clone(data)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, keys []Key, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memoryTx{store: s, keys: declared(keys), staged: map[Key][]byte{}}
	if err := fn(tx); err != nil {
		return err
	}
	for k, v := range tx.staged {
		s.data[k] = v
	}
	return nil
}

func (s *MemoryStore) GetSession(_ context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if !sess.expiresAt.IsZero() && !s.now().Before(sess.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	return clone(sess.data), nil
}

func (s *MemoryStore) SetSession(_ context.Context, id string, data []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := memorySession{data: clone(data)}
	if ttl > 0 {
		sess.expiresAt = s.now().Add(ttl)
	}
	s.sessions[id] = sess
	return nil
}

func (s *MemoryStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

type memoryTx struct {
	store  *MemoryStore
	keys   map[Key]bool
	staged map[Key][]byte
}

func (t *memoryTx) Get(key Key) ([]byte, error) {
	if !t.keys[key] {
		return nil, ErrUndeclaredKey
	}
	if data, ok := t.staged[key]; ok {
		return clone(data), nil
	}
	data, ok := t.store.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(data), nil
}

func (t *memoryTx) Put(key Key, data []byte) error {
	if !t.keys[key] {
		return ErrUndeclaredKey
	}
	t.staged[key] = clone(data)
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
