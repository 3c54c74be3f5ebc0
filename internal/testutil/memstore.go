package testutil

import (
	"context"
	"sync"

	"github.com/storeforge/storeforge/internal/builder"
)

// MemStore is an in-memory session store for tests. Configurations are
// deep-copied on both Load and Upsert so callers cannot alias the
// stored state.
//
// Thread-safe for concurrent use.
type MemStore struct {
	mu        sync.Mutex
	data      map[string]*builder.Configuration
	loadErr   error
	upsertErr error
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string]*builder.Configuration)}
}

// FailLoad makes every subsequent Load return err. Pass nil to restore.
func (s *MemStore) FailLoad(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = err
}

// FailUpsert makes every subsequent Upsert return err. Pass nil to restore.
func (s *MemStore) FailUpsert(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertErr = err
}

// Load implements builder.Store.
func (s *MemStore) Load(ctx context.Context, sessionID string) (*builder.Configuration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loadErr != nil {
		return nil, s.loadErr
	}
	cfg, ok := s.data[sessionID]
	if !ok {
		return nil, builder.ErrNotFound
	}
	return cfg.Clone(), nil
}

// Upsert implements builder.Store.
func (s *MemStore) Upsert(ctx context.Context, cfg *builder.Configuration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.data[cfg.SessionID] = cfg.Clone()
	return nil
}

// Len returns the number of stored sessions.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}
