package store

import (
	"context"
	"sort"
	"sync"

	"github.com/SAP-F-2025/offline-quiz/internal/errors"
)

// MemoryStore keeps the namespace in process memory. Publish swaps the whole
// map under the write lock.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (s *MemoryStore) Get(ctx context.Context, p string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[CleanPath(p)]
	if !ok {
		return nil, errors.NewNotFoundError(p)
	}
	data := make([]byte, len(e.Data))
	copy(data, e.Data)
	return &Entry{Data: data, ContentType: e.ContentType}, nil
}

func (s *MemoryStore) Paths(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]string, 0, len(s.entries))
	for p := range s.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *MemoryStore) Publish(ctx context.Context, staged *Staging) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	next := make(map[string]Entry, staged.Len())
	for p, e := range staged.entries {
		next[p] = e
	}

	s.mu.Lock()
	s.entries = next
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.entries = make(map[string]Entry)
	s.mu.Unlock()
	return nil
}
