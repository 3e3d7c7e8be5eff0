package links

import (
	"context"
	"errors"
	"maps"
	"sync"
)

// ErrNotFound is returned by Load when no link set is recorded for the PR.
var ErrNotFound = errors.New("no deployment links recorded")

// Store persists the deployment-link set per pull request. The store is the
// source of truth; the encoded comment is only a rendering, with Decode as
// the fallback for PRs predating the store.
type Store interface {
	Save(ctx context.Context, number int, urls Set) error
	Load(ctx context.Context, number int) (Set, error)
}

// MemoryStore keeps link sets in process memory. Used when no database is
// configured; state does not survive a restart, which the comment-decode
// fallback covers.
type MemoryStore struct {
	mu   sync.RWMutex
	sets map[int]Set
}

var _ Store = new(MemoryStore)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sets: make(map[int]Set)}
}

// Save records the link set for the PR, replacing any previous record.
func (s *MemoryStore) Save(_ context.Context, number int, urls Set) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := make(Set, len(urls))
	maps.Copy(clone, urls)
	s.sets[number] = clone

	return nil
}

// Load returns a copy of the recorded link set, or ErrNotFound.
func (s *MemoryStore) Load(_ context.Context, number int) (Set, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	urls, exists := s.sets[number]
	if !exists || len(urls) == 0 {
		return nil, ErrNotFound
	}

	clone := make(Set, len(urls))
	maps.Copy(clone, urls)

	return clone, nil
}
