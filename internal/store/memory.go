package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/chadiek/talkpdf/internal/chat"
)

// MemoryStore keeps the serialized snapshot in memory. Used in tests and for
// throwaway deployments where persistence across restarts is not needed.
type MemoryStore struct {
	mu   sync.Mutex
	blob []byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load implements chat.Store.
func (s *MemoryStore) Load(ctx context.Context) (*chat.Snapshot, error) {
	s.mu.Lock()
	blob := s.blob
	s.mu.Unlock()
	if blob == nil {
		return nil, nil
	}
	var snap chat.Snapshot
	if err := json.Unmarshal(blob, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Save implements chat.Store. The snapshot is serialized on save so later
// mutations of the caller's structures cannot leak into a future Load.
func (s *MemoryStore) Save(ctx context.Context, snap *chat.Snapshot) error {
	blob, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.blob = blob
	s.mu.Unlock()
	return nil
}
