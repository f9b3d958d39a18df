package application

import (
	"context"
	"sync"

	"docketvoice/internal/domain"
)

// PetitionWriter persists the finished interview.
type PetitionWriter interface {
	Write(ctx context.Context, data *domain.PetitionData) (string, error)
}

// ProgressStore keeps unfinished interviews so they can be resumed.
// Load returns (nil, nil) when nothing is saved under key.
type ProgressStore interface {
	Save(ctx context.Context, snap domain.Snapshot) error
	Load(ctx context.Context, key string) (*domain.Snapshot, error)
	Delete(ctx context.Context, key string) error
}

type MemoryProgressStore struct {
	mu    sync.Mutex
	snaps map[string]domain.Snapshot
}

func NewMemoryProgressStore() *MemoryProgressStore {
	return &MemoryProgressStore{snaps: make(map[string]domain.Snapshot)}
}

func (m *MemoryProgressStore) Save(_ context.Context, snap domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[snap.SessionKey] = snap
	return nil
}

func (m *MemoryProgressStore) Load(_ context.Context, key string) (*domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.snaps[key]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

func (m *MemoryProgressStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snaps, key)
	return nil
}
