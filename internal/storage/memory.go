package storage

import (
	"context"
	"sync"

	"github.com/sevigo/constraint-warden/internal/core"
)

// MemoryStore is a mutex-guarded in-memory Store. It backs tests and the
// database-free "memory" storage driver.
type MemoryStore struct {
	mu       sync.Mutex
	projects map[string]map[string]core.StatusRecord
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects: make(map[string]map[string]core.StatusRecord),
	}
}

func (m *MemoryStore) Upsert(_ context.Context, projectID, commitHash string, rec core.StatusRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	commits, ok := m.projects[projectID]
	if !ok {
		commits = make(map[string]core.StatusRecord)
		m.projects[projectID] = commits
	}
	commits[core.CommitKey(commitHash)] = rec
	return nil
}

func (m *MemoryStore) Get(_ context.Context, projectID, commitHash string) (*core.StatusRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.projects[projectID][core.CommitKey(commitHash)]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}
