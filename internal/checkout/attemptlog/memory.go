package attemptlog

import (
	"context"
	"sync"
)

// MemoryRepository is an in-memory Repository for tests and local runs
// without a SQLite file.
type MemoryRepository struct {
	mu      sync.Mutex
	entries []Attempt
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (m *MemoryRepository) Save(ctx context.Context, entry *Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
	return nil
}

// Entries returns a copy of all saved entries in insertion order.
func (m *MemoryRepository) Entries() []Attempt {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Attempt, len(m.entries))
	copy(out, m.entries)
	return out
}
