package archive

import (
	"context"
	"sync"

	"pollroom/internal/domain"
)

// Store holds the archived poll records, most recent first. Cap is the
// retention bound; Prepend drops the oldest record beyond it.
type Store interface {
	Prepend(ctx context.Context, record domain.HistoryRecord) error
	List(ctx context.Context, limit int) ([]domain.HistoryRecord, error)
}

// MemoryStore is the default in-process store.
type MemoryStore struct {
	mu      sync.Mutex
	records []domain.HistoryRecord
	cap     int
}

// NewMemoryStore creates a memory store retaining at most cap records.
func NewMemoryStore(cap int) *MemoryStore {
	return &MemoryStore{cap: cap}
}

// Prepend inserts a record at the front of the sequence.
func (s *MemoryStore) Prepend(_ context.Context, record domain.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append([]domain.HistoryRecord{record}, s.records...)
	if s.cap > 0 && len(s.records) > s.cap {
		s.records = s.records[:s.cap]
	}
	return nil
}

// List returns up to limit records, most recent first. The returned
// slice is a copy; callers cannot mutate archived state.
func (s *MemoryStore) List(_ context.Context, limit int) ([]domain.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.records)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]domain.HistoryRecord, n)
	copy(out, s.records[:n])
	return out, nil
}
