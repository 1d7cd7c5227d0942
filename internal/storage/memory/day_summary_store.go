package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"intraday-level-lab/internal/domain"
	"intraday-level-lab/internal/storage"
)

// DaySummaryStore is an in-memory implementation of storage.DaySummaryStore.
type DaySummaryStore struct {
	mu   sync.RWMutex
	data map[string]*domain.DaySummary // keyed by run_id|day
}

// NewDaySummaryStore creates a new in-memory day summary store.
func NewDaySummaryStore() *DaySummaryStore {
	return &DaySummaryStore{
		data: make(map[string]*domain.DaySummary),
	}
}

// Compile-time interface check.
var _ storage.DaySummaryStore = (*DaySummaryStore)(nil)

func dayKey(runID, day string) string {
	return fmt.Sprintf("%s|%s", runID, day)
}

// Insert adds a new summary. Returns ErrDuplicateKey if (run_id, day) exists.
func (s *DaySummaryStore) Insert(_ context.Context, d *domain.DaySummary) error {
	if d == nil || d.RunID == "" || d.Day == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := dayKey(d.RunID, d.Day)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}
	cp := *d
	s.data[key] = &cp
	return nil
}

// InsertBulk adds multiple summaries atomically. Fails entire batch on any duplicate.
func (s *DaySummaryStore) InsertBulk(_ context.Context, summaries []*domain.DaySummary) error {
	if len(summaries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[string]struct{}, len(summaries))
	for _, d := range summaries {
		if d == nil || d.RunID == "" || d.Day == "" {
			return storage.ErrInvalidInput
		}
		key := dayKey(d.RunID, d.Day)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batch[key]; exists {
			return storage.ErrDuplicateKey
		}
		batch[key] = struct{}{}
	}

	for _, d := range summaries {
		cp := *d
		s.data[dayKey(d.RunID, d.Day)] = &cp
	}
	return nil
}

// GetByRunID retrieves all summaries of a run, ordered by day ASC.
func (s *DaySummaryStore) GetByRunID(_ context.Context, runID string) ([]*domain.DaySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.DaySummary
	for _, d := range s.data {
		if d.RunID == runID {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

// GetByDay retrieves one summary. Returns ErrNotFound if not exists.
func (s *DaySummaryStore) GetByDay(_ context.Context, runID, day string) (*domain.DaySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, exists := s.data[dayKey(runID, day)]
	if !exists {
		return nil, storage.ErrNotFound
	}
	cp := *d
	return &cp, nil
}
