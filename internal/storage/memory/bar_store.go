package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"intraday-level-lab/internal/domain"
	"intraday-level-lab/internal/storage"
)

// BarStore is an in-memory implementation of storage.BarStore.
type BarStore struct {
	mu   sync.RWMutex
	data map[string]domain.Bar // keyed by symbol|timestamp_ms
}

// NewBarStore creates a new in-memory bar store.
func NewBarStore() *BarStore {
	return &BarStore{
		data: make(map[string]domain.Bar),
	}
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

func barKey(symbol string, tsMs int64) string {
	return fmt.Sprintf("%s|%d", symbol, tsMs)
}

// InsertBulk adds multiple bars. Fails entire batch on duplicate (symbol, timestamp_ms).
func (s *BarStore) InsertBulk(_ context.Context, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[string]struct{}, len(bars))
	for _, b := range bars {
		if b.Symbol == "" {
			return storage.ErrInvalidInput
		}
		key := barKey(b.Symbol, b.TimestampMs)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batch[key]; exists {
			return storage.ErrDuplicateKey
		}
		batch[key] = struct{}{}
	}

	for _, b := range bars {
		s.data[barKey(b.Symbol, b.TimestampMs)] = b
	}
	return nil
}

// GetBySymbol retrieves one symbol's bars within [start, end], ordered by timestamp ASC.
func (s *BarStore) GetBySymbol(_ context.Context, symbol string, start, end int64) ([]domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Bar
	for _, b := range s.data {
		if b.Symbol == symbol && b.TimestampMs >= start && b.TimestampMs <= end {
			out = append(out, b)
		}
	}
	sortBars(out)
	return out, nil
}

// GetByTimeRange retrieves all bars within [start, end] in replay order.
func (s *BarStore) GetByTimeRange(_ context.Context, start, end int64) ([]domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Bar
	for _, b := range s.data {
		if b.TimestampMs >= start && b.TimestampMs <= end {
			out = append(out, b)
		}
	}
	sortBars(out)
	return out, nil
}

// sortBars orders by timestamp, then symbol for a stable tiebreak.
func sortBars(bars []domain.Bar) {
	sort.Slice(bars, func(i, j int) bool {
		if bars[i].TimestampMs != bars[j].TimestampMs {
			return bars[i].TimestampMs < bars[j].TimestampMs
		}
		return bars[i].Symbol < bars[j].Symbol
	})
}
