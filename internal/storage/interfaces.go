package storage

import (
	"context"

	"intraday-level-lab/internal/domain"
)

// TradeStore provides access to trades storage.
type TradeStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, t *domain.Trade) error

	// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, trades []*domain.Trade) error

	// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tradeID string) (*domain.Trade, error)

	// GetByRunID retrieves all trades of a run, ordered by entry time ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.Trade, error)

	// GetByTradingDay retrieves a run's trades for one trading day, ordered by entry time ASC.
	GetByTradingDay(ctx context.Context, runID, day string) ([]*domain.Trade, error)
}

// DaySummaryStore provides access to day_summaries storage.
type DaySummaryStore interface {
	// Insert adds a new summary. Returns ErrDuplicateKey if (run_id, day) exists.
	Insert(ctx context.Context, s *domain.DaySummary) error

	// InsertBulk adds multiple summaries atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, summaries []*domain.DaySummary) error

	// GetByRunID retrieves all summaries of a run, ordered by day ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.DaySummary, error)

	// GetByDay retrieves one summary. Returns ErrNotFound if not exists.
	GetByDay(ctx context.Context, runID, day string) (*domain.DaySummary, error)
}

// BarStore provides access to bars storage.
type BarStore interface {
	// InsertBulk adds multiple bars. Fails entire batch on duplicate (symbol, timestamp_ms).
	InsertBulk(ctx context.Context, bars []domain.Bar) error

	// GetBySymbol retrieves one symbol's bars within [start, end], ordered by timestamp ASC.
	GetBySymbol(ctx context.Context, symbol string, start, end int64) ([]domain.Bar, error)

	// GetByTimeRange retrieves all bars within [start, end], ordered by timestamp ASC
	// then symbol ASC, the replay input order.
	GetByTimeRange(ctx context.Context, start, end int64) ([]domain.Bar, error)
}
