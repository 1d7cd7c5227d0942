package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"intraday-level-lab/internal/domain"
	"intraday-level-lab/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const tradeColumns = `
	trade_id, run_id, symbol, side, level, trading_day,
	entry_time_ms, exit_time_ms, entry_price, exit_price,
	pnl_points, exit_reason, bars_held, mfe, mae, sprint
`

const insertTradeQuery = `
	INSERT INTO trades (
		trade_id, run_id, symbol, side, level, trading_day,
		entry_time_ms, exit_time_ms, entry_price, exit_price,
		pnl_points, exit_reason, bars_held, mfe, mae, sprint
	) VALUES (
		$1, $2, $3, $4, $5, $6,
		$7, $8, $9, $10,
		$11, $12, $13, $14, $15, $16
	)
`

func tradeArgs(t *domain.Trade) []any {
	return []any{
		t.TradeID, t.RunID, t.Symbol, string(t.Side), string(t.Level), t.TradingDay,
		t.EntryTimeMs, t.ExitTimeMs, t.EntryPrice, t.ExitPrice,
		t.PnLPoints, t.ExitReason, t.BarsHeld, t.MFE, t.MAE, t.Sprint,
	}
}

// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeStore) Insert(ctx context.Context, t *domain.Trade) (err error) {
	defer func(start time.Time) { observeQuery("trade_insert", start, err) }(time.Now())

	_, err = s.pool.Exec(ctx, insertTradeQuery, tradeArgs(t)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(ctx context.Context, trades []*domain.Trade) (err error) {
	if len(trades) == 0 {
		return nil
	}
	defer func(start time.Time) { observeQuery("trade_insert_bulk", start, err) }(time.Now())

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range trades {
		_, err := tx.Exec(ctx, insertTradeQuery, tradeArgs(t)...)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *TradeStore) GetByID(ctx context.Context, tradeID string) (_ *domain.Trade, err error) {
	defer func(start time.Time) { observeQuery("trade_get_by_id", start, err) }(time.Now())

	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE trade_id = $1
	`

	row := s.pool.QueryRow(ctx, query, tradeID)
	t, err := scanTrade(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade by id: %w", err)
	}
	return t, nil
}

// GetByRunID retrieves all trades of a run, ordered by entry time ASC.
func (s *TradeStore) GetByRunID(ctx context.Context, runID string) (_ []*domain.Trade, err error) {
	defer func(start time.Time) { observeQuery("trade_get_by_run", start, err) }(time.Now())

	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE run_id = $1
		ORDER BY entry_time_ms ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get trades by run id: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// GetByTradingDay retrieves a run's trades for one trading day, ordered by entry time ASC.
func (s *TradeStore) GetByTradingDay(ctx context.Context, runID, day string) (_ []*domain.Trade, err error) {
	defer func(start time.Time) { observeQuery("trade_get_by_day", start, err) }(time.Now())

	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE run_id = $1 AND trading_day = $2
		ORDER BY entry_time_ms ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, runID, day)
	if err != nil {
		return nil, fmt.Errorf("get trades by trading day: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// scanTrade scans a single row into a Trade.
func scanTrade(row pgx.Row) (*domain.Trade, error) {
	var t domain.Trade
	var side, level string

	err := row.Scan(
		&t.TradeID, &t.RunID, &t.Symbol, &side, &level, &t.TradingDay,
		&t.EntryTimeMs, &t.ExitTimeMs, &t.EntryPrice, &t.ExitPrice,
		&t.PnLPoints, &t.ExitReason, &t.BarsHeld, &t.MFE, &t.MAE, &t.Sprint,
	)
	if err != nil {
		return nil, err
	}

	t.Side = domain.Side(side)
	t.Level = domain.LevelKind(level)
	return &t, nil
}

// scanTrades scans multiple rows into a slice of Trade.
func scanTrades(rows pgx.Rows) ([]*domain.Trade, error) {
	var trades []*domain.Trade

	for rows.Next() {
		var t domain.Trade
		var side, level string

		err := rows.Scan(
			&t.TradeID, &t.RunID, &t.Symbol, &side, &level, &t.TradingDay,
			&t.EntryTimeMs, &t.ExitTimeMs, &t.EntryPrice, &t.ExitPrice,
			&t.PnLPoints, &t.ExitReason, &t.BarsHeld, &t.MFE, &t.MAE, &t.Sprint,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}

		t.Side = domain.Side(side)
		t.Level = domain.LevelKind(level)
		trades = append(trades, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}

	return trades, nil
}
