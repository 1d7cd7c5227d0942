package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"intraday-level-lab/internal/domain"
	"intraday-level-lab/internal/observability"
	"intraday-level-lab/internal/storage"
)

// BarStore implements storage.BarStore using ClickHouse.
type BarStore struct {
	conn *Conn
}

// NewBarStore creates a new BarStore.
func NewBarStore(conn *Conn) *BarStore {
	return &BarStore{conn: conn}
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

// observeQuery records duration and error metrics for one store call.
// Deferred with the method's named error so the final outcome is captured.
func observeQuery(operation string, start time.Time, err error) {
	observability.RecordDBQuery("clickhouse", operation, time.Since(start).Seconds(), err)
}

// InsertBulk adds multiple bars. Fails entire batch on duplicate (symbol, timestamp_ms).
// MergeTree does not enforce uniqueness, so duplicates are checked explicitly
// before the batch is sent.
func (s *BarStore) InsertBulk(ctx context.Context, bars []domain.Bar) (err error) {
	if len(bars) == 0 {
		return nil
	}
	defer func(start time.Time) { observeQuery("bar_insert_bulk", start, err) }(time.Now())

	// Check for intra-batch duplicates
	type key struct {
		symbol      string
		timestampMs int64
	}
	seen := make(map[key]struct{})
	for _, b := range bars {
		if b.Symbol == "" {
			return storage.ErrInvalidInput
		}
		k := key{b.Symbol, b.TimestampMs}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, b := range bars {
		exists, err := s.exists(ctx, b.Symbol, b.TimestampMs)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO bars (
			symbol, timestamp_ms, open, high, low, close, volume
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, b := range bars {
		err = batch.Append(
			b.Symbol, b.TimestampMs,
			b.Open, b.High, b.Low, b.Close, b.Volume,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetBySymbol retrieves one symbol's bars within [start, end], ordered by timestamp ASC.
func (s *BarStore) GetBySymbol(ctx context.Context, symbol string, start, end int64) (_ []domain.Bar, err error) {
	defer func(t0 time.Time) { observeQuery("bar_get_by_symbol", t0, err) }(time.Now())

	query := `
		SELECT symbol, timestamp_ms, open, high, low, close, volume
		FROM bars
		WHERE symbol = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("query bars by symbol: %w", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// GetByTimeRange retrieves all bars within [start, end] in replay input order,
// timestamp ASC then symbol ASC.
func (s *BarStore) GetByTimeRange(ctx context.Context, start, end int64) (_ []domain.Bar, err error) {
	defer func(t0 time.Time) { observeQuery("bar_get_by_range", t0, err) }(time.Now())

	query := `
		SELECT symbol, timestamp_ms, open, high, low, close, volume
		FROM bars
		WHERE timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC, symbol ASC
	`

	rows, err := s.conn.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query bars by time range: %w", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// exists checks if a bar with the given key exists.
func (s *BarStore) exists(ctx context.Context, symbol string, timestampMs int64) (bool, error) {
	query := `
		SELECT count(*) FROM bars
		WHERE symbol = ? AND timestamp_ms = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, symbol, timestampMs).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanBars scans multiple rows.
func scanBars(rows driver.Rows) ([]domain.Bar, error) {
	var bars []domain.Bar

	for rows.Next() {
		var b domain.Bar

		err := rows.Scan(
			&b.Symbol, &b.TimestampMs,
			&b.Open, &b.High, &b.Low, &b.Close, &b.Volume,
		)
		if err != nil {
			return nil, fmt.Errorf("scan bar row: %w", err)
		}

		bars = append(bars, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bar rows: %w", err)
	}

	return bars, nil
}
