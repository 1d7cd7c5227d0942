package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"intraday-level-lab/internal/domain"
	"intraday-level-lab/internal/storage"
)

// DaySummaryStore implements storage.DaySummaryStore using PostgreSQL.
type DaySummaryStore struct {
	pool *Pool
}

// NewDaySummaryStore creates a new DaySummaryStore.
func NewDaySummaryStore(pool *Pool) *DaySummaryStore {
	return &DaySummaryStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DaySummaryStore = (*DaySummaryStore)(nil)

const insertDaySummaryQuery = `
	INSERT INTO day_summaries (
		run_id, day, pnl, trades, done, target_hit, holiday
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7
	)
`

// Insert adds a new summary. Returns ErrDuplicateKey if (run_id, day) exists.
func (s *DaySummaryStore) Insert(ctx context.Context, sum *domain.DaySummary) (err error) {
	defer func(start time.Time) { observeQuery("day_insert", start, err) }(time.Now())

	_, err = s.pool.Exec(ctx, insertDaySummaryQuery,
		sum.RunID, sum.Day, sum.PnL, sum.Trades, sum.Done, sum.TargetHit, sum.Holiday,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert day summary: %w", err)
	}
	return nil
}

// InsertBulk adds multiple summaries atomically. Fails entire batch on any duplicate.
func (s *DaySummaryStore) InsertBulk(ctx context.Context, summaries []*domain.DaySummary) (err error) {
	if len(summaries) == 0 {
		return nil
	}
	defer func(start time.Time) { observeQuery("day_insert_bulk", start, err) }(time.Now())

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, sum := range summaries {
		_, err := tx.Exec(ctx, insertDaySummaryQuery,
			sum.RunID, sum.Day, sum.PnL, sum.Trades, sum.Done, sum.TargetHit, sum.Holiday,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert day summary in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByRunID retrieves all summaries of a run, ordered by day ASC.
func (s *DaySummaryStore) GetByRunID(ctx context.Context, runID string) (_ []*domain.DaySummary, err error) {
	defer func(start time.Time) { observeQuery("day_get_by_run", start, err) }(time.Now())

	query := `
		SELECT run_id, day, pnl, trades, done, target_hit, holiday
		FROM day_summaries
		WHERE run_id = $1
		ORDER BY day ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get day summaries by run id: %w", err)
	}
	defer rows.Close()

	var summaries []*domain.DaySummary
	for rows.Next() {
		sum, err := scanDaySummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan day summary row: %w", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate day summary rows: %w", err)
	}

	return summaries, nil
}

// GetByDay retrieves one summary. Returns ErrNotFound if not exists.
func (s *DaySummaryStore) GetByDay(ctx context.Context, runID, day string) (_ *domain.DaySummary, err error) {
	defer func(start time.Time) { observeQuery("day_get_by_day", start, err) }(time.Now())

	query := `
		SELECT run_id, day, pnl, trades, done, target_hit, holiday
		FROM day_summaries
		WHERE run_id = $1 AND day = $2
	`

	row := s.pool.QueryRow(ctx, query, runID, day)
	sum, err := scanDaySummary(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get day summary: %w", err)
	}
	return sum, nil
}

// scanDaySummary scans a single row into a DaySummary.
func scanDaySummary(row pgx.Row) (*domain.DaySummary, error) {
	var sum domain.DaySummary
	err := row.Scan(
		&sum.RunID, &sum.Day, &sum.PnL, &sum.Trades, &sum.Done, &sum.TargetHit, &sum.Holiday,
	)
	if err != nil {
		return nil, err
	}
	return &sum, nil
}
