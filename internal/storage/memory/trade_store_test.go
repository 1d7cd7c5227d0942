package memory

import (
	"context"
	"errors"
	"testing"

	"intraday-level-lab/internal/domain"
	"intraday-level-lab/internal/storage"
)

func testTrade(id, runID, day string, entryMs int64) *domain.Trade {
	return &domain.Trade{
		TradeID:     id,
		RunID:       runID,
		Symbol:      "ESH6",
		Side:        domain.SideLong,
		Level:       domain.LevelPriorDayLow,
		TradingDay:  day,
		EntryTimeMs: entryMs,
		EntryPrice:  100,
		ExitPrice:   150,
		PnLPoints:   50,
		ExitReason:  domain.ExitReasonTarget,
	}
}

func TestTradeStore_InsertAndGet(t *testing.T) {
	s := NewTradeStore()
	ctx := context.Background()

	tr := testTrade("t1", "run1", "2026-01-27", 1000)
	if err := s.Insert(ctx, tr); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := s.GetByID(ctx, "t1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.PnLPoints != 50 || got.TradingDay != "2026-01-27" {
		t.Errorf("got = %+v", got)
	}

	// The store holds a copy; mutating the input must not leak in.
	tr.PnLPoints = -1
	got, _ = s.GetByID(ctx, "t1")
	if got.PnLPoints != 50 {
		t.Error("store must copy on insert")
	}

	if _, err := s.GetByID(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestTradeStore_DuplicateRejected(t *testing.T) {
	s := NewTradeStore()
	ctx := context.Background()

	if err := s.Insert(ctx, testTrade("t1", "run1", "2026-01-27", 1000)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Insert(ctx, testTrade("t1", "run1", "2026-01-27", 2000)); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("err = %v, want ErrDuplicateKey", err)
	}
	if err := s.Insert(ctx, &domain.Trade{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestTradeStore_InsertBulkAtomic(t *testing.T) {
	s := NewTradeStore()
	ctx := context.Background()

	err := s.InsertBulk(ctx, []*domain.Trade{
		testTrade("t1", "run1", "2026-01-27", 1000),
		testTrade("t1", "run1", "2026-01-27", 2000), // intra-batch duplicate
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("err = %v, want ErrDuplicateKey", err)
	}
	// Nothing from the failed batch may land.
	if _, err := s.GetByID(ctx, "t1"); !errors.Is(err, storage.ErrNotFound) {
		t.Error("failed bulk insert must not store partial results")
	}
}

func TestTradeStore_GetByRunIDOrdered(t *testing.T) {
	s := NewTradeStore()
	ctx := context.Background()

	s.Insert(ctx, testTrade("t2", "run1", "2026-01-27", 3000))
	s.Insert(ctx, testTrade("t1", "run1", "2026-01-27", 1000))
	s.Insert(ctx, testTrade("t3", "run2", "2026-01-27", 2000))

	got, err := s.GetByRunID(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByRunID: %v", err)
	}
	if len(got) != 2 || got[0].TradeID != "t1" || got[1].TradeID != "t2" {
		t.Errorf("got = %+v, want run1 trades by entry time", got)
	}
}

func TestTradeStore_GetByTradingDay(t *testing.T) {
	s := NewTradeStore()
	ctx := context.Background()

	s.Insert(ctx, testTrade("t1", "run1", "2026-01-27", 1000))
	s.Insert(ctx, testTrade("t2", "run1", "2026-01-28", 2000))

	got, err := s.GetByTradingDay(ctx, "run1", "2026-01-28")
	if err != nil {
		t.Fatalf("GetByTradingDay: %v", err)
	}
	if len(got) != 1 || got[0].TradeID != "t2" {
		t.Errorf("got = %+v", got)
	}
}
