package verification

import (
	"context"
	"errors"
	"fmt"

	"intraday-level-lab/internal/domain"
	"intraday-level-lab/internal/engine"
	"intraday-level-lab/internal/storage"
)

// ErrRunNotFound is returned when a run has no stored trades or summaries.
var ErrRunNotFound = errors.New("run not found")

// ReplayVerifier re-executes a run over its input bars and compares the
// output against what storage holds for that run ID.
type ReplayVerifier struct {
	tradeStore storage.TradeStore
	dayStore   storage.DaySummaryStore
}

// NewReplayVerifier creates a new ReplayVerifier.
func NewReplayVerifier(tradeStore storage.TradeStore, dayStore storage.DaySummaryStore) *ReplayVerifier {
	return &ReplayVerifier{tradeStore: tradeStore, dayStore: dayStore}
}

// VerifyRun replays bars under opts and compares against the stored run.
// opts must carry the same parameter set the original run used; the run ID
// is forced to runID so trade identities line up.
func (v *ReplayVerifier) VerifyRun(ctx context.Context, runID string, bars []domain.Bar, opts engine.Options) (*Report, error) {
	storedTrades, err := v.tradeStore.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load stored trades: %w", err)
	}
	storedDays, err := v.dayStore.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load stored day summaries: %w", err)
	}
	if len(storedTrades) == 0 && len(storedDays) == 0 {
		return nil, ErrRunNotFound
	}

	opts.RunID = runID
	result, err := engine.New(opts).Run(bars)
	if err != nil {
		return nil, fmt.Errorf("replay run: %w", err)
	}

	report := &Report{TotalTrades: len(storedTrades)}

	replayedByID := make(map[string]*domain.Trade, len(result.Trades))
	for i := range result.Trades {
		replayedByID[result.Trades[i].TradeID] = &result.Trades[i]
	}

	for _, stored := range storedTrades {
		replayed, ok := replayedByID[stored.TradeID]
		if !ok {
			report.MissingTrades = append(report.MissingTrades, stored.TradeID)
			continue
		}
		delete(replayedByID, stored.TradeID)

		divergences := CompareTrades(stored, replayed)
		res := TradeResult{
			TradeID:     stored.TradeID,
			Match:       len(divergences) == 0,
			Divergences: divergences,
		}
		report.Results = append(report.Results, res)
		if res.Match {
			report.MatchedTrades++
		} else {
			report.DivergentTrades++
		}
	}

	for id := range replayedByID {
		report.ExtraTrades = append(report.ExtraTrades, id)
	}

	report.DayDivergences = compareDays(storedDays, result.Days)

	return report, nil
}

// compareDays matches stored and replayed summaries by day key.
func compareDays(stored []*domain.DaySummary, replayed []domain.DaySummary) []FieldDivergence {
	replayedByDay := make(map[string]*domain.DaySummary, len(replayed))
	for i := range replayed {
		replayedByDay[replayed[i].Day] = &replayed[i]
	}

	var divergences []FieldDivergence
	for _, s := range stored {
		r, ok := replayedByDay[s.Day]
		if !ok {
			divergences = append(divergences, FieldDivergence{
				Field: "Day", Expected: s.Day, Actual: nil,
			})
			continue
		}
		delete(replayedByDay, s.Day)
		divergences = append(divergences, CompareDaySummaries(s, r)...)
	}
	for day := range replayedByDay {
		divergences = append(divergences, FieldDivergence{
			Field: "Day", Expected: nil, Actual: day,
		})
	}
	return divergences
}
