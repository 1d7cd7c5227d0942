// Package orderbook manages the resting limit orders of a simulation run:
// per-bar placement at registry levels, fill detection, sibling
// cancellation and age-based expiry.
package orderbook

import (
	"intraday-level-lab/internal/domain"
)

// EntryParams carries the pnl-dependent entry parameters of the current bar.
type EntryParams struct {
	StopPoints float64
	Sprint     bool
}

// PlacementStrategy converts an eligible level into pending orders.
// Variants are selected at book construction; the shipped variant rests a
// limit order at the level price.
type PlacementStrategy interface {
	Orders(level domain.Level, side domain.Side, barIdx int, params EntryParams) []domain.PendingOrder
}

// LimitPlacement rests one limit order exactly at the level price, with the
// fixed target distance attached.
type LimitPlacement struct {
	TargetPoints float64
}

var _ PlacementStrategy = (*LimitPlacement)(nil)

// Orders implements PlacementStrategy.
func (s *LimitPlacement) Orders(level domain.Level, side domain.Side, barIdx int, params EntryParams) []domain.PendingOrder {
	target := level.Price + s.TargetPoints
	if side == domain.SideShort {
		target = level.Price - s.TargetPoints
	}
	return []domain.PendingOrder{{
		Level:       level.Kind,
		Side:        side,
		LimitPrice:  level.Price,
		StopPoints:  params.StopPoints,
		TargetPrice: target,
		PlacedBar:   barIdx,
		Sprint:      params.Sprint,
	}}
}
