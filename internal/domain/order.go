package domain

// PendingOrder is a resting limit order at a registry level.
// It is destroyed on fill, on expiry, or when a sibling order fills
// (the at-most-one-position invariant cancels the rest).
type PendingOrder struct {
	Level       LevelKind
	Side        Side
	LimitPrice  float64
	StopPoints  float64 // stop distance attached at placement time
	TargetPrice float64
	PlacedBar   int  // bar index at placement, for age-based expiry
	Sprint      bool // placed while the day was in sprint mode
}
