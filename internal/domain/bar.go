package domain

// Bar is one OHLCV price bar as delivered by the data feed.
// Bars are immutable once ingested; the simulation never mutates them.
type Bar struct {
	TimestampMs int64 // event time (Unix ms, UTC)
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Volume      float64
	Symbol      string // contract symbol, e.g. "ESH6"
}

// Side of a trade or pending order.
type Side string

// Side constants.
const (
	SideLong  Side = "long"
	SideShort Side = "short"
)
