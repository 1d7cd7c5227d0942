// Package feed loads and prepares the bar stream a simulation run consumes:
// CSV history files, the continuous-contract primary map, and a live
// websocket bar source.
package feed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"intraday-level-lab/internal/domain"
)

var (
	// ErrEmptyFile indicates a CSV with no data rows.
	ErrEmptyFile = errors.New("feed: no bars in file")
	// ErrBadHeader indicates a CSV whose header lacks a required column.
	ErrBadHeader = errors.New("feed: missing required column")
)

// required CSV columns; extra columns are ignored.
var requiredColumns = []string{"ts_event", "open", "high", "low", "close", "volume", "symbol"}

// LoadCSV reads a bar history file. Rows with degenerate fields (NaN or
// infinite prices, inverted range, zero range with zero volume) are dropped
// so the engine only ever sees a pre-validated stream. Bars are returned
// sorted by timestamp.
func LoadCSV(path string) ([]domain.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars file: %w", err)
	}
	defer f.Close()

	bars, err := ReadBars(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return bars, nil
}

// ReadBars parses a bar CSV stream.
func ReadBars(r io.Reader) ([]domain.Bar, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrBadHeader, name)
		}
	}

	var bars []domain.Bar
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		ts, err := parseTimestamp(rec[cols["ts_event"]])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(bars)+1, err)
		}
		b := domain.Bar{
			TimestampMs: ts,
			Symbol:      rec[cols["symbol"]],
		}
		for _, fld := range []struct {
			name string
			dst  *float64
		}{
			{"open", &b.Open}, {"high", &b.High}, {"low", &b.Low},
			{"close", &b.Close}, {"volume", &b.Volume},
		} {
			v, err := strconv.ParseFloat(rec[cols[fld.name]], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d %s: %w", len(bars)+1, fld.name, err)
			}
			*fld.dst = v
		}

		if degenerate(b) {
			continue
		}
		bars = append(bars, b)
	}
	if len(bars) == 0 {
		return nil, ErrEmptyFile
	}

	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].TimestampMs < bars[j].TimestampMs
	})
	return bars, nil
}

// degenerate reports whether a bar must be filtered before reaching the
// engine: non-finite prices, inverted range, or a zero-range print with no
// volume.
func degenerate(b domain.Bar) bool {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	if b.High < b.Low {
		return true
	}
	if b.High == b.Low && b.Volume == 0 {
		return true
	}
	return false
}

// parseTimestamp accepts RFC3339 timestamps or epoch integers
// (nanoseconds or milliseconds, by magnitude) and returns epoch ms.
func parseTimestamp(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1e14 { // nanoseconds
			return n / int64(time.Millisecond), nil
		}
		return n, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return 0, fmt.Errorf("parse ts_event %q: %w", s, err)
	}
	return t.UnixMilli(), nil
}
