package feed

import (
	"errors"
	"strings"
	"testing"
)

const header = "ts_event,open,high,low,close,volume,symbol\n"

func TestReadBars_ParsesAndSorts(t *testing.T) {
	in := header +
		"1769527800000,5010,5015,5008,5012,120,ESH6\n" +
		"1769527740000,5008,5011,5006,5010,100,ESH6\n"

	bars, err := ReadBars(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("bars = %d, want 2", len(bars))
	}
	if bars[0].TimestampMs != 1769527740000 || bars[1].TimestampMs != 1769527800000 {
		t.Errorf("bars not sorted by timestamp: %+v", bars)
	}
	b := bars[1]
	if b.Open != 5010 || b.High != 5015 || b.Low != 5008 || b.Close != 5012 || b.Volume != 120 || b.Symbol != "ESH6" {
		t.Errorf("bar = %+v", b)
	}
}

func TestReadBars_TimestampFormats(t *testing.T) {
	cases := []struct {
		name string
		ts   string
		want int64
	}{
		{"milliseconds", "1769527740000", 1769527740000},
		{"nanoseconds", "1769527740000000000", 1769527740000},
		{"rfc3339", "2026-01-27T14:49:00Z", 1769525340000},
		{"rfc3339 nanos", "2026-01-27T14:49:00.500000000Z", 1769525340500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := header + tc.ts + ",1,2,0.5,1.5,10,ESH6\n"
			bars, err := ReadBars(strings.NewReader(in))
			if err != nil {
				t.Fatalf("ReadBars: %v", err)
			}
			if bars[0].TimestampMs != tc.want {
				t.Errorf("ts = %d, want %d", bars[0].TimestampMs, tc.want)
			}
		})
	}
}

func TestReadBars_FiltersDegenerate(t *testing.T) {
	in := header +
		"1000,5010,5015,5008,5012,120,ESH6\n" +
		"2000,NaN,5015,5008,5012,120,ESH6\n" + // NaN open
		"3000,5010,5008,5015,5012,120,ESH6\n" + // inverted range
		"4000,5010,5010,5010,5010,0,ESH6\n" + // zero range, no volume
		"5000,5010,5010,5010,5010,50,ESH6\n" // zero range with volume stays

	bars, err := ReadBars(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("bars = %+v, want the clean rows only", bars)
	}
	if bars[0].TimestampMs != 1000 || bars[1].TimestampMs != 5000 {
		t.Errorf("kept wrong rows: %+v", bars)
	}
}

func TestReadBars_MissingColumn(t *testing.T) {
	in := "ts_event,open,high,low,close,symbol\n1000,1,2,0.5,1.5,ESH6\n"
	_, err := ReadBars(strings.NewReader(in))
	if !errors.Is(err, ErrBadHeader) {
		t.Errorf("err = %v, want ErrBadHeader", err)
	}
}

func TestReadBars_Empty(t *testing.T) {
	_, err := ReadBars(strings.NewReader(header))
	if !errors.Is(err, ErrEmptyFile) {
		t.Errorf("err = %v, want ErrEmptyFile", err)
	}
}
