package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"intraday-level-lab/internal/domain"
	"intraday-level-lab/internal/observability"
)

// WSConfig configures the live bar stream.
type WSConfig struct {
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the backoff between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is the interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is the timeout for reading messages.
	ReadTimeout time.Duration
	// Buffer is the delivery channel capacity.
	Buffer int
}

// DefaultWSConfig returns the default stream configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		Buffer:            256,
	}
}

// wsBar is the wire form of one bar message.
type wsBar struct {
	TsMs   int64   `json:"ts"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
	Symbol string  `json:"symbol"`
}

// BarStream delivers live bars over a websocket connection.
// Degenerate bars are filtered with the same rule as the CSV loader.
type BarStream struct {
	endpoint string
	config   WSConfig

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	done chan struct{}
	wg   sync.WaitGroup
}

// NewBarStream connects to the endpoint and starts reading.
func NewBarStream(ctx context.Context, endpoint string, config *WSConfig) (*BarStream, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}

	s := &BarStream{
		endpoint: endpoint,
		config:   cfg,
		done:     make(chan struct{}),
	}
	if err := s.connect(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// connect establishes the websocket connection, closing any previous one.
func (s *BarStream) connect(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	// Drop the previous connection first; on dial failure the stale conn
	// stays in place and its reads keep erroring until a retry succeeds.
	if s.conn != nil {
		s.conn.Close()
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	s.conn = conn
	return nil
}

// Subscribe returns a channel of bars. The channel is closed when the
// context is cancelled or the stream is closed.
func (s *BarStream) Subscribe(ctx context.Context) (<-chan domain.Bar, error) {
	if s.closed.Load() {
		return nil, fmt.Errorf("stream closed")
	}

	out := make(chan domain.Bar, s.config.Buffer)
	s.wg.Add(2)
	go s.readLoop(ctx, out)
	go s.pingLoop(ctx)
	return out, nil
}

// readLoop reads bar messages, reconnecting with exponential backoff on
// read errors until the context ends.
func (s *BarStream) readLoop(ctx context.Context, out chan<- domain.Bar) {
	defer s.wg.Done()
	defer close(out)

	delay := s.config.ReconnectDelay
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		default:
		}

		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() || ctx.Err() != nil {
				return
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			case <-s.done:
				return
			}
			if delay *= 2; delay > s.config.MaxReconnectDelay {
				delay = s.config.MaxReconnectDelay
			}
			if err := s.connect(ctx); err != nil {
				continue
			}
			observability.RecordWSReconnect()
			continue
		}
		delay = s.config.ReconnectDelay

		var wb wsBar
		if err := json.Unmarshal(msg, &wb); err != nil {
			continue
		}
		b := domain.Bar{
			TimestampMs: wb.TsMs,
			Open:        wb.Open,
			High:        wb.High,
			Low:         wb.Low,
			Close:       wb.Close,
			Volume:      wb.Volume,
			Symbol:      wb.Symbol,
		}
		if degenerate(b) {
			continue
		}
		select {
		case out <- b:
		case <-ctx.Done():
			return
		case <-s.done:
			return
		}
	}
}

// pingLoop keeps the connection alive.
func (s *BarStream) pingLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.connMu.Lock()
			s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second))
			s.connMu.Unlock()
		case <-ctx.Done():
			return
		case <-s.done:
			return
		}
	}
}

// Close shuts the stream down and waits for its goroutines.
func (s *BarStream) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(s.done)

	s.connMu.Lock()
	err := s.conn.Close()
	s.connMu.Unlock()

	s.wg.Wait()
	return err
}
