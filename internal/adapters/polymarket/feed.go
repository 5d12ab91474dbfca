package polymarket

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alejandrodnm/pairlock/internal/ports"
)

const (
	defaultFeedURL = "wss://ws-subscriptions-clob.polymarket.com/ws/market"

	feedDialTimeout   = 10 * time.Second
	feedPingInterval  = 10 * time.Second
	feedReadTimeout   = 30 * time.Second
	feedMaxBackoff    = 30 * time.Second
	feedInitialBackoff = time.Second
)

// wireMessage mirrors the CLOB market channel's event envelope. event_type
// is either "book" (full snapshot) or "price_change"/"tick_size_change"
// (deltas); only the fields this adapter consumes are declared.
type wireMessage struct {
	EventType string          `json:"event_type"`
	AssetID   string          `json:"asset_id"`
	Bids      []wireLevel     `json:"bids"`
	Asks      []wireLevel     `json:"asks"`
	Changes   []wirePriceChange `json:"changes"`
}

type wireLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

type wirePriceChange struct {
	AssetID string `json:"asset_id"`
	Price   string `json:"price"`
	Side    string `json:"side"`
	Size    string `json:"size"`
}

// Feed streams Polymarket CLOB market-channel book updates over a
// gorilla/websocket connection, translating them into ports.BookUpdate
// values and reconnecting with exponential backoff on drop.
type Feed struct {
	url string

	mu      sync.Mutex
	conn    *websocket.Conn
	tokens  []string
	closed  bool
}

// NewFeed builds a Feed against url, or the production CLOB market channel
// if url is empty.
func NewFeed(url string) *Feed {
	if url == "" {
		url = defaultFeedURL
	}
	return &Feed{url: url}
}

// Subscribe connects, subscribes to tokenIDs, and starts the read/reconnect
// loop in a background goroutine. The returned channel closes when ctx is
// cancelled or Close is called.
func (f *Feed) Subscribe(ctx context.Context, tokenIDs []string) (<-chan ports.BookUpdate, error) {
	f.mu.Lock()
	f.tokens = tokenIDs
	f.mu.Unlock()

	out := make(chan ports.BookUpdate, 256)
	go f.run(ctx, out)
	return out, nil
}

// Close tears down the underlying connection, if any.
func (f *Feed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	if f.conn != nil {
		return f.conn.Close()
	}
	return nil
}

func (f *Feed) run(ctx context.Context, out chan<- ports.BookUpdate) {
	defer close(out)
	backoff := feedInitialBackoff

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		f.mu.Lock()
		if f.closed {
			f.mu.Unlock()
			return
		}
		f.mu.Unlock()

		conn, err := f.dial(ctx)
		if err != nil {
			slog.Warn("feed dial failed, backing off", "err", err, "backoff", backoff)
			if !sleepOrDone(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff)
			continue
		}

		backoff = feedInitialBackoff
		f.mu.Lock()
		f.conn = conn
		f.mu.Unlock()

		f.readLoop(ctx, conn, out)

		conn.Close()
		f.mu.Lock()
		f.conn = nil
		closed := f.closed
		f.mu.Unlock()
		if closed {
			return
		}
		slog.Warn("feed connection dropped, reconnecting and resnapshotting")
	}
}

func (f *Feed) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, feedDialTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, f.url, nil)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	tokens := append([]string(nil), f.tokens...)
	f.mu.Unlock()

	sub := map[string]any{"assets_ids": tokens, "type": "market"}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func (f *Feed) readLoop(ctx context.Context, conn *websocket.Conn, out chan<- ports.BookUpdate) {
	pingTicker := time.NewTicker(feedPingInterval)
	defer pingTicker.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			conn.SetReadDeadline(time.Now().Add(feedReadTimeout))
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			for _, update := range parseWireMessage(data) {
				select {
				case out <- update:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-pingTicker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func parseWireMessage(data []byte) []ports.BookUpdate {
	var msgs []wireMessage
	if err := json.Unmarshal(data, &msgs); err != nil {
		var single wireMessage
		if err2 := json.Unmarshal(data, &single); err2 != nil {
			return nil
		}
		msgs = []wireMessage{single}
	}

	var updates []ports.BookUpdate
	for _, m := range msgs {
		switch m.EventType {
		case "book":
			updates = append(updates, ports.BookUpdate{
				Kind:    ports.BookSnapshot,
				TokenID: m.AssetID,
				Bids:    toLevels(m.Bids),
				Asks:    toLevels(m.Asks),
			})
		case "price_change":
			for _, c := range m.Changes {
				updates = append(updates, ports.BookUpdate{
					Kind:    ports.BookDelta,
					TokenID: c.AssetID,
					Side:    c.Side,
					Price:   parseFloat(c.Price),
					Size:    parseFloat(c.Size),
				})
			}
		}
	}
	return updates
}

func toLevels(levels []wireLevel) []ports.PriceLevel {
	out := make([]ports.PriceLevel, 0, len(levels))
	for _, l := range levels {
		out = append(out, ports.PriceLevel{Price: parseFloat(l.Price), Size: parseFloat(l.Size)})
	}
	return out
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func nextBackoff(d time.Duration) time.Duration {
	next := d * 2
	if next > feedMaxBackoff {
		return feedMaxBackoff
	}
	return next
}
