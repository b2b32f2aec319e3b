package polymarket

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gutmanan/polymarket-mcp/internal/domain"
)

const (
	// handshakeTimeout bounds the WebSocket dial.
	handshakeTimeout = 15 * time.Second

	// wsWriteWait is the time allowed to write a message to the peer.
	wsWriteWait = 10 * time.Second

	// bookWait is the maximum time to wait for the initial book event after
	// subscribing. The feed pushes one immediately, so hitting this means
	// the asset has no live book.
	bookWait = 15 * time.Second
)

// LiveBookClient takes one-shot order book snapshots from the CLOB market
// WebSocket feed. Every call dials, subscribes, waits for the initial book
// event, and closes; no connection is held between calls.
type LiveBookClient struct {
	wsURL string
}

// NewLiveBookClient creates a client for the CLOB WebSocket feed.
//
// wsURL is the subscriptions host, e.g.
// "wss://ws-subscriptions-clob.polymarket.com".
func NewLiveBookClient(wsURL string) *LiveBookClient {
	return &LiveBookClient{wsURL: wsURL}
}

// GetLiveBook returns the feed-sequenced book snapshot for a token. The
// market channel pushes a full book event right after a subscribe, so this
// normally completes in one round trip. domain.ErrNoLiveBook is returned
// when no event for the token arrives before the deadline.
func (l *LiveBookClient) GetLiveBook(ctx context.Context, tokenID string) (domain.OrderBookSnapshot, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, l.wsURL+"/ws/market", nil)
	if err != nil {
		return domain.OrderBookSnapshot{}, fmt.Errorf("polymarket/ws: connect: %w", err)
	}
	defer conn.Close()

	sub := wsSubscribe{
		Assets: []string{tokenID},
		Type:   "market",
	}
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(sub); err != nil {
		return domain.OrderBookSnapshot{}, fmt.Errorf("polymarket/ws: subscribe: %w", err)
	}

	deadline := time.Now().Add(bookWait)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	conn.SetReadDeadline(deadline)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return domain.OrderBookSnapshot{}, fmt.Errorf("polymarket/ws: %w: token %s", domain.ErrNoLiveBook, tokenID)
			}
			return domain.OrderBookSnapshot{}, fmt.Errorf("polymarket/ws: read: %w", err)
		}

		event, ok := extractBookEvent(message, tokenID)
		if !ok {
			continue
		}

		// Send a close message to the server before returning.
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		_ = conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)

		return event.ToSnapshot(tokenID), nil
	}
}

// extractBookEvent pulls the book event for tokenID out of a raw frame.
// The feed delivers both single events and arrays of events; anything else
// (PONG text, subscription confirmations) is skipped.
func extractBookEvent(raw []byte, tokenID string) (wsBookEvent, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return wsBookEvent{}, false
	}

	var events []wsBookEvent
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return wsBookEvent{}, false
		}
	} else {
		var event wsBookEvent
		if err := json.Unmarshal(trimmed, &event); err != nil {
			return wsBookEvent{}, false
		}
		events = []wsBookEvent{event}
	}

	for _, ev := range events {
		if ev.EventType == "book" && ev.AssetID == tokenID {
			return ev, true
		}
	}

	return wsBookEvent{}, false
}
