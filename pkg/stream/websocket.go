package stream

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/killallgit/partstream/pkg/logger"
)

// WebSocketSource reads part updates from a websocket. Every text or
// binary message is one frame.
type WebSocketSource struct {
	URL    string
	Header http.Header

	// Dialer defaults to websocket.DefaultDialer
	Dialer *websocket.Dialer
}

// Run implements Source. It returns nil when the server closes the
// connection normally, ctx.Err() when the context ends, and an error
// wrapping ErrClosed when the connection drops.
func (s *WebSocketSource) Run(ctx context.Context, sink Sink) error {
	dialer := s.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	log := logger.WithComponent("stream")

	conn, resp, err := dialer.DialContext(ctx, s.URL, s.Header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("failed to connect to %s: %w (status %d)", s.URL, err, resp.StatusCode)
		}
		return fmt.Errorf("failed to connect to %s: %w", s.URL, err)
	}
	defer conn.Close()
	log.Info("connected", "url", s.URL)

	// unblock ReadMessage when ctx ends
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	pump := NewPump(sink)
	for {
		msgType, message, err := conn.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Info("stream ended", "applied", pump.Applied(), "skipped", pump.Skipped())
				return nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return fmt.Errorf("%w: %s", ErrClosed, closeErr.Error())
			}
			return fmt.Errorf("%w: read error: %v", ErrClosed, err)
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}
		pump.Feed(message)
	}
}
