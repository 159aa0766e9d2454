package internal

import (
	"context"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// Socket wraps a websocket connection with per-call timeouts. It carries raw
// frames inbound (the protocol is a flat tagged union, decoded upstream) and
// JSON values outbound.
type Socket struct {
	ws           *websocket.Conn
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// Dial opens a socket to the relay. handshakeTimeout bounds the dial only.
func Dial(ctx context.Context, url string, handshakeTimeout, readTimeout, writeTimeout time.Duration) (*Socket, error) {
	if handshakeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, handshakeTimeout)
		defer cancel()
	}
	ws, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	// project_update frames carry every screen's full HTML; the library's
	// 32KiB default read limit is far too small for them.
	ws.SetReadLimit(16 << 20)
	return &Socket{ws: ws, readTimeout: readTimeout, writeTimeout: writeTimeout}, nil
}

// ReadRaw blocks for the next frame and returns its payload.
func (s *Socket) ReadRaw(ctx context.Context) ([]byte, error) {
	if s.readTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.readTimeout)
		defer cancel()
	}
	_, data, err := s.ws.Read(ctx)
	return data, err
}

// WriteJSON marshals v and sends it as one text frame.
func (s *Socket) WriteJSON(ctx context.Context, v any) error {
	if s.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.writeTimeout)
		defer cancel()
	}
	return wsjson.Write(ctx, s.ws, v)
}

// Close performs the websocket close handshake.
func (s *Socket) Close(code websocket.StatusCode, reason string) error {
	return s.ws.Close(code, reason)
}
