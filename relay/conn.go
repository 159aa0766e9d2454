package relay

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// Conn is one live collaborator socket plus its outbound queue. All writes
// to the peer go through the queue so a slow or stalled client never blocks
// whoever is fanning out to it.
type Conn struct {
	ws    *websocket.Conn
	sendq chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func newConn(ws *websocket.Conn, queueSize int) *Conn {
	return &Conn{
		ws:    ws,
		sendq: make(chan []byte, queueSize),
		done:  make(chan struct{}),
	}
}

// enqueue offers a frame to the writer without blocking. It reports false
// when the conn is shut down or its queue is full; the caller treats both as
// a failed best-effort send.
func (c *Conn) enqueue(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.sendq <- msg:
		return true
	default:
		return false
	}
}

// shutdown stops the writer. Safe to call more than once.
func (c *Conn) shutdown() {
	c.closeOnce.Do(func() { close(c.done) })
}

// writePump drains the queue onto the socket, preserving enqueue order. Any
// write failure ends the pump; the read side notices the dead socket and
// runs the teardown path.
func (c *Conn) writePump(ctx context.Context, writeTimeout time.Duration, logger *slog.Logger) {
	for {
		select {
		case msg := <-c.sendq:
			if err := c.writeOne(ctx, writeTimeout, msg); err != nil {
				logger.Debug("write pump exit", "error", err)
				return
			}
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *Conn) writeOne(ctx context.Context, timeout time.Duration, msg []byte) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return c.ws.Write(ctx, websocket.MessageText, msg)
}
