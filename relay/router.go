package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/coder/websocket"

	"github.com/F-e-n-y-x/ui-forge/collab"
)

const (
	defaultWriteTimeout = 10 * time.Second
	defaultQueueSize    = 32

	// project_update carries every screen's full HTML, so frames run far
	// past the websocket library's 32KiB default read limit.
	maxMessageBytes = 16 << 20
)

// RouterConfig tunes fan-out behavior. Zero values take defaults.
type RouterConfig struct {
	// WriteTimeout bounds a single write to one recipient.
	WriteTimeout time.Duration
	// QueueSize is the per-connection outbound buffer; frames beyond it are
	// dropped for that recipient rather than stalling the sender.
	QueueSize int
}

// Router accepts collaborator connections, assigns identities, and fans each
// inbound message out to every other live connection. It persists nothing:
// a late joiner sees only traffic from after it connected.
type Router struct {
	registry     *Registry
	logger       *slog.Logger
	writeTimeout time.Duration
	queueSize    int
}

// NewRouter constructs a router with its own registry.
func NewRouter(logger *slog.Logger, cfg RouterConfig) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	return &Router{
		registry:     NewRegistry(),
		logger:       logger,
		writeTimeout: cfg.WriteTimeout,
		queueSize:    cfg.QueueSize,
	}
}

// Registry exposes the live-connection set, mainly for health reporting.
func (rt *Router) Registry() *Registry { return rt.registry }

// HandleConn runs one connection to completion: register, deliver init,
// relay inbound traffic, and tear down the same way on any exit, whether a
// clean close, a protocol error, or a network drop.
func (rt *Router) HandleConn(ctx context.Context, ws *websocket.Conn) {
	ws.SetReadLimit(maxMessageBytes)
	conn := newConn(ws, rt.queueSize)
	ident := rt.registry.Register(conn)
	rt.logger.Info("client connected", "user", ident.ID, "name", ident.Name, "clients", rt.registry.Len())

	go conn.writePump(ctx, rt.writeTimeout, rt.logger)
	defer rt.teardown(conn)

	// init goes to this connection and no one else; it is the only message
	// kind that is never broadcast.
	init, err := json.Marshal(collab.InitMessage{
		Type:  collab.TypeInit,
		ID:    ident.ID,
		Color: ident.Color,
		Name:  ident.Name,
	})
	if err != nil {
		rt.logger.Error("marshal init", "error", err)
		return
	}
	conn.enqueue(init)

	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			rt.logger.Info("client disconnected", "user", ident.ID, "reason", err)
			return
		}
		rt.relay(conn, ident, data)
	}
}

// relay annotates one sender frame with the sender's identity and forwards
// it to every other live connection. The payload is otherwise untouched, so
// message kinds the relay does not know about pass through intact.
//
// Annotation happens server-side over whatever the client sent, so a client
// cannot forge another identity's fields.
func (rt *Router) relay(from *Conn, ident collab.Identity, data []byte) {
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		rt.logger.Warn("dropping malformed message", "user", ident.ID, "error", err)
		return
	}
	payload["userId"] = ident.ID
	payload["userColor"] = ident.Color
	payload["userName"] = ident.Name

	out, err := json.Marshal(payload)
	if err != nil {
		rt.logger.Warn("re-encode relay message", "user", ident.ID, "error", err)
		return
	}
	for _, peer := range rt.registry.Snapshot(from) {
		if !peer.enqueue(out) {
			rt.logger.Warn("dropping frame for slow client", "from", ident.ID)
		}
	}
}

// teardown unregisters the connection and tells the remaining clients it is
// gone. Unregister is idempotent, so running teardown twice for the same
// connection broadcasts nothing the second time.
func (rt *Router) teardown(conn *Conn) {
	ident, ok := rt.registry.Unregister(conn)
	conn.shutdown()
	if !ok {
		return
	}
	out, err := json.Marshal(collab.UserDisconnectMessage{
		Type:   collab.TypeUserDisconnect,
		UserID: ident.ID,
	})
	if err != nil {
		rt.logger.Error("marshal user_disconnect", "error", err)
		return
	}
	for _, peer := range rt.registry.Snapshot(nil) {
		peer.enqueue(out)
	}
}
