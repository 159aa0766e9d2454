package collab

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/coder/websocket"

	"github.com/F-e-n-y-x/ui-forge/collab/internal"
	"github.com/F-e-n-y-x/ui-forge/collab/store"
)

// Client is a headless collaboration participant: it joins a relay session,
// shares cursor positions and project snapshots, and reconciles inbound
// traffic into its Session.
type Client struct {
	cfg        Config
	logger     Logger
	sess       *Session
	dispatcher *Dispatcher
	cache      *store.Store

	writeCh chan any

	mu     sync.Mutex
	sock   *internal.Socket
	state  ConnectionState
	cancel context.CancelFunc
	// reconnecting is set while a redial loop owns the socket; further
	// disconnects must not start a second loop racing over sock/cancel.
	reconnecting bool

	onState            func(StateEvent)
	onProjectsReplaced func([]Project)

	commitMu    sync.Mutex
	commitTimer *time.Timer
}

// NewClient constructs a client with the provided config. Use
// DefaultConfig() as a starting point and modify as needed.
func NewClient(cfg Config) *Client {
	sess := NewSession()
	c := &Client{
		cfg:        cfg,
		logger:     noopLogger{},
		sess:       sess,
		dispatcher: NewDispatcher(sess),
		writeCh:    make(chan any, 16),
	}
	// Interpose on project replacement so the local cache tracks whatever
	// snapshot is currently displayed, local or remote.
	c.dispatcher.SetOnProjectsReplaced(func(projects []Project) {
		c.saveCache(projects)
		if c.onProjectsReplaced != nil {
			c.onProjectsReplaced(projects)
		}
	})
	return c
}

// SetLogger overrides the logger (optional).
func (c *Client) SetLogger(l Logger) {
	if l == nil {
		return
	}
	c.logger = l
}

// Session exposes the client's reconciliation state: projects, undo/redo,
// and the remote cursor set.
func (c *Client) Session() *Session { return c.sess }

// OnInit registers a callback for the identity assignment.
func (c *Client) OnInit(fn func(Identity)) { c.dispatcher.SetOnInit(fn) }

// OnCursorMoved registers a callback for remote cursor updates.
func (c *Client) OnCursorMoved(fn func(UserCursor)) { c.dispatcher.SetOnCursorMoved(fn) }

// OnUserLeft registers a callback for departure notices.
func (c *Client) OnUserLeft(fn func(string)) { c.dispatcher.SetOnUserLeft(fn) }

// OnProjectsReplaced registers a callback for accepted remote project
// updates.
func (c *Client) OnProjectsReplaced(fn func([]Project)) { c.onProjectsReplaced = fn }

// OnError registers a callback for errors.
func (c *Client) OnError(fn func(error)) { c.dispatcher.SetOnError(fn) }

// OnStateChanged registers a callback for connection-state transitions.
func (c *Client) OnStateChanged(fn func(StateEvent)) { c.onState = fn }

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect dials the relay and starts the read/write loops. The assigned
// identity arrives asynchronously via OnInit; there is no handshake beyond
// the websocket upgrade.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateConnected || c.state == StateConnecting {
		c.mu.Unlock()
		return NewError(ErrorInvalidConfig, "already connected")
	}
	if c.state == StateClosed {
		c.mu.Unlock()
		return NewError(ErrorNotConnected, "client is closed")
	}
	c.mu.Unlock()

	if c.cfg.URL == "" {
		return NewError(ErrorInvalidConfig, "empty URL")
	}
	if _, err := url.Parse(c.cfg.URL); err != nil {
		return WrapError(ErrorInvalidConfig, "invalid URL", err)
	}

	if err := c.openCache(); err != nil {
		return err
	}

	c.setState(StateConnecting, nil)
	if err := c.dial(ctx); err != nil {
		c.setState(StateDisconnected, err)
		return WrapError(ErrorConnection, "dial failed", err)
	}
	c.setState(StateConnected, nil)
	return nil
}

// SendCursor shares a pointer position in canvas coordinates.
func (c *Client) SendCursor(ctx context.Context, x, y float64) error {
	return c.send(ctx, CursorMoveMessage{Type: TypeCursorMove, X: x, Y: y})
}

// Commit applies a local edit to the session (advancing undo history),
// persists it to the cache, and publishes the full collection to the relay,
// subject to CommitDebounce.
func (c *Client) Commit(ctx context.Context, projects []Project) error {
	snapshot := c.sess.Commit(projects)
	c.saveCache(snapshot)

	if c.cfg.CommitDebounce <= 0 {
		return c.PublishProjects(ctx)
	}
	c.commitMu.Lock()
	defer c.commitMu.Unlock()
	if c.commitTimer != nil {
		c.commitTimer.Stop()
	}
	c.commitTimer = time.AfterFunc(c.cfg.CommitDebounce, func() {
		if err := c.PublishProjects(context.Background()); err != nil {
			c.logger.Warn("debounced publish failed", map[string]any{"error": err.Error()})
		}
	})
	return nil
}

// PublishProjects sends the current project collection as a project_update.
// Used for explicit resync, e.g. after a reconnect.
func (c *Client) PublishProjects(ctx context.Context) error {
	return c.send(ctx, ProjectUpdateMessage{Type: TypeProjectUpdate, Projects: c.sess.Projects()})
}

// Close shuts the client down and closes the socket. A closed client does
// not reconnect and cannot be reused.
func (c *Client) Close() error {
	c.commitMu.Lock()
	if c.commitTimer != nil {
		c.commitTimer.Stop()
	}
	c.commitMu.Unlock()

	c.mu.Lock()
	alreadyClosed := c.state == StateClosed
	prev := c.state
	c.state = StateClosed
	if c.cancel != nil {
		c.cancel()
	}
	sock := c.sock
	c.mu.Unlock()
	if alreadyClosed {
		return nil
	}
	c.fireState(prev, StateClosed, nil)

	var err error
	if sock != nil {
		err = sock.Close(websocket.StatusNormalClosure, "client close")
	}
	if c.cache != nil {
		if cerr := c.cache.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (c *Client) send(ctx context.Context, v any) error {
	c.mu.Lock()
	connected := c.state == StateConnected
	c.mu.Unlock()
	if !connected {
		return NewError(ErrorNotConnected, "not connected")
	}
	select {
	case c.writeCh <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// dial opens the socket and starts fresh loops, replacing any previous run.
func (c *Client) dial(ctx context.Context) error {
	sock, err := internal.Dial(ctx, c.cfg.URL, c.cfg.HandshakeTimeout, c.cfg.ReadTimeout, c.cfg.WriteTimeout)
	if err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.sock = sock
	c.cancel = cancel
	// The swap and the flag clear are one critical section: once the loops
	// below start, a failure of this socket must be allowed to schedule a
	// fresh redial.
	c.reconnecting = false
	c.mu.Unlock()

	go c.readLoop(runCtx, sock)
	go c.writeLoop(runCtx, sock)
	return nil
}

func (c *Client) readLoop(ctx context.Context, sock *internal.Socket) {
	for {
		data, err := sock.ReadRaw(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.handleDisconnect(err)
			return
		}
		c.dispatcher.Dispatch(data)
	}
}

func (c *Client) writeLoop(ctx context.Context, sock *internal.Socket) {
	for {
		select {
		case v := <-c.writeCh:
			if err := sock.WriteJSON(ctx, v); err != nil {
				if ctx.Err() == nil {
					c.dispatcher.fireError(WrapError(ErrorConnection, "write failed", err))
					c.logger.Warn("write loop exit", map[string]any{"error": err.Error()})
				}
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// handleDisconnect runs when the read loop dies for any reason other than
// Close. Reconnection is driven from here only, and at most one redial loop
// is in flight at a time: a socket that dies while a previous loop is still
// winding down yields to it instead of spawning a competitor.
func (c *Client) handleDisconnect(err error) {
	if !isCleanClose(err) {
		c.dispatcher.fireError(WrapError(ErrorDisconnected, "connection lost", err))
	}
	c.mu.Lock()
	if c.state == StateClosed || c.reconnecting {
		c.mu.Unlock()
		return
	}
	if !c.cfg.AutoReconnect {
		c.mu.Unlock()
		c.setState(StateDisconnected, err)
		return
	}
	c.reconnecting = true
	c.mu.Unlock()
	c.setState(StateReconnecting, err)
	go c.reconnect()
}

// reconnect redials with exponential backoff. On success it republishes the
// current project collection so peers that missed pre-drop edits converge.
func (c *Client) reconnect() {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.ReconnectInterval
	bo.MaxInterval = c.cfg.MaxReconnectDelay
	bo.MaxElapsedTime = 0

	var tries uint64
	for {
		if c.State() == StateClosed {
			c.clearReconnecting()
			return
		}
		time.Sleep(bo.NextBackOff())
		if c.State() == StateClosed {
			c.clearReconnecting()
			return
		}
		tries++
		err := c.dial(context.Background())
		if err == nil {
			// dial released the in-flight flag. If the fresh socket already
			// died, its disconnect owns the next redial and this loop is
			// done.
			c.mu.Lock()
			superseded := c.reconnecting || c.state == StateClosed
			c.mu.Unlock()
			if !superseded {
				c.setState(StateConnected, nil)
				c.resync()
			}
			return
		}
		c.logger.Warn("reconnect attempt failed", map[string]any{
			"attempt": tries,
			"error":   err.Error(),
		})
		if c.cfg.MaxReconnectTries > 0 && tries >= c.cfg.MaxReconnectTries {
			c.clearReconnecting()
			c.setState(StateDisconnected, err)
			c.dispatcher.fireError(WrapError(ErrorDisconnected, "reconnect attempts exhausted", err))
			return
		}
	}
}

func (c *Client) clearReconnecting() {
	c.mu.Lock()
	c.reconnecting = false
	c.mu.Unlock()
}

// resync republishes local state after a reconnect. An empty collection is
// not published: a client that has nothing must not stomp peers with it.
func (c *Client) resync() {
	if len(c.sess.Projects()) == 0 {
		return
	}
	if err := c.PublishProjects(context.Background()); err != nil {
		c.logger.Warn("resync publish failed", map[string]any{"error": err.Error()})
	}
}

func (c *Client) openCache() error {
	if c.cfg.CachePath == "" || c.cache != nil {
		return nil
	}
	cache, err := store.Open(c.cfg.CachePath)
	if err != nil {
		return WrapError(ErrorCache, "open snapshot cache", err)
	}
	c.cache = cache

	raw, err := cache.LoadSnapshot()
	if err != nil {
		return WrapError(ErrorCache, "load cached snapshot", err)
	}
	if raw == nil {
		return nil
	}
	var projects []Project
	if err := json.Unmarshal(raw, &projects); err != nil {
		// A corrupt cache is not fatal; start empty.
		c.logger.Warn("discarding unreadable snapshot cache", map[string]any{"error": err.Error()})
		return nil
	}
	c.sess.Commit(projects)
	return nil
}

func (c *Client) saveCache(projects []Project) {
	if c.cache == nil {
		return
	}
	raw, err := json.Marshal(projects)
	if err != nil {
		c.logger.Warn("marshal snapshot for cache", map[string]any{"error": err.Error()})
		return
	}
	if err := c.cache.SaveSnapshot(raw); err != nil {
		c.logger.Warn("persist snapshot cache", map[string]any{"error": err.Error()})
	}
}

func (c *Client) setState(next ConnectionState, err error) {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	prev := c.state
	c.state = next
	c.mu.Unlock()
	if prev != next {
		c.fireState(prev, next, err)
	}
}

func (c *Client) fireState(prev, next ConnectionState, err error) {
	if c.onState != nil {
		c.onState(StateEvent{OldState: prev, NewState: next, Err: err})
	}
}

func isCleanClose(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	default:
		return false
	}
}
