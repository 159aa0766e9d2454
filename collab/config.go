package collab

import "time"

// Config controls how the SDK connects and publishes.
type Config struct {
	// URL is the relay websocket endpoint, e.g. "ws://localhost:3000/ws".
	URL string

	HandshakeTimeout time.Duration
	// ReadTimeout bounds a single read. Zero disables it; the relay imposes
	// no idle eviction, so an idle session may legitimately stay silent.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// AutoReconnect re-dials after an unexpected disconnect and republishes
	// the current project collection once the socket is back.
	AutoReconnect     bool
	ReconnectInterval time.Duration
	MaxReconnectDelay time.Duration
	// MaxReconnectTries caps consecutive failed attempts. Zero means
	// unlimited.
	MaxReconnectTries uint64

	// CommitDebounce coalesces rapid local commits into one project_update.
	// Zero publishes every commit.
	CommitDebounce time.Duration

	// CachePath, when set, persists the latest project collection to a
	// bbolt file so a restarted client can resume from its own cached state.
	CachePath string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout:  10 * time.Second,
		WriteTimeout:      10 * time.Second,
		ReconnectInterval: 1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
	}
}
