package collab

// ConnectionState is the client's position in its connection lifecycle.
type ConnectionState int

const (
	// StateDisconnected means no socket is open and no reconnect is pending.
	StateDisconnected ConnectionState = iota

	// StateConnecting means the initial dial is in progress.
	StateConnecting

	// StateConnected means the socket is open and loops are running.
	StateConnected

	// StateReconnecting means the socket dropped and the client is backing
	// off between redial attempts.
	StateReconnecting

	// StateClosed means Close was called; the client will not reconnect.
	StateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// StateEvent describes a connection-state transition.
type StateEvent struct {
	OldState ConnectionState
	NewState ConnectionState
	// Err is the failure that caused the transition, if any.
	Err error
}
