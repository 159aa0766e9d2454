package collab

import "encoding/json"

// Message kinds exchanged over the collaboration socket.
const (
	TypeInit           = "init"
	TypeCursorMove     = "cursor_move"
	TypeProjectUpdate  = "project_update"
	TypeUserDisconnect = "user_disconnect"
)

// Identity is the triple the relay assigns to a connection for its lifetime.
// Clients never create one; they receive it in the init message and see
// copies of other clients' identities attached to relayed traffic.
type Identity struct {
	ID    string `json:"id"`
	Color string `json:"color"`
	Name  string `json:"name"`
}

// kindProbe extracts just the discriminator so the full payload can be
// decoded into the right shape.
type kindProbe struct {
	Type string `json:"type"`
}

// InitMessage is sent by the relay to a connection that just opened, and to
// no one else. It carries the connection's own identity.
type InitMessage struct {
	Type  string `json:"type"`
	ID    string `json:"id"`
	Color string `json:"color,omitempty"`
	Name  string `json:"name,omitempty"`
}

// CursorMoveMessage carries a pointer position in canvas coordinates.
// Clients send it with only x/y set; the relay attaches the sender identity
// before fan-out.
type CursorMoveMessage struct {
	Type      string  `json:"type"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	UserID    string  `json:"userId,omitempty"`
	UserColor string  `json:"userColor,omitempty"`
	UserName  string  `json:"userName,omitempty"`
}

// ProjectUpdateMessage carries the sender's entire project collection.
// Whole-state replacement: the last update delivered wins.
type ProjectUpdateMessage struct {
	Type      string    `json:"type"`
	Projects  []Project `json:"projects"`
	UserID    string    `json:"userId,omitempty"`
	UserColor string    `json:"userColor,omitempty"`
	UserName  string    `json:"userName,omitempty"`
}

// UserDisconnectMessage announces that a connection closed.
type UserDisconnectMessage struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

// probeKind returns the message type discriminator, or an error for
// payloads that are not JSON objects.
func probeKind(data []byte) (string, error) {
	var p kindProbe
	if err := json.Unmarshal(data, &p); err != nil {
		return "", err
	}
	return p.Type, nil
}
