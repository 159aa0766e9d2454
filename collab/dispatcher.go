package collab

import "encoding/json"

// Dispatcher decodes inbound relay messages, folds them into the session,
// and routes the result to registered callbacks. A callback fires only when
// the session accepted the message; self-echoes and unknown kinds are
// dropped silently.
type Dispatcher struct {
	sess *Session

	onInit             func(Identity)
	onCursorMoved      func(UserCursor)
	onUserLeft         func(string)
	onProjectsReplaced func([]Project)
	onError            func(error)
}

// NewDispatcher binds a dispatcher to the session it reconciles into.
func NewDispatcher(sess *Session) *Dispatcher {
	return &Dispatcher{sess: sess}
}

func (d *Dispatcher) SetOnInit(fn func(Identity))              { d.onInit = fn }
func (d *Dispatcher) SetOnCursorMoved(fn func(UserCursor))     { d.onCursorMoved = fn }
func (d *Dispatcher) SetOnUserLeft(fn func(string))            { d.onUserLeft = fn }
func (d *Dispatcher) SetOnProjectsReplaced(fn func([]Project)) { d.onProjectsReplaced = fn }
func (d *Dispatcher) SetOnError(fn func(error))                { d.onError = fn }

// Dispatch handles one raw frame from the relay.
func (d *Dispatcher) Dispatch(data []byte) {
	kind, err := probeKind(data)
	if err != nil {
		d.fireError(WrapError(ErrorInvalidMessage, "undecodable relay message", err))
		return
	}
	switch kind {
	case TypeInit:
		var msg InitMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			d.fireError(WrapError(ErrorSerialization, "failed to unmarshal init", err))
			return
		}
		id := Identity{ID: msg.ID, Color: msg.Color, Name: msg.Name}
		d.sess.SetIdentity(id)
		if d.onInit != nil {
			d.onInit(id)
		}
	case TypeCursorMove:
		var msg CursorMoveMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			d.fireError(WrapError(ErrorSerialization, "failed to unmarshal cursor_move", err))
			return
		}
		cur := UserCursor{
			ID:    msg.UserID,
			X:     msg.X,
			Y:     msg.Y,
			Color: msg.UserColor,
			Name:  msg.UserName,
		}
		if d.sess.ApplyCursor(cur) && d.onCursorMoved != nil {
			d.onCursorMoved(cur)
		}
	case TypeProjectUpdate:
		var msg ProjectUpdateMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			d.fireError(WrapError(ErrorSerialization, "failed to unmarshal project_update", err))
			return
		}
		if d.sess.ApplyRemote(msg.UserID, msg.Projects) && d.onProjectsReplaced != nil {
			d.onProjectsReplaced(msg.Projects)
		}
	case TypeUserDisconnect:
		var msg UserDisconnectMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			d.fireError(WrapError(ErrorSerialization, "failed to unmarshal user_disconnect", err))
			return
		}
		d.sess.RemoveCursor(msg.UserID)
		if d.onUserLeft != nil {
			d.onUserLeft(msg.UserID)
		}
	}
}

func (d *Dispatcher) fireError(err error) {
	if d.onError != nil && err != nil {
		d.onError(err)
	}
}
