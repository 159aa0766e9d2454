package collab

import "sync"

// Session holds a single participant's view of the collaboration: the
// working project collection, the linear undo/redo history, the set of
// remote cursors, and the identity the relay assigned to this client.
//
// History is local-only. Remote updates replace the working collection as an
// overlay and never enter the history stack; letting two tabs' edits
// interleave into one stack would corrupt undo semantics on both sides.
type Session struct {
	mu       sync.Mutex
	identity Identity
	hasID    bool

	projects     []Project
	history      [][]Project
	historyIndex int
	// overlay is set while the working collection shows a remote snapshot
	// that is not on the history stack. The first Undo peels it back to the
	// last local snapshot instead of stepping past it.
	overlay bool

	cursors map[string]UserCursor
}

// NewSession returns an empty session with no identity and no history.
func NewSession() *Session {
	return &Session{
		historyIndex: -1,
		cursors:      make(map[string]UserCursor),
	}
}

// SetIdentity records the identity received in the init message. It is the
// sole value used to tell "mine" from "theirs" for the rest of the session.
func (s *Session) SetIdentity(id Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = id
	s.hasID = true
}

// Identity returns the assigned identity and whether one has been received.
func (s *Session) Identity() (Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, s.hasID
}

// Projects returns the current working collection. The slice is a copy, so
// appending to or reordering it cannot disturb session state; the Project
// values still share nested slices (screens, annotations) with it.
func (s *Session) Projects() []Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneProjects(s.projects)
}

// Commit applies a local edit: it replaces the working collection, discards
// any redo entries beyond the pointer, appends the new snapshot, and
// advances the pointer. The snapshot is copied in, so the caller may keep
// mutating its slice afterwards without rewriting history. The returned
// snapshot is what should be published to the relay.
func (s *Session) Commit(projects []Project) []Project {
	snap := cloneProjects(projects)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = snap
	s.overlay = false
	s.history = append(s.history[:s.historyIndex+1], snap)
	s.historyIndex = len(s.history) - 1
	return cloneProjects(snap)
}

// Undo steps the pointer back one entry. It reports false at the lower
// bound. Undo is a local operation; the original client never broadcast it.
func (s *Session) Undo() ([]Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.overlay && s.historyIndex >= 0 {
		s.overlay = false
		s.projects = s.history[s.historyIndex]
		return cloneProjects(s.projects), true
	}
	if s.historyIndex <= 0 {
		return nil, false
	}
	s.historyIndex--
	s.projects = s.history[s.historyIndex]
	return cloneProjects(s.projects), true
}

// Redo steps the pointer forward one entry. It reports false at the upper
// bound.
func (s *Session) Redo() ([]Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.historyIndex >= len(s.history)-1 {
		return nil, false
	}
	s.overlay = false
	s.historyIndex++
	s.projects = s.history[s.historyIndex]
	return cloneProjects(s.projects), true
}

// CanUndo reports whether Undo would change the displayed collection.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.overlay && s.historyIndex >= 0 {
		return true
	}
	return s.historyIndex > 0
}

// CanRedo reports whether Redo would move the pointer.
func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.historyIndex < len(s.history)-1
}

// HistoryLen returns the number of snapshots on the history stack.
func (s *Session) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// ApplyRemote folds a project_update from another participant into the
// session. The self-echo guard runs first: if senderID matches our own
// identity the update is dropped and false is returned. The relay already
// excludes the sender from fan-out, but the guard must not assume the relay
// is the only safety net.
//
// An accepted update replaces the working collection without touching the
// history stack or pointer, so a later Undo returns to the last local
// commit, and applying a remote update can never trigger a re-broadcast.
func (s *Session) ApplyRemote(senderID string, projects []Project) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasID && senderID == s.identity.ID {
		return false
	}
	s.projects = cloneProjects(projects)
	s.overlay = true
	return true
}

// ApplyCursor upserts a remote cursor keyed by sender id: at most one entry
// per identity, newest position wins. Our own id is ignored defensively.
func (s *Session) ApplyCursor(cur UserCursor) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasID && cur.ID == s.identity.ID {
		return false
	}
	s.cursors[cur.ID] = cur
	return true
}

// RemoveCursor drops the cursor entry for a departed identity. It reports
// whether an entry existed.
func (s *Session) RemoveCursor(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cursors[id]; !ok {
		return false
	}
	delete(s.cursors, id)
	return true
}

func cloneProjects(projects []Project) []Project {
	if projects == nil {
		return nil
	}
	return append([]Project(nil), projects...)
}

// Cursors returns a copy of the remote cursor set.
func (s *Session) Cursors() []UserCursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]UserCursor, 0, len(s.cursors))
	for _, c := range s.cursors {
		out = append(out, c)
	}
	return out
}
