package collab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(id string) []Project {
	return []Project{{ID: id, Prompt: "PROJECT: " + id}}
}

func TestCommitAdvancesHistory(t *testing.T) {
	s := NewSession()
	assert.False(t, s.CanUndo())
	assert.False(t, s.CanRedo())

	s.Commit(snapshot("s0"))
	s.Commit(snapshot("s1"))

	assert.Equal(t, 2, s.HistoryLen())
	assert.True(t, s.CanUndo())
	assert.False(t, s.CanRedo())
	assert.Equal(t, snapshot("s1"), s.Projects())
}

func TestUndoRedoBounds(t *testing.T) {
	s := NewSession()

	_, ok := s.Undo()
	assert.False(t, ok, "undo on empty history")
	_, ok = s.Redo()
	assert.False(t, ok, "redo on empty history")

	s.Commit(snapshot("s0"))
	_, ok = s.Undo()
	assert.False(t, ok, "undo below the first snapshot")

	s.Commit(snapshot("s1"))
	got, ok := s.Undo()
	require.True(t, ok)
	assert.Equal(t, snapshot("s0"), got)

	got, ok = s.Redo()
	require.True(t, ok)
	assert.Equal(t, snapshot("s1"), got)

	_, ok = s.Redo()
	assert.False(t, ok, "redo past the newest snapshot")
}

func TestCommitTruncatesRedoEntries(t *testing.T) {
	s := NewSession()
	s.Commit(snapshot("s0"))
	s.Commit(snapshot("s1"))
	s.Commit(snapshot("s2"))

	s.Undo()
	s.Undo()
	s.Commit(snapshot("s3"))

	assert.Equal(t, 2, s.HistoryLen())
	assert.False(t, s.CanRedo())
	assert.Equal(t, snapshot("s3"), s.Projects())
}

func TestRemoteUpdateOverlaysWithoutEnteringHistory(t *testing.T) {
	s := NewSession()
	s.SetIdentity(Identity{ID: "me"})
	s.Commit(snapshot("s0"))
	s.Commit(snapshot("s1"))

	ok := s.ApplyRemote("them", snapshot("s2"))
	require.True(t, ok)
	assert.Equal(t, snapshot("s2"), s.Projects())
	assert.Equal(t, 2, s.HistoryLen(), "remote update must not push history")

	// undo peels the overlay back to the last local snapshot
	got, ok := s.Undo()
	require.True(t, ok)
	assert.Equal(t, snapshot("s1"), got)

	// a further undo walks local history as usual
	got, ok = s.Undo()
	require.True(t, ok)
	assert.Equal(t, snapshot("s0"), got)
}

func TestSelfEchoedUpdateIsDropped(t *testing.T) {
	s := NewSession()
	s.SetIdentity(Identity{ID: "me"})
	s.Commit(snapshot("s0"))

	ok := s.ApplyRemote("me", snapshot("evil"))
	assert.False(t, ok)
	assert.Equal(t, snapshot("s0"), s.Projects())
	assert.Equal(t, 1, s.HistoryLen())
}

func TestCommitClearsOverlay(t *testing.T) {
	s := NewSession()
	s.Commit(snapshot("s0"))
	require.True(t, s.ApplyRemote("them", snapshot("remote")))

	s.Commit(snapshot("s1"))
	got, ok := s.Undo()
	require.True(t, ok)
	assert.Equal(t, snapshot("s0"), got, "overlay must not survive a local commit")
}

func TestCommitCopiesCallerSlice(t *testing.T) {
	s := NewSession()
	projects := snapshot("s0")
	s.Commit(projects)

	// the caller keeps editing its slice; history must hold the snapshot as
	// committed
	projects[0].ID = "mutated"
	s.Commit(snapshot("s1"))

	got, ok := s.Undo()
	require.True(t, ok)
	assert.Equal(t, snapshot("s0"), got)
}

func TestProjectsReturnsIsolatedSlice(t *testing.T) {
	s := NewSession()
	s.Commit(snapshot("s0"))

	view := s.Projects()
	view[0].ID = "scribbled"

	assert.Equal(t, snapshot("s0"), s.Projects())
}

func TestCursorSetReplacesPerIdentity(t *testing.T) {
	s := NewSession()
	s.SetIdentity(Identity{ID: "me"})

	require.True(t, s.ApplyCursor(UserCursor{ID: "a", X: 1, Y: 1, Name: "User 1"}))
	require.True(t, s.ApplyCursor(UserCursor{ID: "a", X: 5, Y: 9, Name: "User 1"}))
	require.True(t, s.ApplyCursor(UserCursor{ID: "b", X: 2, Y: 2, Name: "User 2"}))

	cursors := s.Cursors()
	require.Len(t, cursors, 2, "at most one entry per identity")
	byID := map[string]UserCursor{}
	for _, c := range cursors {
		byID[c.ID] = c
	}
	assert.Equal(t, 5.0, byID["a"].X)
	assert.Equal(t, 9.0, byID["a"].Y)
}

func TestCursorSetIgnoresOwnIdentity(t *testing.T) {
	s := NewSession()
	s.SetIdentity(Identity{ID: "me"})

	assert.False(t, s.ApplyCursor(UserCursor{ID: "me", X: 1, Y: 1}))
	assert.Empty(t, s.Cursors())
}

func TestDisconnectRemovesCursor(t *testing.T) {
	s := NewSession()
	require.True(t, s.ApplyCursor(UserCursor{ID: "a", X: 1, Y: 1}))

	assert.True(t, s.RemoveCursor("a"))
	assert.Empty(t, s.Cursors())
	assert.False(t, s.RemoveCursor("a"), "second removal is a no-op")
}
