package relay_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/F-e-n-y-x/ui-forge/collab"
	"github.com/F-e-n-y-x/ui-forge/relay"
)

func newTestRelay(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(relay.NewHandler(relay.NewRouter(logger, relay.RouterConfig{}), logger))
	t.Cleanup(srv.Close)
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

type testClient struct {
	ws   *websocket.Conn
	init collab.InitMessage
}

// dialTest connects and consumes the init frame, which also guarantees the
// relay has registered the connection before the test proceeds.
func dialTest(t *testing.T, url string) *testClient {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ws, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.CloseNow() })

	var init collab.InitMessage
	require.NoError(t, wsjson.Read(ctx, ws, &init))
	require.Equal(t, collab.TypeInit, init.Type)
	require.NotEmpty(t, init.ID)
	return &testClient{ws: ws, init: init}
}

func (c *testClient) sendJSON(t *testing.T, v any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, c.ws, v))
}

func (c *testClient) readFrame(t *testing.T) map[string]any {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var out map[string]any
	require.NoError(t, wsjson.Read(ctx, c.ws, &out))
	return out
}

// expectSilence asserts no frame arrives within a grace period. The expired
// read context tears the connection down, so call it only on connections the
// test is done with.
func (c *testClient) expectSilence(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	var out map[string]any
	err := wsjson.Read(ctx, c.ws, &out)
	require.Error(t, err, "expected no frame, got: %v", out)
}

func TestInitIdentitiesAreDistinct(t *testing.T) {
	_, url := newTestRelay(t)
	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		c := dialTest(t, url)
		require.False(t, seen[c.init.ID], "id shared between live connections")
		seen[c.init.ID] = true
	}
}

func TestCursorMoveFansOutToOthersOnly(t *testing.T) {
	_, url := newTestRelay(t)
	a := dialTest(t, url)
	b := dialTest(t, url)
	c := dialTest(t, url)

	a.sendJSON(t, map[string]any{"type": collab.TypeCursorMove, "x": 10, "y": 20})

	for _, peer := range []*testClient{b, c} {
		got := peer.readFrame(t)
		assert.Equal(t, collab.TypeCursorMove, got["type"])
		assert.Equal(t, float64(10), got["x"])
		assert.Equal(t, float64(20), got["y"])
		assert.Equal(t, a.init.ID, got["userId"])
		assert.Equal(t, a.init.Color, got["userColor"])
		assert.Equal(t, a.init.Name, got["userName"])
	}
	a.expectSilence(t)
}

func TestSenderIdentityCannotBeForged(t *testing.T) {
	_, url := newTestRelay(t)
	a := dialTest(t, url)
	b := dialTest(t, url)

	a.sendJSON(t, map[string]any{
		"type":   collab.TypeCursorMove,
		"x":      1,
		"y":      2,
		"userId": "spoofed",
	})

	got := b.readFrame(t)
	assert.Equal(t, a.init.ID, got["userId"])
}

func TestProjectUpdatePassesPayloadThrough(t *testing.T) {
	_, url := newTestRelay(t)
	a := dialTest(t, url)
	b := dialTest(t, url)

	projects := []collab.Project{{
		ID:     "p1",
		Prompt: "PROJECT: landing page",
		Screens: []collab.Screen{
			{ID: "s1", PageName: "Home", HTML: "<main/>", Status: collab.ScreenComplete, X: 40, Y: 80},
		},
	}}
	a.sendJSON(t, collab.ProjectUpdateMessage{Type: collab.TypeProjectUpdate, Projects: projects})

	got := b.readFrame(t)
	require.Equal(t, collab.TypeProjectUpdate, got["type"])
	assert.Equal(t, a.init.ID, got["userId"])

	raw, err := json.Marshal(got)
	require.NoError(t, err)
	var update collab.ProjectUpdateMessage
	require.NoError(t, json.Unmarshal(raw, &update))
	assert.Equal(t, projects, update.Projects)
}

func TestDisconnectBroadcastsDeparture(t *testing.T) {
	_, url := newTestRelay(t)
	a := dialTest(t, url)
	b := dialTest(t, url)
	c := dialTest(t, url)

	require.NoError(t, a.ws.Close(websocket.StatusNormalClosure, "bye"))

	for _, peer := range []*testClient{b, c} {
		got := peer.readFrame(t)
		assert.Equal(t, collab.TypeUserDisconnect, got["type"])
		assert.Equal(t, a.init.ID, got["userId"])
	}

	// Exactly one departure frame per peer: once both have consumed it, a
	// marker frame from the other live client must be the next thing each
	// sees. A duplicated user_disconnect would arrive ahead of the marker.
	b.sendJSON(t, map[string]any{"type": collab.TypeCursorMove, "x": 1, "y": 1})
	got := c.readFrame(t)
	assert.Equal(t, collab.TypeCursorMove, got["type"])
	assert.Equal(t, b.init.ID, got["userId"])

	c.sendJSON(t, map[string]any{"type": collab.TypeCursorMove, "x": 2, "y": 2})
	got = b.readFrame(t)
	assert.Equal(t, collab.TypeCursorMove, got["type"])
	assert.Equal(t, c.init.ID, got["userId"])
}

func TestMalformedPayloadIsDropped(t *testing.T) {
	_, url := newTestRelay(t)
	a := dialTest(t, url)
	b := dialTest(t, url)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.ws.Write(ctx, websocket.MessageText, []byte("not json")))

	// The sender's connection survives and per-sender order is preserved, so
	// the next frame b sees must be the valid cursor_move, not the garbage.
	a.sendJSON(t, map[string]any{"type": collab.TypeCursorMove, "x": 3, "y": 4})
	got := b.readFrame(t)
	assert.Equal(t, collab.TypeCursorMove, got["type"])
	assert.Equal(t, a.init.ID, got["userId"])
}

func TestHealthEndpoint(t *testing.T) {
	srv, url := newTestRelay(t)
	dialTest(t, url)

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status  string `json:"status"`
		Clients int    `json:"clients"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 1, body.Clients)
}
