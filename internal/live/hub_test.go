package live

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Zachkp/folio/internal/store"
	"github.com/Zachkp/folio/internal/tracker"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeRecorder struct {
	mu    sync.Mutex
	views []store.View
	err   error
}

func (f *fakeRecorder) RecordView(_ context.Context, v store.View) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.views = append(f.views, v)
	return nil
}

func (f *fakeRecorder) recorded() []store.View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.View(nil), f.views...)
}

type testServer struct {
	hub    *Hub
	server *httptest.Server
	url    string
}

func newTestServer(t *testing.T, rec Recorder) *testServer {
	t.Helper()
	hub := NewHub(Options{
		Tracker:  tracker.Options{Cooldown: time.Minute},
		Recorder: rec,
	})
	server := httptest.NewServer(hub)
	return &testServer{
		hub:    hub,
		server: server,
		url:    "ws" + strings.TrimPrefix(server.URL, "http"),
	}
}

func (ts *testServer) shutdown() {
	ts.hub.Close()
	ts.server.Close()
}

func dial(t *testing.T, url string) (*websocket.Conn, string) {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	hello := read(t, conn)
	require.Equal(t, MsgHello, hello.Type)
	require.NotEmpty(t, hello.SessionID)
	return conn, hello.SessionID
}

func read(t *testing.T, conn *websocket.Conn) ServerMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg ServerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func write(t *testing.T, conn *websocket.Conn, msg ClientMessage) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

func TestSessionScrollAndSelect(t *testing.T) {
	rec := &fakeRecorder{}
	ts := newTestServer(t, rec)
	defer ts.shutdown()

	conn, sid := dial(t, ts.url)
	defer conn.Close()

	// Viewport 1000 with 40% margins leaves the band [400, 600].
	write(t, conn, ClientMessage{Type: MsgRegister, ID: "a", Top: 0, Height: 350})
	write(t, conn, ClientMessage{Type: MsgRegister, ID: "b", Top: 350, Height: 300})
	write(t, conn, ClientMessage{Type: MsgRegister, ID: "c", Top: 650, Height: 300})
	write(t, conn, ClientMessage{Type: MsgScroll, Offset: 0, ViewportHeight: 1000})

	msg := read(t, conn)
	assert.Equal(t, ServerMessage{Type: MsgActive, SessionID: sid, ID: "b", Source: "auto"}, msg)

	write(t, conn, ClientMessage{Type: MsgSelect, ID: "c"})
	msg = read(t, conn)
	assert.Equal(t, "c", msg.ID)
	assert.Equal(t, "manual", msg.Source)

	// Suppressed: browser entries are ignored during the cooldown.
	write(t, conn, ClientMessage{Type: MsgEntries, Entries: []tracker.Event{{ID: "a", Intersecting: true, Ratio: 0.9}}})
	write(t, conn, ClientMessage{Type: MsgSelect, ID: ""})
	msg = read(t, conn)
	assert.Equal(t, MsgActive, msg.Type)
	assert.Equal(t, "", msg.ID)
	assert.Equal(t, "manual", msg.Source)

	assert.Equal(t, []store.View{
		{SessionID: sid, RegionID: "b", Source: "auto"},
		{SessionID: sid, RegionID: "c", Source: "manual"},
	}, rec.recorded())
}

func TestSessionEntries(t *testing.T) {
	ts := newTestServer(t, nil)
	defer ts.shutdown()

	conn, _ := dial(t, ts.url)
	defer conn.Close()

	write(t, conn, ClientMessage{Type: MsgRegister, ID: "x", Height: 100})
	write(t, conn, ClientMessage{Type: MsgRegister, ID: "y", Top: 100, Height: 100})
	write(t, conn, ClientMessage{Type: MsgEntries, Entries: []tracker.Event{
		{ID: "x", Intersecting: true, Ratio: 0.4},
		{ID: "y", Intersecting: true, Ratio: 0.7},
		{ID: "ghost", Intersecting: true, Ratio: 1},
	}})

	msg := read(t, conn)
	assert.Equal(t, "y", msg.ID)
	assert.Equal(t, "auto", msg.Source)

	// Unregistering the active card clears it.
	write(t, conn, ClientMessage{Type: MsgUnregister, ID: "y"})
	msg = read(t, conn)
	assert.Equal(t, "", msg.ID)
	assert.Equal(t, "unregister", msg.Source)
}

func TestSessionEntriesRejectsOutOfRangeRatio(t *testing.T) {
	ts := newTestServer(t, nil)
	defer ts.shutdown()

	conn, _ := dial(t, ts.url)
	defer conn.Close()

	write(t, conn, ClientMessage{Type: MsgRegister, ID: "x", Height: 100})
	write(t, conn, ClientMessage{Type: MsgRegister, ID: "y", Top: 100, Height: 100})

	for _, ratio := range []float64{5, -1} {
		write(t, conn, ClientMessage{Type: MsgEntries, Entries: []tracker.Event{
			{ID: "x", Intersecting: true, Ratio: 0.3},
			{ID: "y", Intersecting: true, Ratio: ratio},
		}})
		msg := read(t, conn)
		assert.Equal(t, MsgError, msg.Type)
		assert.Contains(t, msg.Message, `ratio for "y"`)
	}

	// The rejected batches were not applied.
	write(t, conn, ClientMessage{Type: MsgEntries, Entries: []tracker.Event{
		{ID: "x", Intersecting: true, Ratio: 0.6},
	}})
	msg := read(t, conn)
	assert.Equal(t, MsgActive, msg.Type)
	assert.Equal(t, "x", msg.ID)
}

func TestSessionErrors(t *testing.T) {
	ts := newTestServer(t, nil)
	defer ts.shutdown()

	conn, _ := dial(t, ts.url)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	msg := read(t, conn)
	assert.Equal(t, MsgError, msg.Type)
	assert.Equal(t, "invalid message format", msg.Message)

	write(t, conn, ClientMessage{Type: "dance"})
	msg = read(t, conn)
	assert.Equal(t, MsgError, msg.Type)
	assert.Contains(t, msg.Message, "unknown message type")

	write(t, conn, ClientMessage{Type: MsgSelect, ID: "missing"})
	msg = read(t, conn)
	assert.Equal(t, MsgError, msg.Type)
	assert.Contains(t, msg.Message, "unknown region")

	write(t, conn, ClientMessage{Type: MsgRegister, ID: ""})
	msg = read(t, conn)
	assert.Equal(t, MsgError, msg.Type)

	write(t, conn, ClientMessage{Type: MsgScroll, ViewportHeight: 0})
	msg = read(t, conn)
	assert.Equal(t, MsgError, msg.Type)
}

func TestSessionPause(t *testing.T) {
	ts := newTestServer(t, nil)
	defer ts.shutdown()

	conn, _ := dial(t, ts.url)
	defer conn.Close()

	write(t, conn, ClientMessage{Type: MsgRegister, ID: "a", Top: 450, Height: 100})
	write(t, conn, ClientMessage{Type: MsgRegister, ID: "b", Top: 2000, Height: 100})
	write(t, conn, ClientMessage{Type: MsgPause})
	write(t, conn, ClientMessage{Type: MsgScroll, ViewportHeight: 1000})
	write(t, conn, ClientMessage{Type: MsgResume})
	write(t, conn, ClientMessage{Type: MsgScroll, Offset: 1600, ViewportHeight: 1000})

	// The paused scroll produced nothing; the first push is from the resumed one.
	msg := read(t, conn)
	assert.Equal(t, "b", msg.ID)
}

func TestRecorderFailureStillPushes(t *testing.T) {
	ts := newTestServer(t, &fakeRecorder{err: errors.New("disk full")})
	defer ts.shutdown()

	conn, _ := dial(t, ts.url)
	defer conn.Close()

	write(t, conn, ClientMessage{Type: MsgRegister, ID: "a", Height: 10})
	write(t, conn, ClientMessage{Type: MsgSelect, ID: "a"})
	msg := read(t, conn)
	assert.Equal(t, "a", msg.ID)
}

func TestHubClose(t *testing.T) {
	ts := newTestServer(t, nil)
	defer ts.server.Close()

	c1, s1 := dial(t, ts.url)
	defer c1.Close()
	c2, s2 := dial(t, ts.url)
	defer c2.Close()
	assert.NotEqual(t, s1, s2)
	assert.Equal(t, 2, ts.hub.Len())

	ts.hub.Close()
	assert.Equal(t, 0, ts.hub.Len())

	for _, c := range []*websocket.Conn{c1, c2} {
		require.NoError(t, c.SetReadDeadline(time.Now().Add(5*time.Second)))
		_, _, err := c.ReadMessage()
		assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	}

	_, resp, err := websocket.DefaultDialer.Dial(ts.url, nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()

	// Closing twice is harmless.
	ts.hub.Close()
}

func TestClientDisconnectRemovesSession(t *testing.T) {
	ts := newTestServer(t, nil)
	defer ts.shutdown()

	conn, _ := dial(t, ts.url)
	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")))
	conn.Close()

	assert.Eventually(t, func() bool { return ts.hub.Len() == 0 }, 5*time.Second, 10*time.Millisecond)
}
