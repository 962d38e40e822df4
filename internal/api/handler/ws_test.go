package handler_test

import (
	"devlinkr/backend/internal/models"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) models.OutboundEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	var ev models.OutboundEvent
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestServeWebSocket_RegisterRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	ann := dialWS(t, srv)
	require.NoError(t, ann.WriteJSON(map[string]any{"event": "register", "payload": "Ann@X.com"}))

	ev := readEvent(t, ann)
	assert.Equal(t, models.EventOnlineUsers, ev.Event)
	assert.Equal(t, []any{"ann@x.com"}, ev.Payload)

	bob := dialWS(t, srv)
	require.NoError(t, bob.WriteJSON(map[string]any{"event": "register", "payload": "bob@x.com"}))
	assert.Equal(t, []any{"ann@x.com", "bob@x.com"}, readEvent(t, bob).Payload)
	assert.Equal(t, []any{"ann@x.com", "bob@x.com"}, readEvent(t, ann).Payload)

	require.NoError(t, bob.WriteJSON(map[string]any{"event": "typing", "payload": "ann@x.com"}))
	ev = readEvent(t, ann)
	assert.Equal(t, models.EventTyping, ev.Event)
	assert.Equal(t, map[string]any{"from": "bob@x.com"}, ev.Payload)

	require.NoError(t, bob.Close())
	ev = readEvent(t, ann)
	assert.Equal(t, models.EventOnlineUsers, ev.Event)
	assert.Equal(t, []any{"ann@x.com"}, ev.Payload)
}

func TestServeWebSocket_RejectsUnknownOrigin(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", header)

	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
