package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/queue-tracker-api/models"
)

func startServer(t *testing.T) (*httptest.Server, *Hub, *memStates) {
	t.Helper()
	hub := NewHub()
	states := &memStates{}
	r := New(states, &memLogs{}, hub, Options{AccessKey: "team-secret"})
	handler := NewWebSocketHandler(hub, r, func(*http.Request) bool { return true }, 1<<20)

	srv := httptest.NewServer(handler)
	t.Cleanup(func() {
		srv.Close()
		_ = hub.Shutdown(time.Second)
		r.Close()
	})
	return srv, hub, states
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) models.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env models.Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func send(t *testing.T, conn *websocket.Conn, event string, data interface{}) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame(t, event, data)))
}

func TestHub_SyncBetweenClients(t *testing.T) {
	srv, hub, states := startServer(t)

	alice := dial(t, srv)
	env := readEnvelope(t, alice)
	assert.Equal(t, models.EventPresenceUpdated, env.Event)
	assert.JSONEq(t, `[]`, string(env.Data))

	bob := dial(t, srv)
	assert.Equal(t, models.EventPresenceUpdated, readEnvelope(t, bob).Event)
	assert.Equal(t, models.EventPresenceUpdated, readEnvelope(t, alice).Event)
	assert.Equal(t, 2, hub.ClientCount())

	send(t, alice, models.EventJoin, models.JoinRequest{Username: "alice", AccessKey: "team-secret"})

	for _, conn := range []*websocket.Conn{alice, bob} {
		env = readEnvelope(t, conn)
		assert.Equal(t, models.EventPresenceUpdated, env.Event)
		assert.JSONEq(t, `["alice"]`, string(env.Data))
	}
	env = readEnvelope(t, alice)
	assert.Equal(t, models.EventInit, env.Event)
	assert.JSONEq(t, `{"key":"global","agents":[],"roster":[],"stats":[]}`, string(env.Data))

	roster := []models.RosterEntry{{AgentID: "1", Date: "2026-01-05", Shift: models.ShiftMorning}}
	send(t, alice, models.EventUpdateRoster, roster)

	env = readEnvelope(t, bob)
	assert.Equal(t, models.EventRosterUpdated, env.Event)
	var got []models.RosterEntry
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, roster, got)

	// the sender gets no echo, so the next frame it sees answers get_presence
	send(t, alice, models.EventGetPresence, nil)
	env = readEnvelope(t, alice)
	assert.Equal(t, models.EventPresenceUpdated, env.Event)

	state, err := states.GetOrCreate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, roster, state.Roster)
}

func TestHub_UnauthenticatedWriteRejected(t *testing.T) {
	srv, _, states := startServer(t)

	conn := dial(t, srv)
	readEnvelope(t, conn)

	send(t, conn, models.EventJoin, models.JoinRequest{Username: "mallory", AccessKey: "nope"})
	env := readEnvelope(t, conn)
	assert.Equal(t, models.EventErrorMessage, env.Event)
	assert.JSONEq(t, `"Invalid Team Access Key. Access Denied."`, string(env.Data))

	send(t, conn, models.EventUpdateRoster, []models.RosterEntry{})
	env = readEnvelope(t, conn)
	assert.Equal(t, models.EventErrorMessage, env.Event)
	assert.Empty(t, states.writes)
}

func TestHub_DisconnectUpdatesPresence(t *testing.T) {
	srv, hub, _ := startServer(t)

	alice := dial(t, srv)
	readEnvelope(t, alice)
	bob := dial(t, srv)
	readEnvelope(t, bob)
	readEnvelope(t, alice)

	send(t, bob, models.EventJoin, models.JoinRequest{Username: "bob", AccessKey: "team-secret"})
	readEnvelope(t, alice)

	require.NoError(t, bob.Close())

	env := readEnvelope(t, alice)
	assert.Equal(t, models.EventPresenceUpdated, env.Event)
	assert.JSONEq(t, `[]`, string(env.Data))
	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestHub_Shutdown(t *testing.T) {
	srv, hub, _ := startServer(t)

	conn := dial(t, srv)
	readEnvelope(t, conn)

	require.NoError(t, hub.Shutdown(time.Second))
	assert.Equal(t, 0, hub.ClientCount())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestHub_BinaryFramesCountAgainstRateLimit(t *testing.T) {
	srv, _, _ := startServer(t)

	conn := dial(t, srv)
	assert.Equal(t, models.EventPresenceUpdated, readEnvelope(t, conn).Event)

	for i := 0; i <= DefaultRateMax; i++ {
		require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{0x00, 0x01}))
	}

	var messages []string
	for i := 0; i <= DefaultRateMax; i++ {
		env := readEnvelope(t, conn)
		require.Equal(t, models.EventErrorMessage, env.Event)
		var msg string
		require.NoError(t, json.Unmarshal(env.Data, &msg))
		messages = append(messages, msg)
	}
	assert.Equal(t, MsgInvalidFrame, messages[0])
	assert.Equal(t, MsgRateExceeded, messages[DefaultRateMax])
}
