package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romcheg/offline-cards/internal/comm"
	"github.com/romcheg/offline-cards/internal/notifysvc/handlers"
	"github.com/romcheg/offline-cards/internal/notifysvc/ws"
)

var tokenAuth = jwtauth.New("HS256", []byte("test-secret"), nil)

func startServer(t *testing.T) (*ws.Ws, *httptest.Server) {
	t.Helper()
	s := ws.NewWs()
	r := chi.NewRouter()
	SetRoutes(r, handlers.NewHandler(s, "8081"), tokenAuth)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return s, srv
}

func testToken(t *testing.T) string {
	t.Helper()
	_, token, err := tokenAuth.Encode(map[string]interface{}{"service_id": "test"})
	require.NoError(t, err)
	return token
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws"
}

// dial connects with the token in the query string, as a browser would.
func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv)+"?jwt="+testToken(t), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSocketNeedsToken(t *testing.T) {
	s, srv := startServer(t)

	_, rsp, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, rsp)
	assert.Equal(t, http.StatusUnauthorized, rsp.StatusCode)

	_, rsp, err = websocket.DefaultDialer.Dial(wsURL(srv)+"?jwt=not-a-token", nil)
	require.Error(t, err)
	require.NotNil(t, rsp)
	assert.Equal(t, http.StatusUnauthorized, rsp.StatusCode)

	assert.Equal(t, 0, s.Count())
}

func TestSocketAcceptsBearerHeader(t *testing.T) {
	s, srv := startServer(t)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+testToken(t))
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return s.Count() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestBroadcastReachesClients(t *testing.T) {
	s, srv := startServer(t)
	a := dial(t, srv)
	b := dial(t, srv)
	require.Eventually(t, func() bool { return s.Count() == 2 }, 2*time.Second, 10*time.Millisecond)

	data, err := json.Marshal(comm.CardsChanged{Inserted: []string{"123"}})
	require.NoError(t, err)
	sent := s.Broadcast(&comm.WSMessage{Type: comm.TypeCardsChanged, Data: data})
	assert.Equal(t, 2, sent)

	for _, conn := range []*websocket.Conn{a, b} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg comm.WSMessage
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, comm.TypeCardsChanged, msg.Type)

		var ev comm.CardsChanged
		require.NoError(t, json.Unmarshal(msg.Data, &ev))
		assert.Equal(t, []string{"123"}, ev.Inserted)
	}
}

func TestPingPong(t *testing.T) {
	_, srv := startServer(t)
	conn := dial(t, srv)

	require.NoError(t, conn.WriteJSON(comm.WSMessage{Type: "ping"}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg comm.WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "pong", msg.Type)
	assert.NotEmpty(t, msg.SocketId)
}

func TestDisconnectForgetsSocket(t *testing.T) {
	s, srv := startServer(t)
	conn := dial(t, srv)
	require.Eventually(t, func() bool { return s.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return s.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHealth(t *testing.T) {
	_, srv := startServer(t)
	rsp, err := http.Get(srv.URL + "/v1/health")
	require.NoError(t, err)
	defer rsp.Body.Close()
	assert.Equal(t, http.StatusOK, rsp.StatusCode)
}
