package chat

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/healthcare-assistant/internal/assistant"
	"github.com/wolfman30/healthcare-assistant/internal/identity"
	"github.com/wolfman30/healthcare-assistant/pkg/logging"
)

// fakeAuth trusts the X-Test-User header in place of a bearer token.
func fakeAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := r.Header.Get("X-Test-User"); user != "" {
			r = r.WithContext(identity.WithUserID(r.Context(), user))
		}
		next.ServeHTTP(w, r)
	})
}

func newChatRouter(delay time.Duration) http.Handler {
	h := NewHandler(newTestService(), delay, logging.Discard())
	r := chi.NewRouter()
	r.Use(fakeAuth)
	r.Get("/api/chat/ws", h.HandleWebSocket)
	r.Post("/api/chat/sessions", h.StartSession)
	r.Post("/api/chat/sessions/{id}/messages", h.SendMessage)
	r.Get("/api/chat/sessions/{id}/messages", h.History)
	r.Get("/api/chat/sessions/{id}/medicines", h.Medicines)
	r.Post("/api/chat/sessions/{id}/quick-actions/{action}", h.QuickAction)
	r.Delete("/api/chat/sessions/{id}", h.EndSession)
	return r
}

func do(t *testing.T, router http.Handler, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if userID != "" {
		req.Header.Set("X-Test-User", userID)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func startSession(t *testing.T, router http.Handler, userID string) string {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/chat/sessions", userID, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp sessionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEmpty(t, resp.SessionID)
	require.Len(t, resp.Messages, 1)
	return resp.SessionID
}

func TestChatHandler_Flow(t *testing.T) {
	router := newChatRouter(0)
	id := startSession(t, router, "u1")
	base := "/api/chat/sessions/" + id

	rec := do(t, router, http.MethodPost, base+"/messages", "u1", `{"text":"Record Paracetamol 500mg twice daily"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var turn Turn
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&turn))
	assert.Equal(t, assistant.IntentRecordMedicine, turn.Intent)
	require.NotNil(t, turn.Recorded)

	rec = do(t, router, http.MethodGet, base+"/medicines", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var meds struct {
		Medicines []assistant.RecordedMedicine `json:"medicines"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&meds))
	require.Len(t, meds.Medicines, 1)
	assert.Equal(t, "Paracetamol", meds.Medicines[0].Name)

	rec = do(t, router, http.MethodPost, base+"/quick-actions/emergency", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, base+"/messages", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var hist struct {
		Messages []ChatMessage `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&hist))
	assert.Len(t, hist.Messages, 5)

	rec = do(t, router, http.MethodDelete, base, "u1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, base+"/messages", "u1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatHandler_Errors(t *testing.T) {
	router := newChatRouter(0)
	id := startSession(t, router, "u1")
	base := "/api/chat/sessions/" + id

	tests := []struct {
		name   string
		method string
		path   string
		user   string
		body   string
		want   int
	}{
		{"no identity", http.MethodPost, "/api/chat/sessions", "", "", http.StatusUnauthorized},
		{"bad json", http.MethodPost, base + "/messages", "u1", "{", http.StatusBadRequest},
		{"empty text", http.MethodPost, base + "/messages", "u1", `{"text":"  "}`, http.StatusBadRequest},
		{"unknown action", http.MethodPost, base + "/quick-actions/dance", "u1", "", http.StatusBadRequest},
		{"unknown session", http.MethodGet, "/api/chat/sessions/nope/messages", "u1", "", http.StatusNotFound},
		{"other user", http.MethodGet, base + "/medicines", "u2", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, tt.method, tt.path, tt.user, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func dialChat(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/chat/ws" + query
	cfg, err := websocket.NewConfig(wsURL, srv.URL)
	require.NoError(t, err)
	cfg.Header.Set("X-Test-User", "u1")
	conn, err := websocket.DialConfig(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func TestChatHandler_WebSocket(t *testing.T) {
	srv := httptest.NewServer(newChatRouter(10 * time.Millisecond))
	defer srv.Close()

	conn := dialChat(t, srv, "")

	var frame OutboundFrame
	require.NoError(t, websocket.JSON.Receive(conn, &frame))
	require.Equal(t, "session", frame.Type)
	require.NotEmpty(t, frame.SessionID)
	require.Len(t, frame.Messages, 1)
	sessionID := frame.SessionID

	require.NoError(t, websocket.JSON.Send(conn, InboundFrame{Type: "ping"}))
	require.NoError(t, websocket.JSON.Receive(conn, &frame))
	assert.Equal(t, "pong", frame.Type)

	require.NoError(t, websocket.JSON.Send(conn, InboundFrame{Type: "message", Text: "record medicine Aspirin 81mg daily"}))
	require.NoError(t, websocket.JSON.Receive(conn, &frame))
	assert.Equal(t, "typing", frame.Type)

	frame = OutboundFrame{}
	require.NoError(t, websocket.JSON.Receive(conn, &frame))
	assert.Equal(t, "message", frame.Type)
	assert.Equal(t, RoleBot, frame.Role)
	assert.Equal(t, assistant.IntentRecordMedicine, frame.Intent)
	require.NotNil(t, frame.Recorded)
	assert.Equal(t, "Aspirin", frame.Recorded.Name)

	// reconnecting to the same session replays the transcript
	again := dialChat(t, srv, "?session="+sessionID)
	var resumed OutboundFrame
	require.NoError(t, websocket.JSON.Receive(again, &resumed))
	assert.Equal(t, "session", resumed.Type)
	assert.Len(t, resumed.Messages, 3)
}

func TestChatHandler_WebSocketUnknownSession(t *testing.T) {
	srv := httptest.NewServer(newChatRouter(0))
	defer srv.Close()

	conn := dialChat(t, srv, "?session=missing")
	var frame OutboundFrame
	require.NoError(t, websocket.JSON.Receive(conn, &frame))
	assert.Equal(t, "error", frame.Type)
	assert.Equal(t, "session not found", frame.Text)
}

// allowN lets the first n frames per user through.
type allowN struct {
	n    int
	seen map[string]int
}

func (a *allowN) AllowUser(userID string) (bool, time.Duration) {
	a.seen[userID]++
	return a.seen[userID] <= a.n, time.Second
}

func TestChatHandler_WebSocketFramesAreRateLimited(t *testing.T) {
	h := NewHandler(newTestService(), 0, logging.Discard())
	limiter := &allowN{n: 1, seen: map[string]int{}}
	h.LimitFrames(limiter)
	r := chi.NewRouter()
	r.Use(fakeAuth)
	r.Get("/api/chat/ws", h.HandleWebSocket)
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn := dialChat(t, srv, "")
	var frame OutboundFrame
	require.NoError(t, websocket.JSON.Receive(conn, &frame))
	require.Equal(t, "session", frame.Type)

	require.NoError(t, websocket.JSON.Send(conn, InboundFrame{Type: "message", Text: "hello"}))
	require.NoError(t, websocket.JSON.Receive(conn, &frame))
	assert.Equal(t, "typing", frame.Type)
	frame = OutboundFrame{}
	require.NoError(t, websocket.JSON.Receive(conn, &frame))
	assert.Equal(t, "message", frame.Type)

	require.NoError(t, websocket.JSON.Send(conn, InboundFrame{Type: "message", Text: "hello again"}))
	frame = OutboundFrame{}
	require.NoError(t, websocket.JSON.Receive(conn, &frame))
	assert.Equal(t, "error", frame.Type)
	assert.Equal(t, errRateLimitedText, frame.Text)

	// pings are not metered
	require.NoError(t, websocket.JSON.Send(conn, InboundFrame{Type: "ping"}))
	require.NoError(t, websocket.JSON.Receive(conn, &frame))
	assert.Equal(t, "pong", frame.Type)
	assert.Equal(t, 2, limiter.seen["u1"])
}
