package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/healthcare-assistant/internal/assistant"
	"github.com/wolfman30/healthcare-assistant/internal/identity"
	"github.com/wolfman30/healthcare-assistant/pkg/logging"
)

// Handler serves the chat widget over plain HTTP and WebSocket.
type Handler struct {
	service    *Service
	replyDelay time.Duration
	frames     FrameLimiter
	logger     *logging.Logger
}

// FrameLimiter meters socket messages per user. It should share buckets with
// whatever limits the REST chat routes.
type FrameLimiter interface {
	AllowUser(userID string) (bool, time.Duration)
}

// InboundFrame is what the widget sends over the socket.
type InboundFrame struct {
	Type string `json:"type"` // "message", "ping"
	Text string `json:"text"`
}

// OutboundFrame is what we send to the widget.
type OutboundFrame struct {
	Type      string                      `json:"type"` // "session", "typing", "message", "pong", "error"
	SessionID string                      `json:"session_id,omitempty"`
	Text      string                      `json:"text,omitempty"`
	Role      Role                        `json:"role,omitempty"`
	Intent    assistant.Intent            `json:"intent,omitempty"`
	Timestamp string                      `json:"timestamp,omitempty"`
	Messages  []ChatMessage               `json:"messages,omitempty"`
	Recorded  *assistant.RecordedMedicine `json:"recorded,omitempty"`
}

// NewHandler creates a chat handler. replyDelay only applies to the socket.
func NewHandler(service *Service, replyDelay time.Duration, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, replyDelay: replyDelay, logger: logger}
}

// LimitFrames applies l to every message frame received over the socket.
func (h *Handler) LimitFrames(l FrameLimiter) {
	h.frames = l
}

type sessionResponse struct {
	SessionID string        `json:"session_id"`
	Messages  []ChatMessage `json:"messages"`
}

// StartSession handles POST /api/chat/sessions.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	session, err := h.service.StartSession(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{SessionID: session.ID, Messages: session.History})
}

// SendMessage handles POST /api/chat/sessions/{id}/messages.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	turn, err := h.service.SendMessage(r.Context(), userID, chi.URLParam(r, "id"), req.Text)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

// QuickAction handles POST /api/chat/sessions/{id}/quick-actions/{action}.
func (h *Handler) QuickAction(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	action := QuickAction(chi.URLParam(r, "action"))
	turn, err := h.service.QuickAction(r.Context(), userID, chi.URLParam(r, "id"), action)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

// History handles GET /api/chat/sessions/{id}/messages.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	history, err := h.service.History(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": history})
}

// Medicines handles GET /api/chat/sessions/{id}/medicines.
func (h *Handler) Medicines(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	meds, err := h.service.Medicines(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"medicines": meds})
}

// EndSession handles DELETE /api/chat/sessions/{id}.
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.service.EndSession(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleWebSocket upgrades to WebSocket and runs turns in real time. A
// missing session parameter opens a new session.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r, userID)
	}).ServeHTTP(w, r)
}

const errRateLimitedText = "You're sending messages too quickly. Please wait a moment and try again."

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request, userID string) {
	ctx := r.Context()
	sessionID := r.URL.Query().Get("session")

	var history []ChatMessage
	if sessionID == "" {
		session, err := h.service.StartSession(ctx, userID)
		if err != nil {
			_ = websocket.JSON.Send(conn, OutboundFrame{Type: "error", Text: "could not start a chat session"})
			return
		}
		sessionID, history = session.ID, session.History
	} else {
		var err error
		if history, err = h.service.History(ctx, userID, sessionID); err != nil {
			_ = websocket.JSON.Send(conn, OutboundFrame{Type: "error", Text: "session not found"})
			return
		}
	}

	_ = websocket.JSON.Send(conn, OutboundFrame{Type: "session", SessionID: sessionID, Messages: history})
	h.logger.Info("chat: connection opened", "session_id", sessionID, "user_id", userID)

	for {
		var frame InboundFrame
		if err := websocket.JSON.Receive(conn, &frame); err != nil {
			h.logger.Debug("chat: connection closed", "session_id", sessionID, "error", err)
			return
		}

		if frame.Type == "ping" {
			_ = websocket.JSON.Send(conn, OutboundFrame{Type: "pong"})
			continue
		}
		if frame.Type != "message" || strings.TrimSpace(frame.Text) == "" {
			continue
		}
		if h.frames != nil {
			if allowed, _ := h.frames.AllowUser(userID); !allowed {
				_ = websocket.JSON.Send(conn, OutboundFrame{Type: "error", SessionID: sessionID, Text: errRateLimitedText})
				continue
			}
		}

		_ = websocket.JSON.Send(conn, OutboundFrame{Type: "typing", SessionID: sessionID})
		turn, err := h.service.SendMessageAfter(ctx, userID, sessionID, frame.Text, h.replyDelay)
		if err != nil {
			_ = websocket.JSON.Send(conn, OutboundFrame{Type: "error", SessionID: sessionID, Text: errorText(err)})
			if errors.Is(err, ErrSessionNotFound) {
				return
			}
			continue
		}
		_ = websocket.JSON.Send(conn, OutboundFrame{
			Type:      "message",
			SessionID: sessionID,
			Role:      RoleBot,
			Text:      turn.Reply.Text,
			Intent:    turn.Intent,
			Timestamp: turn.Reply.Timestamp.Format(time.RFC3339),
			Recorded:  turn.Recorded,
		})
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		http.Error(w, errorText(err), http.StatusNotFound)
	case errors.Is(err, ErrEmptyMessage), errors.Is(err, ErrUnknownAction):
		http.Error(w, errorText(err), http.StatusBadRequest)
	case errors.Is(err, ErrTurnInProgress):
		http.Error(w, errorText(err), http.StatusConflict)
	default:
		h.logger.Error("chat: request failed", "error", err)
		http.Error(w, "Sorry, something went wrong. Please try again.", http.StatusInternalServerError)
	}
}

func errorText(err error) string {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return "session not found"
	case errors.Is(err, ErrEmptyMessage):
		return "message text is required"
	case errors.Is(err, ErrUnknownAction):
		return "unknown quick action"
	case errors.Is(err, ErrTurnInProgress):
		return "please wait for the previous reply"
	default:
		return "Sorry, something went wrong. Please try again."
	}
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}
	return userID, ok
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
