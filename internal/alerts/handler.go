package alerts

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/healthcare-assistant/internal/identity"
	"github.com/wolfman30/healthcare-assistant/pkg/logging"
)

const (
	defaultEmergencyTitle   = "Emergency Alert"
	defaultEmergencyMessage = "Emergency situation reported"
)

// Handler serves the /api/alerts endpoints.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new alerts handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /api/alerts.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	alerts, err := h.repo.List(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list alerts", "error", err, "user_id", userID)
		http.Error(w, "failed to list alerts", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

// UnreadCount handles GET /api/alerts/unread/count.
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	count, err := h.repo.CountUnread(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to count alerts", "error", err, "user_id", userID)
		http.Error(w, "failed to count alerts", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

type emergencyRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Emergency handles POST /api/alerts/emergency. An empty body is allowed.
func (h *Handler) Emergency(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var body emergencyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.Title) == "" {
		body.Title = defaultEmergencyTitle
	}
	if strings.TrimSpace(body.Message) == "" {
		body.Message = defaultEmergencyMessage
	}

	alert, err := h.repo.Create(r.Context(), &CreateAlertRequest{
		UserID:   userID,
		Type:     TypeEmergency,
		Priority: PriorityCritical,
		Title:    body.Title,
		Message:  body.Message,
	})
	if err != nil {
		h.logger.Error("failed to create emergency alert", "error", err, "user_id", userID)
		http.Error(w, "failed to create alert", http.StatusInternalServerError)
		return
	}
	h.logger.Warn("emergency alert raised", "alert_id", alert.ID, "user_id", userID)
	writeJSON(w, http.StatusCreated, alert)
}

// MarkRead handles PUT /api/alerts/{id}/read.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.repo.MarkRead(r.Context(), userID, id); err != nil {
		h.writeError(w, err, "failed to update alert")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Alert marked as read"})
}

// MarkAllRead handles PUT /api/alerts/read-all.
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	n, err := h.repo.MarkAllRead(r.Context(), userID)
	if err != nil {
		h.writeError(w, err, "failed to update alerts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "All alerts marked as read", "updated": n})
}

// Delete handles DELETE /api/alerts/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.repo.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err, "failed to delete alert")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Alert deleted"})
}

func (h *Handler) writeError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, ErrAlertNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	h.logger.Error(msg, "error", err)
	http.Error(w, msg, http.StatusInternalServerError)
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
