package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/wolfman30/healthcare-assistant/internal/alerts"
	"github.com/wolfman30/healthcare-assistant/internal/bookings"
	"github.com/wolfman30/healthcare-assistant/internal/identity"
	"github.com/wolfman30/healthcare-assistant/pkg/logging"
)

const (
	unreadLimit    = 10
	upcomingWindow = 24 * time.Hour
)

// AlertLister is the slice of the alert store the panel reads.
type AlertLister interface {
	ListUnread(ctx context.Context, userID string, limit int) ([]*alerts.Alert, error)
}

// UpcomingLister returns active bookings inside a window.
type UpcomingLister interface {
	Upcoming(ctx context.Context, userID string, now time.Time, window time.Duration) ([]*bookings.Booking, error)
}

// Response is the payload of GET /api/notifications.
type Response struct {
	Alerts           []*alerts.Alert     `json:"alerts"`
	UpcomingBookings []*bookings.Booking `json:"upcoming_bookings"`
}

// Handler aggregates unread alerts and the next day's bookings.
type Handler struct {
	alerts   AlertLister
	bookings UpcomingLister
	now      func() time.Time
	logger   *logging.Logger
}

// NewHandler creates a notifications handler.
func NewHandler(alertStore AlertLister, bookingSvc UpcomingLister, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{alerts: alertStore, bookings: bookingSvc, now: time.Now, logger: logger}
}

// Get handles GET /api/notifications.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	unread, err := h.alerts.ListUnread(r.Context(), userID, unreadLimit)
	if err != nil {
		h.logger.Error("failed to list unread alerts", "error", err, "user_id", userID)
		http.Error(w, "failed to load notifications", http.StatusInternalServerError)
		return
	}
	upcoming, err := h.bookings.Upcoming(r.Context(), userID, h.now().UTC(), upcomingWindow)
	if err != nil {
		h.logger.Error("failed to list upcoming bookings", "error", err, "user_id", userID)
		http.Error(w, "failed to load notifications", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(Response{Alerts: unread, UpcomingBookings: upcoming})
}
