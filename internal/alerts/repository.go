package alerts

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository persists alerts. Every read and write is scoped to a user.
type Repository interface {
	Create(ctx context.Context, req *CreateAlertRequest) (*Alert, error)
	List(ctx context.Context, userID string) ([]*Alert, error)
	ListUnread(ctx context.Context, userID string, limit int) ([]*Alert, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, userID, id string) error
}

// InMemoryRepository stores alerts in process memory, oldest first.
type InMemoryRepository struct {
	mu     sync.RWMutex
	alerts []*Alert
	now    func() time.Time
}

// NewInMemoryRepository creates an empty alert store.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{now: time.Now}
}

// Create validates and stores a new unread alert.
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateAlertRequest) (*Alert, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	alert := &Alert{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		Type:      req.Type,
		Priority:  req.Priority,
		Title:     req.Title,
		Message:   req.Message,
		CreatedAt: r.now().UTC(),
	}

	r.mu.Lock()
	r.alerts = append(r.alerts, alert)
	r.mu.Unlock()

	out := *alert
	return &out, nil
}

// List returns the user's alerts, newest first.
func (r *InMemoryRepository) List(ctx context.Context, userID string) ([]*Alert, error) {
	return r.collect(userID, false, 0), nil
}

// ListUnread returns up to limit unread alerts, newest first. limit <= 0 means no limit.
func (r *InMemoryRepository) ListUnread(ctx context.Context, userID string, limit int) ([]*Alert, error) {
	return r.collect(userID, true, limit), nil
}

// CountUnread counts the user's unread alerts.
func (r *InMemoryRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	return len(r.collect(userID, true, 0)), nil
}

// MarkRead flags one alert as read.
func (r *InMemoryRepository) MarkRead(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.alerts {
		if a.ID == id && a.UserID == userID {
			a.IsRead = true
			return nil
		}
	}
	return ErrAlertNotFound
}

// MarkAllRead flags every unread alert of the user and returns how many changed.
func (r *InMemoryRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.alerts {
		if a.UserID == userID && !a.IsRead {
			a.IsRead = true
			n++
		}
	}
	return n, nil
}

// Delete removes one alert.
func (r *InMemoryRepository) Delete(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range r.alerts {
		if a.ID == id && a.UserID == userID {
			r.alerts = append(r.alerts[:i], r.alerts[i+1:]...)
			return nil
		}
	}
	return ErrAlertNotFound
}

func (r *InMemoryRepository) collect(userID string, unreadOnly bool, limit int) []*Alert {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Alert, 0)
	for i := len(r.alerts) - 1; i >= 0; i-- {
		a := r.alerts[i]
		if a.UserID != userID || (unreadOnly && a.IsRead) {
			continue
		}
		cp := *a
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
