package bookings

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository persists bookings. User-facing calls are scoped to a user; the
// reminder calls span every user.
type Repository interface {
	Create(ctx context.Context, booking *Booking) (*Booking, error)
	List(ctx context.Context, userID string) ([]*Booking, error)
	Get(ctx context.Context, userID, id string) (*Booking, error)
	Update(ctx context.Context, booking *Booking) (*Booking, error)
	Delete(ctx context.Context, userID, id string) error
	ListUpcoming(ctx context.Context, userID string, from, to time.Time, statuses []Status) ([]*Booking, error)
	ListDueForReminder(ctx context.Context, from, to time.Time) ([]*Booking, error)
	MarkNotificationSent(ctx context.Context, id string) (bool, error)
}

// InMemoryRepository stores bookings in process memory.
type InMemoryRepository struct {
	mu       sync.RWMutex
	bookings map[string]*Booking
	now      func() time.Time
}

// NewInMemoryRepository creates an empty booking store.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		bookings: make(map[string]*Booking),
		now:      time.Now,
	}
}

// Create stores a validated booking, assigning id and creation time.
func (r *InMemoryRepository) Create(ctx context.Context, booking *Booking) (*Booking, error) {
	stored := *booking
	stored.ID = uuid.New().String()
	stored.CreatedAt = r.now().UTC()

	r.mu.Lock()
	r.bookings[stored.ID] = &stored
	r.mu.Unlock()

	out := stored
	return &out, nil
}

// List returns the user's bookings ordered by appointment date ascending.
func (r *InMemoryRepository) List(ctx context.Context, userID string) ([]*Booking, error) {
	return r.filter(func(b *Booking) bool { return b.UserID == userID }), nil
}

// Get returns one of the user's bookings.
func (r *InMemoryRepository) Get(ctx context.Context, userID, id string) (*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bookings[id]
	if !ok || b.UserID != userID {
		return nil, ErrBookingNotFound
	}
	out := *b
	return &out, nil
}

// Update overwrites the mutable fields of an existing booking.
func (r *InMemoryRepository) Update(ctx context.Context, booking *Booking) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.bookings[booking.ID]
	if !ok || existing.UserID != booking.UserID {
		return nil, ErrBookingNotFound
	}
	stored := *booking
	stored.CreatedAt = existing.CreatedAt
	r.bookings[booking.ID] = &stored
	out := stored
	return &out, nil
}

// Delete removes one of the user's bookings.
func (r *InMemoryRepository) Delete(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.UserID != userID {
		return ErrBookingNotFound
	}
	delete(r.bookings, id)
	return nil
}

// ListUpcoming returns the user's bookings in [from, to] whose status is in statuses.
func (r *InMemoryRepository) ListUpcoming(ctx context.Context, userID string, from, to time.Time, statuses []Status) ([]*Booking, error) {
	return r.filter(func(b *Booking) bool {
		return b.UserID == userID && inWindow(b.AppointmentDate, from, to) && hasStatus(b.Status, statuses)
	}), nil
}

// ListDueForReminder returns unnotified bookings of any user in [from, to].
func (r *InMemoryRepository) ListDueForReminder(ctx context.Context, from, to time.Time) ([]*Booking, error) {
	return r.filter(func(b *Booking) bool {
		return !b.NotificationSent && inWindow(b.AppointmentDate, from, to)
	}), nil
}

// MarkNotificationSent flags a booking as reminded. It returns false when the
// booking was already flagged, so concurrent sweeps notify at most once.
func (r *InMemoryRepository) MarkNotificationSent(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return false, ErrBookingNotFound
	}
	if b.NotificationSent {
		return false, nil
	}
	b.NotificationSent = true
	return true, nil
}

func (r *InMemoryRepository) filter(keep func(*Booking) bool) []*Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Booking, 0)
	for _, b := range r.bookings {
		if keep(b) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AppointmentDate.Equal(out[j].AppointmentDate) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].AppointmentDate.Before(out[j].AppointmentDate)
	})
	return out
}

func inWindow(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}

func hasStatus(s Status, statuses []Status) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, want := range statuses {
		if s == want {
			return true
		}
	}
	return false
}
