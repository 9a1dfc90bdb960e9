package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wolfman30/healthcare-assistant/internal/alerts"
	"github.com/wolfman30/healthcare-assistant/internal/auth"
	"github.com/wolfman30/healthcare-assistant/internal/bookings"
	"github.com/wolfman30/healthcare-assistant/internal/notify"
	"github.com/wolfman30/healthcare-assistant/internal/observability/metrics"
	"github.com/wolfman30/healthcare-assistant/pkg/logging"
)

// DefaultWindow is how far ahead the sweep looks for appointments.
const DefaultWindow = 15 * time.Minute

// BookingStore is the slice of the booking repository the sweep needs.
type BookingStore interface {
	ListDueForReminder(ctx context.Context, from, to time.Time) ([]*bookings.Booking, error)
	MarkNotificationSent(ctx context.Context, id string) (bool, error)
}

// AlertCreator raises the in-app reminder alert.
type AlertCreator interface {
	Create(ctx context.Context, req *alerts.CreateAlertRequest) (*alerts.Alert, error)
}

// UserLookup resolves the booking owner's contact details.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*auth.User, error)
}

// Mailer delivers a reminder email.
type Mailer interface {
	Send(ctx context.Context, rem notify.Reminder) error
}

// Sweeper flags bookings that start soon and notifies their owners.
type Sweeper struct {
	bookings BookingStore
	alerts   AlertCreator
	users    UserLookup
	mailer   Mailer
	metrics  *metrics.ReminderMetrics
	window   time.Duration
	now      func() time.Time
	logger   *logging.Logger
}

// Option customizes a Sweeper.
type Option func(*Sweeper)

// WithWindow overrides DefaultWindow.
func WithWindow(d time.Duration) Option {
	return func(s *Sweeper) {
		if d > 0 {
			s.window = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) { s.now = now }
}

// WithMetrics records sweep outcomes.
func WithMetrics(m *metrics.ReminderMetrics) Option {
	return func(s *Sweeper) { s.metrics = m }
}

// WithEmail enables reminder emails to the booking owner.
func WithEmail(users UserLookup, mailer Mailer) Option {
	return func(s *Sweeper) {
		s.users = users
		s.mailer = mailer
	}
}

// NewSweeper creates a reminder sweeper. alerts may be nil.
func NewSweeper(store BookingStore, alertStore AlertCreator, logger *logging.Logger, opts ...Option) *Sweeper {
	if store == nil {
		panic("reminders: booking store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Sweeper{
		bookings: store,
		alerts:   alertStore,
		window:   DefaultWindow,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes every booking whose appointment falls in [now, now+window]
// and has not been reminded yet. It returns how many bookings it flagged.
// A failure on one booking is logged and does not stop the sweep.
func (s *Sweeper) Run(ctx context.Context) (int, error) {
	start := s.now().UTC()
	due, err := s.bookings.ListDueForReminder(ctx, start, start.Add(s.window))
	if err != nil {
		s.metrics.ObserveSweep("error", time.Since(start).Seconds())
		return 0, fmt.Errorf("reminders: list due: %w", err)
	}

	processed := 0
	for _, b := range due {
		if err := ctx.Err(); err != nil {
			s.metrics.ObserveSweep("cancelled", time.Since(start).Seconds())
			return processed, err
		}
		ok, err := s.processOne(ctx, b)
		if err != nil {
			s.logger.Error("reminders: failed to process booking", "booking_id", b.ID, "error", err)
			s.metrics.ObserveReminder("failed")
			continue
		}
		if !ok {
			s.metrics.ObserveReminder("skipped")
			continue
		}
		processed++
	}

	s.metrics.ObserveSweep("ok", time.Since(start).Seconds())
	if processed > 0 {
		s.logger.Info("reminders: sweep complete", "due", len(due), "notified", processed)
	}
	return processed, nil
}

func (s *Sweeper) processOne(ctx context.Context, b *bookings.Booking) (bool, error) {
	claimed, err := s.bookings.MarkNotificationSent(ctx, b.ID)
	if err != nil {
		return false, fmt.Errorf("mark sent: %w", err)
	}
	if !claimed {
		return false, nil
	}
	s.logger.Info("upcoming appointment reminder", "booking_id", b.ID, "user_id", b.UserID, "appointment_date", b.AppointmentDate)
	s.metrics.ObserveReminder("notified")

	if s.alerts != nil {
		if _, err := s.alerts.Create(ctx, reminderAlert(b)); err != nil {
			s.logger.Error("reminders: failed to create alert", "booking_id", b.ID, "error", err)
			s.metrics.ObserveReminder("alert_failed")
		}
	}
	s.email(ctx, b)
	return true, nil
}

func (s *Sweeper) email(ctx context.Context, b *bookings.Booking) {
	if s.users == nil || s.mailer == nil {
		return
	}
	user, err := s.users.GetByID(ctx, b.UserID)
	if err != nil {
		if !errors.Is(err, auth.ErrUserNotFound) {
			s.logger.Error("reminders: failed to load user", "user_id", b.UserID, "error", err)
		}
		return
	}
	if user.Email == "" {
		return
	}
	err = s.mailer.Send(ctx, notify.Reminder{
		To:            user.Email,
		ToName:        user.Name,
		Subject:       b.OintmentType,
		IsAppointment: b.BookingType == bookings.TypeAppointment,
		At:            b.AppointmentDate,
		Clock:         b.AppointmentTime,
	})
	if err != nil {
		s.logger.Error("reminders: failed to email reminder", "booking_id", b.ID, "error", err)
		s.metrics.ObserveReminder("email_failed")
		return
	}
	s.metrics.ObserveReminder("emailed")
}

func reminderAlert(b *bookings.Booking) *alerts.CreateAlertRequest {
	what := fmt.Sprintf("your %s medicine appointment", b.OintmentType)
	if b.BookingType == bookings.TypeAppointment {
		what = fmt.Sprintf("your appointment for %s", b.OintmentType)
	}
	return &alerts.CreateAlertRequest{
		UserID:   b.UserID,
		Type:     alerts.TypeReminder,
		Priority: alerts.PriorityHigh,
		Title:    "Upcoming Appointment Reminder",
		Message:  fmt.Sprintf("Reminder: %s starts at %s", what, b.AppointmentTime),
	}
}
