package bookings

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/healthcare-assistant/internal/alerts"
	"github.com/wolfman30/healthcare-assistant/pkg/logging"
)

var bookingsTracer = otel.Tracer("healthcare.internal.bookings")

// AlertCreator raises the confirmation alert for a new booking.
type AlertCreator interface {
	Create(ctx context.Context, req *alerts.CreateAlertRequest) (*alerts.Alert, error)
}

// Service owns booking use cases for the HTTP layer.
type Service struct {
	repo   Repository
	alerts AlertCreator
	logger *logging.Logger
}

// NewService constructs a bookings service. alerts may be nil.
func NewService(repo Repository, alerts AlertCreator, logger *logging.Logger) *Service {
	if repo == nil {
		panic("bookings: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, alerts: alerts, logger: logger}
}

// Create validates and stores a booking, then raises a confirmation alert.
// A failed alert is logged and does not fail the booking.
func (s *Service) Create(ctx context.Context, req *CreateBookingRequest) (*Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.create")
	defer span.End()
	span.SetAttributes(attribute.String("healthcare.user_id", req.UserID))

	booking, err := req.Validate()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	created, err := s.repo.Create(ctx, booking)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("healthcare.booking_id", created.ID),
		attribute.String("healthcare.booking_type", string(created.BookingType)),
	)
	s.logger.Info("booking created", "booking_id", created.ID, "user_id", created.UserID, "type", created.BookingType)

	s.raiseAlert(ctx, created)
	return created, nil
}

func (s *Service) raiseAlert(ctx context.Context, b *Booking) {
	if s.alerts == nil {
		return
	}
	if _, err := s.alerts.Create(ctx, bookingAlert(b)); err != nil {
		s.logger.Error("failed to create booking alert", "error", err, "booking_id", b.ID)
	}
}

func bookingAlert(b *Booking) *alerts.CreateAlertRequest {
	when := b.AppointmentDate.Format(dateLayout)
	if b.BookingType == TypeAppointment {
		return &alerts.CreateAlertRequest{
			UserID:   b.UserID,
			Type:     alerts.TypeAppointment,
			Priority: alerts.PriorityMedium,
			Title:    "New Appointment Booked",
			Message:  fmt.Sprintf("Your appointment for %s is scheduled for %s at %s", b.OintmentType, when, b.AppointmentTime),
		}
	}
	return &alerts.CreateAlertRequest{
		UserID:   b.UserID,
		Type:     alerts.TypeMedication,
		Priority: alerts.PriorityMedium,
		Title:    "New Medicine Appointment Booked",
		Message:  fmt.Sprintf("Your %s medicine appointment is scheduled for %s at %s", b.OintmentType, when, b.AppointmentTime),
	}
}

// List returns the user's bookings, soonest first.
func (s *Service) List(ctx context.Context, userID string) ([]*Booking, error) {
	return s.repo.List(ctx, userID)
}

// Get returns one booking owned by the user.
func (s *Service) Get(ctx context.Context, userID, id string) (*Booking, error) {
	return s.repo.Get(ctx, userID, id)
}

// Update applies a partial update. Moving the appointment re-arms its reminder.
func (s *Service) Update(ctx context.Context, userID, id string, req *UpdateBookingRequest) (*Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.update")
	defer span.End()
	span.SetAttributes(attribute.String("healthcare.booking_id", id))

	booking, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := req.Apply(booking); err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, booking)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.logger.Info("booking updated", "booking_id", id, "status", updated.Status)
	return updated, nil
}

// Delete removes a booking owned by the user.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.logger.Info("booking deleted", "booking_id", id, "user_id", userID)
	return nil
}

// Upcoming returns pending or confirmed bookings in the next window.
func (s *Service) Upcoming(ctx context.Context, userID string, now time.Time, window time.Duration) ([]*Booking, error) {
	return s.repo.ListUpcoming(ctx, userID, now, now.Add(window), []Status{StatusPending, StatusConfirmed})
}
