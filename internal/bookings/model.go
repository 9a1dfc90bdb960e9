package bookings

import (
	"strings"
	"time"
)

// BookingType distinguishes medicine pickups from consultations.
type BookingType string

const (
	TypeMedicine    BookingType = "medicine"
	TypeAppointment BookingType = "appointment"
)

// Status is the booking lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Category groups bookings by condition or product family.
type Category string

// Categories lists every accepted category. CategoryOther is the default.
var Categories = []Category{
	"Antibiotic", "Antifungal", "Steroid", "Moisturizer", "Pain Relief",
	"Antihistamine", "Vitamin", "Topical Treatment", CategoryOther, "Fever",
	"Cough", "Cold", "Headache", "Stomach", "Allergy",
	"Skin", "Pain", "Breathing", "Infection", "Eye",
	"Ear", "Throat", "Dental", "Mental Health", "General",
}

const CategoryOther Category = "Other"

// Valid reports whether c is one of Categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Valid reports whether t is medicine or appointment.
func (t BookingType) Valid() bool {
	return t == TypeMedicine || t == TypeAppointment
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Booking is a scheduled medicine pickup or appointment.
type Booking struct {
	ID               string      `json:"id"`
	UserID           string      `json:"user_id"`
	OintmentType     string      `json:"ointment_type"`
	BookingType      BookingType `json:"booking_type"`
	Category         Category    `json:"category"`
	AppointmentDate  time.Time   `json:"appointment_date"`
	AppointmentTime  string      `json:"appointment_time"`
	Description      string      `json:"description,omitempty"`
	Status           Status      `json:"status"`
	NotificationSent bool        `json:"notification_sent"`
	CreatedAt        time.Time   `json:"created_at"`
}

// CreateBookingRequest is the body of POST /api/bookings.
type CreateBookingRequest struct {
	UserID          string      `json:"-"`
	OintmentType    string      `json:"ointment_type"`
	BookingType     BookingType `json:"booking_type"`
	Category        Category    `json:"category"`
	AppointmentDate string      `json:"appointment_date"`
	AppointmentTime string      `json:"appointment_time"`
	Description     string      `json:"description"`
}

// Validate fills defaults and converts the request into a pending booking.
func (r *CreateBookingRequest) Validate() (*Booking, error) {
	b := &Booking{
		UserID:          r.UserID,
		OintmentType:    strings.TrimSpace(r.OintmentType),
		BookingType:     r.BookingType,
		Category:        r.Category,
		AppointmentTime: strings.TrimSpace(r.AppointmentTime),
		Description:     strings.TrimSpace(r.Description),
		Status:          StatusPending,
	}
	if b.BookingType == "" {
		b.BookingType = TypeMedicine
	}
	if b.Category == "" {
		b.Category = CategoryOther
	}
	if b.OintmentType == "" {
		return nil, ErrInvalidOintmentType
	}
	if b.AppointmentTime == "" {
		return nil, ErrInvalidTime
	}
	if !b.BookingType.Valid() {
		return nil, ErrInvalidBookingType
	}
	if !b.Category.Valid() {
		return nil, ErrInvalidCategory
	}
	date, err := ParseAppointment(r.AppointmentDate, b.AppointmentTime)
	if err != nil {
		return nil, err
	}
	b.AppointmentDate = date
	return b, nil
}

// UpdateBookingRequest is the body of PUT /api/bookings/{id}. Nil fields are
// left unchanged.
type UpdateBookingRequest struct {
	OintmentType    *string      `json:"ointment_type"`
	BookingType     *BookingType `json:"booking_type"`
	Category        *Category    `json:"category"`
	AppointmentDate *string      `json:"appointment_date"`
	AppointmentTime *string      `json:"appointment_time"`
	Description     *string      `json:"description"`
	Status          *Status      `json:"status"`
}

// Apply validates the changes and writes them onto b. b is untouched on error.
func (r *UpdateBookingRequest) Apply(b *Booking) error {
	next := *b
	if r.OintmentType != nil {
		next.OintmentType = strings.TrimSpace(*r.OintmentType)
		if next.OintmentType == "" {
			return ErrInvalidOintmentType
		}
	}
	if r.BookingType != nil {
		if !r.BookingType.Valid() {
			return ErrInvalidBookingType
		}
		next.BookingType = *r.BookingType
	}
	if r.Category != nil {
		if !r.Category.Valid() {
			return ErrInvalidCategory
		}
		next.Category = *r.Category
	}
	if r.Status != nil {
		if !r.Status.Valid() {
			return ErrInvalidStatus
		}
		next.Status = *r.Status
	}
	if r.Description != nil {
		next.Description = strings.TrimSpace(*r.Description)
	}
	if r.AppointmentTime != nil {
		next.AppointmentTime = strings.TrimSpace(*r.AppointmentTime)
		if next.AppointmentTime == "" {
			return ErrInvalidTime
		}
	}
	if r.AppointmentDate != nil || r.AppointmentTime != nil {
		raw := next.AppointmentDate.Format(dateLayout)
		if r.AppointmentDate != nil {
			raw = *r.AppointmentDate
		}
		date, err := ParseAppointment(raw, next.AppointmentTime)
		if err != nil {
			return err
		}
		if !date.Equal(next.AppointmentDate) {
			next.NotificationSent = false
		}
		next.AppointmentDate = date
	}
	*b = next
	return nil
}

const dateLayout = "2006-01-02"

var clockLayouts = []string{"15:04", "3:04 PM", "3:04PM", "3:04 pm", "3:04pm"}

// ParseAppointment resolves the instant of an appointment. A full RFC 3339
// timestamp is used as is. A bare date is combined with the clock time when
// the time parses as HH:MM or h:MM AM/PM, and otherwise means midnight UTC.
func ParseAppointment(date, clock string) (time.Time, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return time.Time{}, ErrInvalidDate
	}
	if ts, err := time.Parse(time.RFC3339, date); err == nil {
		return ts.UTC(), nil
	}
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	clock = strings.TrimSpace(clock)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, clock); err == nil {
			return day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute), nil
		}
	}
	return day, nil
}
