package alerts

import (
	"strings"
	"time"
)

// Type classifies what raised an alert.
type Type string

const (
	TypeEmergency   Type = "emergency"
	TypeAppointment Type = "appointment"
	TypeMedication  Type = "medication"
	TypeReminder    Type = "reminder"
	TypeGeneral     Type = "general"
)

// Priority orders alerts for the notification panel.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Valid reports whether t is a known alert type.
func (t Type) Valid() bool {
	switch t {
	case TypeEmergency, TypeAppointment, TypeMedication, TypeReminder, TypeGeneral:
		return true
	}
	return false
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Alert is a user-facing notice.
type Alert struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      Type      `json:"type"`
	Priority  Priority  `json:"priority"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateAlertRequest carries the fields needed to raise an alert.
type CreateAlertRequest struct {
	UserID   string   `json:"-"`
	Type     Type     `json:"type"`
	Priority Priority `json:"priority"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
}

// Validate fills defaults (general, medium) and checks the remaining fields.
func (r *CreateAlertRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Message = strings.TrimSpace(r.Message)
	if r.Type == "" {
		r.Type = TypeGeneral
	}
	if r.Priority == "" {
		r.Priority = PriorityMedium
	}
	if r.Title == "" {
		return ErrInvalidTitle
	}
	if r.Message == "" {
		return ErrInvalidMessage
	}
	if !r.Type.Valid() {
		return ErrInvalidType
	}
	if !r.Priority.Valid() {
		return ErrInvalidPriority
	}
	return nil
}
