package chat

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/wolfman30/healthcare-assistant/internal/assistant"
)

var (
	// ErrSessionNotFound is returned for unknown, expired or foreign sessions.
	ErrSessionNotFound = errors.New("chat: session not found")

	// ErrEmptyMessage is returned when the user sends only whitespace.
	ErrEmptyMessage = errors.New("chat: message text is required")

	// ErrTurnInProgress is returned when a second message arrives before the
	// previous reply on the same session is ready.
	ErrTurnInProgress = errors.New("chat: a reply is still pending for this session")

	// ErrUnknownAction is returned for an unsupported quick action.
	ErrUnknownAction = errors.New("chat: unknown quick action")
)

// Role identifies who authored a chat message.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// ChatMessage is one line of the transcript.
type ChatMessage struct {
	ID        string           `json:"id"`
	Role      Role             `json:"role"`
	Text      string           `json:"text"`
	Intent    assistant.Intent `json:"intent,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Session is one widget conversation. Memory is owned by the session and only
// touched while its turn lock is held.
type Session struct {
	ID        string
	UserID    string
	Memory    *assistant.Memory
	History   []ChatMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

type sessionRecord struct {
	ID        string                       `json:"id"`
	UserID    string                       `json:"user_id"`
	Medicines []assistant.RecordedMedicine `json:"medicines"`
	History   []ChatMessage                `json:"history"`
	CreatedAt time.Time                    `json:"created_at"`
	UpdatedAt time.Time                    `json:"updated_at"`
}

// MarshalJSON snapshots the session including its recorded medicines.
func (s *Session) MarshalJSON() ([]byte, error) {
	rec := sessionRecord{
		ID:        s.ID,
		UserID:    s.UserID,
		History:   s.History,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if s.Memory != nil {
		rec.Medicines = s.Memory.All()
	}
	return json.Marshal(rec)
}

// UnmarshalJSON restores a snapshot written by MarshalJSON.
func (s *Session) UnmarshalJSON(data []byte) error {
	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*s = Session{
		ID:        rec.ID,
		UserID:    rec.UserID,
		Memory:    assistant.RestoreMemory(rec.Medicines),
		History:   rec.History,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	return nil
}

func (s *Session) clone() *Session {
	out := *s
	out.History = append([]ChatMessage(nil), s.History...)
	if s.Memory != nil {
		out.Memory = assistant.RestoreMemory(s.Memory.All())
	} else {
		out.Memory = assistant.NewMemory()
	}
	return &out
}
