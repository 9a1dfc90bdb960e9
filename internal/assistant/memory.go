package assistant

import (
	"strconv"
	"time"
)

// RecordedMedicine is one medication the user told the assistant about.
type RecordedMedicine struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Dosage     string    `json:"dosage,omitempty"`
	Frequency  string    `json:"frequency,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Memory is the append-only list of medicines recorded during one chat
// session. It is owned by a single session and is not safe for concurrent use.
type Memory struct {
	entries []RecordedMedicine
	lastID  int64
}

// NewMemory returns an empty conversation memory.
func NewMemory() *Memory {
	return &Memory{}
}

// RestoreMemory rebuilds a memory from a previously snapshotted entry list.
func RestoreMemory(entries []RecordedMedicine) *Memory {
	m := &Memory{entries: make([]RecordedMedicine, len(entries))}
	copy(m.entries, entries)
	for _, e := range entries {
		if id, err := strconv.ParseInt(e.ID, 10, 64); err == nil && id > m.lastID {
			m.lastID = id
		}
	}
	return m
}

// Add appends an entry. Recording the same medicine twice yields two entries.
func (m *Memory) Add(entry RecordedMedicine) {
	m.entries = append(m.entries, entry)
}

// All returns the entries in recording order.
func (m *Memory) All() []RecordedMedicine {
	out := make([]RecordedMedicine, len(m.entries))
	copy(out, m.entries)
	return out
}

// IsEmpty reports whether nothing has been recorded yet.
func (m *Memory) IsEmpty() bool {
	return len(m.entries) == 0
}

// Len returns the number of recorded entries.
func (m *Memory) Len() int {
	return len(m.entries)
}

// nextID derives an identifier from the creation instant, bumped so that two
// entries created within the same clock tick never collide.
func (m *Memory) nextID(now time.Time) string {
	id := now.UnixNano()
	if id <= m.lastID {
		id = m.lastID + 1
	}
	m.lastID = id
	return strconv.FormatInt(id, 10)
}

func (m *Memory) record(name, dosage string, now time.Time) RecordedMedicine {
	entry := RecordedMedicine{
		ID:         m.nextID(now),
		Name:       name,
		Dosage:     dosage,
		RecordedAt: now,
	}
	m.Add(entry)
	return entry
}
