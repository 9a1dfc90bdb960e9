package assistant

import (
	"fmt"
	"strings"
	"time"
)

// RecordedAtLayout is how recording instants are shown to the user.
const RecordedAtLayout = "1/2/2006, 3:04:05 PM"

// Reply is the outcome of one chat turn.
type Reply struct {
	Intent Intent
	Text   string
	// Recorded is set when the turn appended a medicine to memory.
	Recorded *RecordedMedicine
}

type turn struct {
	raw    string
	lower  string
	memory *Memory
}

// rule is one (predicate, handler) pair. A handler returning ok=false
// declines the turn and evaluation continues with the next rule.
type rule struct {
	intent  Intent
	matches func(t *turn) bool
	respond func(t *turn) (Reply, bool)
}

// Matcher classifies utterances against an ordered rule list and produces
// canned replies. It holds no per-session state and is safe for concurrent
// use; the Memory passed to Respond is not.
type Matcher struct {
	table     Table
	extractor *Extractor
	now       func() time.Time
	rules     []rule
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithClock overrides the clock used for salutations and recording instants.
func WithClock(now func() time.Time) Option {
	return func(m *Matcher) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMatcher builds a matcher over a private copy of table.
func NewMatcher(table Table, opts ...Option) *Matcher {
	m := &Matcher{
		table: table.clone(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.extractor = NewExtractor(m.table)
	m.rules = m.buildRules()
	return m
}

// buildRules lays out the evaluation order. Keyword sets overlap ("record my
// medicine" also contains "medicine"), so the order here is part of the
// matcher's contract.
func (m *Matcher) buildRules() []rule {
	rules := []rule{
		{
			intent:  IntentShowMedicines,
			matches: func(t *turn) bool { return containsAny(t.lower, m.table.ShowMedicinesPhrases) },
			respond: m.showMedicines,
		},
		{
			intent:  IntentRecordMedicine,
			matches: func(t *turn) bool { return m.extractor.LooksLikeRecordRequest(t.lower) },
			respond: m.recordMedicine,
		},
		m.topicRule(m.table.MedicineTopic),
		m.topicRule(m.table.Appointment),
	}
	for _, topic := range m.table.Topics {
		rules = append(rules, m.topicRule(topic))
	}
	rules = append(rules, rule{
		intent:  IntentKeyword,
		matches: func(t *turn) bool { return true },
		respond: m.dictionary,
	})
	return rules
}

func (m *Matcher) topicRule(topic TopicRule) rule {
	return rule{
		intent:  topic.Intent,
		matches: func(t *turn) bool { return containsAny(t.lower, topic.Keywords) },
		respond: func(t *turn) (Reply, bool) {
			return Reply{Intent: topic.Intent, Text: m.fill(topic.Response)}, true
		},
	}
}

// Intents lists rule intents in evaluation order, ending with the fallback.
func (m *Matcher) Intents() []Intent {
	out := make([]Intent, 0, len(m.rules)+1)
	for _, r := range m.rules {
		out = append(out, r.intent)
	}
	return append(out, IntentFallback)
}

// Respond classifies utterance and returns the reply. It never fails. A nil
// memory behaves like an empty one that is discarded after the turn.
func (m *Matcher) Respond(utterance string, memory *Memory) Reply {
	if memory == nil {
		memory = NewMemory()
	}
	t := &turn{
		raw:    strings.TrimSpace(utterance),
		lower:  normalize(utterance),
		memory: memory,
	}
	for _, r := range m.rules {
		if !r.matches(t) {
			continue
		}
		if reply, ok := r.respond(t); ok {
			return reply
		}
	}
	return Reply{Intent: IntentFallback, Text: fmt.Sprintf(m.table.FallbackResponse, t.lower)}
}

// ClassifyAndRespond returns only the reply text of Respond.
func (m *Matcher) ClassifyAndRespond(utterance string, memory *Memory) string {
	return m.Respond(utterance, memory).Text
}

// Welcome returns the session opening message.
func (m *Matcher) Welcome() string {
	return m.fill(m.table.WelcomeResponse)
}

func (m *Matcher) showMedicines(t *turn) (Reply, bool) {
	if t.memory.IsEmpty() {
		return Reply{Intent: IntentShowMedicines, Text: m.table.EmptyMedicinesResponse}, true
	}
	var b strings.Builder
	b.WriteString("📋 **Your Recorded Medicines:**\n\n")
	for i, med := range t.memory.All() {
		fmt.Fprintf(&b, "%d. **%s**\n", i+1, med.Name)
		if med.Dosage != "" {
			fmt.Fprintf(&b, "   Dosage: %s\n", med.Dosage)
		}
		if med.Frequency != "" {
			fmt.Fprintf(&b, "   Frequency: %s\n", med.Frequency)
		}
		fmt.Fprintf(&b, "   Recorded: %s\n\n", med.RecordedAt.Format(RecordedAtLayout))
	}
	return Reply{Intent: IntentShowMedicines, Text: b.String()}, true
}

func (m *Matcher) recordMedicine(t *turn) (Reply, bool) {
	ex, ok := m.extractor.Extract(t.raw)
	if !ok {
		return Reply{}, false
	}
	entry := t.memory.record(ex.Name, ex.Dosage, m.now())
	return Reply{
		Intent:   IntentRecordMedicine,
		Text:     confirmation(entry),
		Recorded: &entry,
	}, true
}

func (m *Matcher) dictionary(t *turn) (Reply, bool) {
	for _, kr := range m.table.Dictionary {
		if strings.Contains(t.lower, kr.Keyword) {
			return Reply{Intent: IntentKeyword, Text: kr.Response}, true
		}
	}
	return Reply{}, false
}

func (m *Matcher) fill(template string) string {
	return strings.ReplaceAll(template, salutationPlaceholder, Salutation(m.now()))
}

func confirmation(med RecordedMedicine) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ I've recorded \"%s\"", med.Name)
	if med.Dosage != "" {
		fmt.Fprintf(&b, " (%s)", med.Dosage)
	}
	if med.Frequency != "" {
		fmt.Fprintf(&b, " - %s", med.Frequency)
	}
	b.WriteString(" in your medicine list.\n\n")
	b.WriteString("You can view all recorded medicines anytime by asking \"show my medicines\" or \"list medicines\".")
	return b.String()
}

// Salutation returns the time-of-day greeting for now.
func Salutation(now time.Time) string {
	switch h := now.Hour(); {
	case h < 12:
		return "Good Morning"
	case h < 18:
		return "Good Afternoon"
	default:
		return "Good Evening"
	}
}

func normalize(utterance string) string {
	return strings.ToLower(strings.TrimSpace(utterance))
}
