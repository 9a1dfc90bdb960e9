package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/wolfman30/healthcare-assistant/pkg/logging"
)

// ReminderCategory tags reminder emails at the provider.
const ReminderCategory = "appointment-reminder"

// Reminder describes one upcoming booking to remind a user about.
type Reminder struct {
	To            string
	ToName        string
	Subject       string // what is booked, e.g. a medicine or visit reason
	IsAppointment bool
	At            time.Time
	Clock         string // the time as the user entered it
}

// Reminders renders appointment reminders and hands them to an EmailSender.
type Reminders struct {
	email  EmailSender
	logger *logging.Logger
}

// NewReminders wires a reminder mailer. A nil sender falls back to the stub.
func NewReminders(email EmailSender, logger *logging.Logger) *Reminders {
	if logger == nil {
		logger = logging.Default()
	}
	if email == nil {
		email = NewStubEmailSender(logger)
	}
	return &Reminders{email: email, logger: logger}
}

// Send emails the reminder.
func (r *Reminders) Send(ctx context.Context, rem Reminder) error {
	if strings.TrimSpace(rem.To) == "" {
		return ErrNoRecipient
	}
	msg := RenderReminder(rem)
	if err := r.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: send reminder: %w", err)
	}
	return nil
}

// RenderReminder builds the subject and bodies of a reminder email.
func RenderReminder(rem Reminder) EmailMessage {
	clock := strings.TrimSpace(rem.Clock)
	if clock == "" {
		clock = rem.At.Format("15:04")
	}
	day := rem.At.Format("Monday, January 2")

	var subject, line string
	if rem.IsAppointment {
		subject = "Upcoming appointment reminder"
		line = fmt.Sprintf("Your appointment for %s is coming up on %s at %s.", rem.Subject, day, clock)
	} else {
		subject = "Upcoming medicine appointment reminder"
		line = fmt.Sprintf("Your %s medicine appointment is coming up on %s at %s.", rem.Subject, day, clock)
	}

	greeting := "Hello,"
	if name := strings.TrimSpace(rem.ToName); name != "" {
		greeting = fmt.Sprintf("Hello %s,", name)
	}

	body := greeting + "\n\n" + line + "\n\nIf you need to reschedule, open your bookings in the Healthcare Assistant.\n"
	htmlBody := "<p>" + html.EscapeString(greeting) + "</p><p>" + html.EscapeString(line) +
		"</p><p>If you need to reschedule, open your bookings in the Healthcare Assistant.</p>"

	return EmailMessage{
		To:       rem.To,
		ToName:   rem.ToName,
		Subject:  subject,
		Body:     body,
		HTML:     htmlBody,
		Category: ReminderCategory,
	}
}
