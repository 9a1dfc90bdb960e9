package notify

import (
	"context"
	"errors"
	"fmt"
	netmail "net/mail"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/wolfman30/healthcare-assistant/pkg/logging"
)

const defaultFromName = "Healthcare Assistant"

// ErrNoRecipient is returned when a message has no email address to go to.
var ErrNoRecipient = errors.New("notify: message has no recipient")

// EmailSender delivers one email. SendGrid, SES and the logging stub
// implement it.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is a rendered email.
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Body    string // plain text
	HTML    string // optional
	// Category tags the message at the provider, e.g. "appointment-reminder".
	Category string
}

func (m EmailMessage) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return ErrNoRecipient
	}
	return nil
}

// htmlOrText returns the HTML body, falling back to the text body.
func (m EmailMessage) htmlOrText() string {
	if m.HTML != "" {
		return m.HTML
	}
	return m.Body
}

// fromIdentity is the sender shown to patients.
type fromIdentity struct {
	email string
	name  string
}

func newFromIdentity(email, name string) fromIdentity {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultFromName
	}
	return fromIdentity{email: strings.TrimSpace(email), name: name}
}

// address formats the identity as an RFC 5322 mailbox.
func (f fromIdentity) address() string {
	return (&netmail.Address{Name: f.name, Address: f.email}).String()
}

// SendGridConfig holds configuration for SendGrid.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// SendGridSender sends emails through the SendGrid v3 API.
type SendGridSender struct {
	client *sendgrid.Client
	from   fromIdentity
	logger *logging.Logger
}

// NewSendGridSender returns nil when no API key is configured.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SendGridSender{
		client: sendgrid.NewSendClient(cfg.APIKey),
		from:   newFromIdentity(cfg.FromEmail, cfg.FromName),
		logger: logger,
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.client == nil {
		return errors.New("notify: sendgrid client not configured")
	}
	if err := msg.validate(); err != nil {
		return err
	}

	message := mail.NewSingleEmail(
		mail.NewEmail(s.from.name, s.from.email),
		msg.Subject,
		mail.NewEmail(msg.ToName, msg.To),
		msg.Body,
		msg.htmlOrText(),
	)
	if msg.Category != "" {
		message.AddCategories(msg.Category)
	}

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		s.logger.Error("sendgrid send failed", "error", err, "category", msg.Category)
		return fmt.Errorf("notify: sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		s.logger.Error("sendgrid rejected message", "status", resp.StatusCode, "body", resp.Body, "category", msg.Category)
		return fmt.Errorf("notify: sendgrid returned status %d", resp.StatusCode)
	}

	s.logger.Info("email sent", "provider", "sendgrid", "category", msg.Category, "status", resp.StatusCode)
	return nil
}

// StubEmailSender logs instead of sending. It is used when no provider is
// configured.
type StubEmailSender struct {
	logger *logging.Logger
}

func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

func (s *StubEmailSender) Send(_ context.Context, msg EmailMessage) error {
	if err := msg.validate(); err != nil {
		return err
	}
	s.logger.Info("email not sent, no provider configured", "subject", msg.Subject, "category", msg.Category)
	return nil
}

// ProviderConfig selects and configures the email backend.
type ProviderConfig struct {
	Provider       string // none, sendgrid or ses
	SendGridAPIKey string
	FromEmail      string
	FromName       string
}

// NewEmailSender returns the sender for cfg.Provider. Unknown providers, and
// providers missing their credentials, fall back to the stub sender.
func NewEmailSender(cfg ProviderConfig, ses SESClientFactory, logger *logging.Logger) EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	switch cfg.Provider {
	case "sendgrid":
		if sender := NewSendGridSender(SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.FromEmail,
			FromName:  cfg.FromName,
		}, logger); sender != nil {
			return sender
		}
		logger.Warn("sendgrid selected without api key, emails will be logged only")
	case "ses":
		if ses != nil {
			if client := ses(); client != nil {
				return NewSESSender(client, SESConfig{FromEmail: cfg.FromEmail, FromName: cfg.FromName}, logger)
			}
		}
		logger.Warn("ses selected without aws config, emails will be logged only")
	case "", "none":
	default:
		logger.Warn("unknown email provider, emails will be logged only", "provider", cfg.Provider)
	}
	return NewStubEmailSender(logger)
}

var (
	_ EmailSender = (*SendGridSender)(nil)
	_ EmailSender = (*StubEmailSender)(nil)
)
