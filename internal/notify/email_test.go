package notify

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromIdentity(t *testing.T) {
	from := newFromIdentity(" care@clinic.example ", "")
	assert.Equal(t, defaultFromName, from.name)
	assert.Equal(t, `"Healthcare Assistant" <care@clinic.example>`, from.address())

	from = newFromIdentity("care@clinic.example", "Dr. Lee, Family Practice")
	assert.Equal(t, `"Dr. Lee, Family Practice" <care@clinic.example>`, from.address())
}

func TestEmailMessage_Validate(t *testing.T) {
	assert.ErrorIs(t, EmailMessage{To: "  "}.validate(), ErrNoRecipient)
	assert.NoError(t, EmailMessage{To: "pat@example.com"}.validate())

	assert.Equal(t, "text", EmailMessage{Body: "text"}.htmlOrText())
	assert.Equal(t, "<p>x</p>", EmailMessage{Body: "text", HTML: "<p>x</p>"}.htmlOrText())
}

func TestNewSendGridSender(t *testing.T) {
	assert.Nil(t, NewSendGridSender(SendGridConfig{APIKey: " ", FromEmail: "care@clinic.example"}, nil))

	sender := NewSendGridSender(SendGridConfig{APIKey: "test-key", FromEmail: "care@clinic.example"}, nil)
	require.NotNil(t, sender)
	assert.Equal(t, defaultFromName, sender.from.name)

	sender = NewSendGridSender(SendGridConfig{APIKey: "test-key", FromEmail: "care@clinic.example", FromName: "Northside Clinic"}, nil)
	require.NotNil(t, sender)
	assert.Equal(t, "Northside Clinic", sender.from.name)
}

func TestSendGridSender_RejectsBeforeCallingAPI(t *testing.T) {
	unconfigured := &SendGridSender{}
	assert.Error(t, unconfigured.Send(context.Background(), EmailMessage{To: "pat@example.com"}))

	sender := NewSendGridSender(SendGridConfig{APIKey: "test-key", FromEmail: "care@clinic.example"}, nil)
	assert.ErrorIs(t, sender.Send(context.Background(), EmailMessage{Subject: "Reminder"}), ErrNoRecipient)
}

func TestStubEmailSender_Send(t *testing.T) {
	sender := NewStubEmailSender(nil)
	assert.NoError(t, sender.Send(context.Background(), EmailMessage{To: "pat@example.com", Subject: "Reminder", Category: ReminderCategory}))
	assert.ErrorIs(t, sender.Send(context.Background(), EmailMessage{Subject: "Reminder"}), ErrNoRecipient)
}

func TestNewEmailSender_Selection(t *testing.T) {
	cases := []struct {
		name string
		cfg  ProviderConfig
		ses  SESClientFactory
		want any
	}{
		{name: "none", cfg: ProviderConfig{Provider: "none"}, want: &StubEmailSender{}},
		{name: "empty", cfg: ProviderConfig{}, want: &StubEmailSender{}},
		{name: "unknown", cfg: ProviderConfig{Provider: "smtp"}, want: &StubEmailSender{}},
		{name: "sendgrid", cfg: ProviderConfig{Provider: "sendgrid", SendGridAPIKey: "key"}, want: &SendGridSender{}},
		{name: "sendgrid without key", cfg: ProviderConfig{Provider: "sendgrid"}, want: &StubEmailSender{}},
		{name: "ses without client", cfg: ProviderConfig{Provider: "ses"}, ses: func() *sesv2.Client { return nil }, want: &StubEmailSender{}},
		{name: "ses", cfg: ProviderConfig{Provider: "ses"}, ses: func() *sesv2.Client { return sesv2.New(sesv2.Options{Region: "us-east-1"}) }, want: &SESSender{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.IsType(t, tc.want, NewEmailSender(tc.cfg, tc.ses, nil))
		})
	}
}
