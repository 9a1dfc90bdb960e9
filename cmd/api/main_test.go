package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appconfig "github.com/wolfman30/healthcare-assistant/internal/config"
	"github.com/wolfman30/healthcare-assistant/internal/notify"
	"github.com/wolfman30/healthcare-assistant/pkg/logging"
)

func TestSetupMetricsExposesMetrics(t *testing.T) {
	handler, chatMetrics, reminderMetrics := setupMetrics()
	if handler == nil || chatMetrics == nil || reminderMetrics == nil {
		t.Fatalf("expected non-nil handler and metrics")
	}

	chatMetrics.ObserveTurn("greeting", false, 0.01)
	reminderMetrics.ObserveSweep("ok", 0.2)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, name := range []string{"healthcare_chat_turns_total", "healthcare_reminders_sweeps_total", "go_goroutines"} {
		if !strings.Contains(body, name) {
			t.Fatalf("expected %s to be exported", name)
		}
	}
}

func TestSetupEmailSenderDefaultsToStub(t *testing.T) {
	cfg := &appconfig.Config{EmailProvider: "none"}
	sender := setupEmailSender(context.Background(), cfg, logging.Discard())
	if _, ok := sender.(*notify.StubEmailSender); !ok {
		t.Fatalf("expected stub sender, got %T", sender)
	}
}

func TestSetupEmailSenderSendGrid(t *testing.T) {
	cfg := &appconfig.Config{EmailProvider: "sendgrid", SendGridAPIKey: "SG.test", EmailFrom: "noreply@example.com"}
	sender := setupEmailSender(context.Background(), cfg, logging.Discard())
	if _, ok := sender.(*notify.SendGridSender); !ok {
		t.Fatalf("expected sendgrid sender, got %T", sender)
	}
}
