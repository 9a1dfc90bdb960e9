// Package main runs end-to-end scenarios against a running API.
//
// Each run registers a throwaway user and then exercises the chat assistant,
// bookings, alerts and the notification feed over HTTP and WebSocket.
//
// Usage:
//
//	API_BASE_URL=http://localhost:5000 go run scripts/e2e/run_e2e.go              # runs all
//	API_BASE_URL=http://localhost:5000 go run scripts/e2e/run_e2e.go record-show  # runs one
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"
)

var (
	apiBase string
	token   string
)

type scenario struct {
	Name string
	Fn   func(t *T)
}

// T is a lightweight test context for a single scenario.
type T struct {
	passed int
	failed int
	name   string
}

func (t *T) check(name string, ok bool) {
	if ok {
		fmt.Printf("    PASS: %s\n", name)
		t.passed++
	} else {
		fmt.Printf("    FAIL: %s\n", name)
		t.failed++
	}
}

func (t *T) fatalf(format string, args ...interface{}) {
	fmt.Printf("    FATAL: "+format+"\n", args...)
	t.failed++
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func call(method, path string, body interface{}, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, apiBase+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 400 && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

type turn struct {
	Intent string `json:"intent"`
	Reply  struct {
		Text string `json:"text"`
	} `json:"reply"`
}

func startSession(t *T) string {
	var resp struct {
		SessionID string `json:"session_id"`
	}
	status, err := call(http.MethodPost, "/api/chat/sessions", nil, &resp)
	if err != nil || status != http.StatusCreated {
		t.fatalf("start session: status=%d err=%v", status, err)
		return ""
	}
	return resp.SessionID
}

func say(t *T, sessionID, text string) turn {
	var out turn
	status, err := call(http.MethodPost, "/api/chat/sessions/"+sessionID+"/messages", map[string]string{"text": text}, &out)
	if err != nil || status != http.StatusOK {
		t.fatalf("send %q: status=%d err=%v", text, status, err)
	}
	return out
}

func unreadCount() int {
	var resp struct {
		Count int `json:"count"`
	}
	if _, err := call(http.MethodGet, "/api/alerts/unread/count", nil, &resp); err != nil {
		return -1
	}
	return resp.Count
}

func setup() error {
	email := fmt.Sprintf("e2e-%s@example.com", uuid.NewString()[:8])
	var session struct {
		Token string `json:"token"`
	}
	status, err := call(http.MethodPost, "/api/auth/register", map[string]string{
		"name":     "E2E Runner",
		"email":    email,
		"password": "e2e-password",
	}, &session)
	if err != nil {
		return err
	}
	if status != http.StatusCreated || session.Token == "" {
		return fmt.Errorf("register returned %d", status)
	}
	token = session.Token
	return nil
}

// ---------------------------------------------------------------------------
// Scenarios
// ---------------------------------------------------------------------------

func scenarioRecordShow(t *T) {
	id := startSession(t)
	if id == "" {
		return
	}
	rec := say(t, id, "Record Paracetamol 500mg twice daily")
	t.check("record intent", rec.Intent == "record_medicine")
	t.check("confirmation names the medicine", strings.Contains(rec.Reply.Text, "Paracetamol"))

	say(t, id, "I'm taking medication Metformin")
	show := say(t, id, "show my medicines")
	t.check("show intent", show.Intent == "show_medicines")
	t.check("list has both medicines", strings.Contains(show.Reply.Text, "Paracetamol") && strings.Contains(show.Reply.Text, "Metformin"))

	var meds struct {
		Medicines []map[string]interface{} `json:"medicines"`
	}
	_, err := call(http.MethodGet, "/api/chat/sessions/"+id+"/medicines", nil, &meds)
	t.check("medicines endpoint lists 2", err == nil && len(meds.Medicines) == 2)

	status, _ := call(http.MethodDelete, "/api/chat/sessions/"+id, nil, nil)
	t.check("end session", status == http.StatusNoContent)
	status, _ = call(http.MethodGet, "/api/chat/sessions/"+id+"/medicines", nil, nil)
	t.check("memory discarded with session", status == http.StatusNotFound)
}

func scenarioQuickActions(t *T) {
	id := startSession(t)
	if id == "" {
		return
	}
	want := map[string]string{
		"book_medicine":    "medicine_info",
		"book_appointment": "appointment",
		"emergency":        "emergency",
		"health_info":      "health",
		"my_medicines":     "show_medicines",
	}
	for action, intent := range want {
		var out turn
		status, err := call(http.MethodPost, "/api/chat/sessions/"+id+"/quick-actions/"+action, nil, &out)
		t.check(action+" -> "+intent, err == nil && status == http.StatusOK && out.Intent == intent)
	}
}

func scenarioFallback(t *T) {
	id := startSession(t)
	if id == "" {
		return
	}
	out := say(t, id, "zxqv")
	t.check("fallback intent", out.Intent == "fallback")
	t.check("fallback echoes input", strings.Contains(out.Reply.Text, "zxqv"))

	status, _ := call(http.MethodPost, "/api/chat/sessions/"+id+"/messages", map[string]string{"text": "   "}, nil)
	t.check("blank message rejected", status == http.StatusBadRequest)
}

func scenarioBookingAlert(t *T) {
	before := unreadCount()
	when := time.Now().UTC().Add(3 * time.Hour)
	var booking struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	status, err := call(http.MethodPost, "/api/bookings", map[string]string{
		"ointment_type":    "Fever",
		"booking_type":     "appointment",
		"category":         "Other",
		"appointment_date": when.Format(time.RFC3339),
		"appointment_time": when.Format("15:04"),
	}, &booking)
	if err != nil || status != http.StatusCreated {
		t.fatalf("create booking: status=%d err=%v", status, err)
		return
	}
	t.check("booking pending", booking.Status == "pending")
	t.check("booking raised an alert", unreadCount() == before+1)

	var feed struct {
		UpcomingBookings []map[string]interface{} `json:"upcoming_bookings"`
	}
	_, err = call(http.MethodGet, "/api/notifications", nil, &feed)
	t.check("booking is upcoming", err == nil && len(feed.UpcomingBookings) >= 1)

	status, _ = call(http.MethodPut, "/api/bookings/"+booking.ID, map[string]string{"status": "cancelled"}, nil)
	t.check("cancel booking", status == http.StatusOK)
	status, _ = call(http.MethodDelete, "/api/bookings/"+booking.ID, nil, nil)
	t.check("delete booking", status == http.StatusOK)
}

func scenarioEmergencyAlert(t *T) {
	var alert struct {
		Priority string `json:"priority"`
		Title    string `json:"title"`
	}
	status, err := call(http.MethodPost, "/api/alerts/emergency", nil, &alert)
	t.check("emergency created", err == nil && status == http.StatusCreated)
	t.check("emergency is critical", alert.Priority == "critical")
	t.check("default title", alert.Title == "Emergency Alert")

	status, _ = call(http.MethodPut, "/api/alerts/read-all", nil, nil)
	t.check("read all", status == http.StatusOK)
	t.check("nothing unread", unreadCount() == 0)
}

func scenarioWebSocket(t *T) {
	u, err := url.Parse(apiBase)
	if err != nil {
		t.fatalf("parse base url: %v", err)
		return
	}
	origin := u.String()
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	u.Path = "/api/chat/ws"
	u.RawQuery = url.Values{"token": {token}}.Encode()

	conn, err := websocket.Dial(u.String(), "", origin)
	if err != nil {
		t.fatalf("dial: %v", err)
		return
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(15 * time.Second))

	var frame map[string]interface{}
	t.check("session frame", websocket.JSON.Receive(conn, &frame) == nil && frame["type"] == "session")

	_ = websocket.JSON.Send(conn, map[string]string{"type": "message", "text": "hello"})
	frame = nil
	t.check("typing frame", websocket.JSON.Receive(conn, &frame) == nil && frame["type"] == "typing")
	frame = nil
	t.check("greeting reply", websocket.JSON.Receive(conn, &frame) == nil && frame["intent"] == "greeting")
}

func main() {
	apiBase = strings.TrimRight(os.Getenv("API_BASE_URL"), "/")
	if apiBase == "" {
		fmt.Fprintln(os.Stderr, "ERROR: API_BASE_URL required")
		os.Exit(1)
	}
	if err := setup(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: setup failed: %v\n", err)
		os.Exit(1)
	}

	scenarios := []scenario{
		{"record-show", scenarioRecordShow},
		{"quick-actions", scenarioQuickActions},
		{"fallback", scenarioFallback},
		{"booking-alert", scenarioBookingAlert},
		{"emergency-alert", scenarioEmergencyAlert},
		{"websocket", scenarioWebSocket},
	}

	// Filter by name if argument provided
	filter := ""
	if len(os.Args) > 1 {
		filter = os.Args[1]
	}

	totalPassed := 0
	totalFailed := 0
	scenarioResults := make([]string, 0)

	for _, s := range scenarios {
		if filter != "" && s.Name != filter {
			continue
		}

		fmt.Printf("\n========================================\n")
		fmt.Printf("SCENARIO: %s\n", s.Name)
		fmt.Printf("========================================\n")

		t := &T{name: s.Name}
		s.Fn(t)

		totalPassed += t.passed
		totalFailed += t.failed

		status := "✅"
		if t.failed > 0 {
			status = "❌"
		}
		scenarioResults = append(scenarioResults, fmt.Sprintf("  %s %s (%d passed, %d failed)", status, s.Name, t.passed, t.failed))
	}

	fmt.Printf("\n========================================\n")
	fmt.Println("SUMMARY")
	fmt.Printf("========================================\n")
	for _, r := range scenarioResults {
		fmt.Println(r)
	}
	fmt.Printf("\nTotal: %d passed, %d failed\n", totalPassed, totalFailed)

	if totalFailed > 0 {
		fmt.Println("\n❌ SOME TESTS FAILED")
		os.Exit(1)
	}
	fmt.Println("\n✅ ALL TESTS PASSED")
}
