package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginPolicy(t *testing.T) {
	policy := newOriginPolicy([]string{
		"https://portal.clinic.example/",
		" ",
		"https://*.widget.example",
	})

	cases := []struct {
		origin string
		want   bool
	}{
		{"https://portal.clinic.example", true},
		{"HTTPS://Portal.Clinic.Example", true},
		{"http://portal.clinic.example", false},
		{"https://eu.widget.example", true},
		{"https://a.b.widget.example", true},
		{"https://widget.example", false},
		{"http://eu.widget.example", false},
		{"https://evilwidget.example", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, policy.allows(tc.origin), tc.origin)
	}

	assert.True(t, newOriginPolicy([]string{"*"}).allows("https://anything.example"))
	assert.False(t, newOriginPolicy(nil).allows("https://anything.example"))
}

func TestCORS_AllowedOriginReachesHandler(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/chat/sessions/abc/messages", nil)
	req.Header.Set("Origin", "https://eu.widget.example")
	rec := httptest.NewRecorder()
	CORS([]string{"https://*.widget.example"})(next).ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "https://eu.widget.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "Retry-After")
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))
}

func TestCORS_UnknownOriginGetsNoHeaders(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/bookings", nil)
	req.Header.Set("Origin", "https://unknown.example")
	rec := httptest.NewRecorder()
	CORS([]string{"https://portal.clinic.example"})(next).ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORS_Preflight(t *testing.T) {
	cases := []struct {
		name       string
		origin     string
		wantCalled bool
		wantCode   int
	}{
		{name: "allowed origin short-circuits", origin: "https://portal.clinic.example", wantCalled: false, wantCode: http.StatusNoContent},
		{name: "unknown origin falls through", origin: "https://unknown.example", wantCalled: true, wantCode: http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusMethodNotAllowed)
			})

			req := httptest.NewRequest(http.MethodOptions, "/api/bookings", nil)
			req.Header.Set("Origin", tc.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rec := httptest.NewRecorder()
			CORS([]string{"https://portal.clinic.example"})(next).ServeHTTP(rec, req)

			assert.Equal(t, tc.wantCalled, called)
			assert.Equal(t, tc.wantCode, rec.Code)
		})
	}
}
