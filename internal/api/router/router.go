package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/healthcare-assistant/internal/alerts"
	"github.com/wolfman30/healthcare-assistant/internal/auth"
	"github.com/wolfman30/healthcare-assistant/internal/bookings"
	"github.com/wolfman30/healthcare-assistant/internal/chat"
	httpmiddleware "github.com/wolfman30/healthcare-assistant/internal/http/middleware"
	"github.com/wolfman30/healthcare-assistant/internal/notifications"
	"github.com/wolfman30/healthcare-assistant/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger               *logging.Logger
	AuthHandler          *auth.Handler
	BookingsHandler      *bookings.Handler
	AlertsHandler        *alerts.Handler
	NotificationsHandler *notifications.Handler
	ChatHandler          *chat.Handler
	MetricsHandler       http.Handler
	CORSAllowedOrigins   []string
	JWTSecret            string

	// Chat endpoints are rate limited per user when ChatRateLimit > 0. The
	// REST routes, the socket handshake and socket message frames share one
	// set of buckets.
	ChatRateLimit float64
	ChatRateBurst int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	var chatLimiter *httpmiddleware.RateLimiter
	if cfg.ChatRateLimit > 0 {
		chatLimiter = httpmiddleware.NewRateLimiter(cfg.ChatRateLimit, cfg.ChatRateBurst)
		if cfg.ChatHandler != nil {
			cfg.ChatHandler.LimitFrames(chatLimiter)
		}
	}

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		// Public endpoints
		api.Group(func(public chi.Router) {
			public.Get("/health", healthCheck)
			if cfg.AuthHandler != nil {
				public.Post("/auth/register", cfg.AuthHandler.Register)
				public.Post("/auth/login", cfg.AuthHandler.Login)
			}
		})

		// Authenticated user API
		api.Group(func(user chi.Router) {
			user.Use(httpmiddleware.UserJWT(cfg.JWTSecret))

			if cfg.AuthHandler != nil {
				user.Get("/auth/me", cfg.AuthHandler.Me)
			}
			if cfg.BookingsHandler != nil {
				user.Route("/bookings", func(r chi.Router) {
					r.Get("/", cfg.BookingsHandler.List)
					r.Post("/", cfg.BookingsHandler.Create)
					r.Get("/{id}", cfg.BookingsHandler.Get)
					r.Put("/{id}", cfg.BookingsHandler.Update)
					r.Delete("/{id}", cfg.BookingsHandler.Delete)
				})
			}
			if cfg.AlertsHandler != nil {
				user.Route("/alerts", func(r chi.Router) {
					r.Get("/", cfg.AlertsHandler.List)
					r.Get("/unread/count", cfg.AlertsHandler.UnreadCount)
					r.Post("/emergency", cfg.AlertsHandler.Emergency)
					r.Put("/read-all", cfg.AlertsHandler.MarkAllRead)
					r.Put("/{id}/read", cfg.AlertsHandler.MarkRead)
					r.Delete("/{id}", cfg.AlertsHandler.Delete)
				})
			}
			if cfg.NotificationsHandler != nil {
				user.Get("/notifications", cfg.NotificationsHandler.Get)
			}
			if cfg.ChatHandler != nil {
				user.Route("/chat/sessions", func(r chi.Router) {
					if chatLimiter != nil {
						r.Use(httpmiddleware.RateLimitWith(chatLimiter))
					}
					r.Post("/", cfg.ChatHandler.StartSession)
					r.Delete("/{id}", cfg.ChatHandler.EndSession)
					r.Get("/{id}/messages", cfg.ChatHandler.History)
					r.Post("/{id}/messages", cfg.ChatHandler.SendMessage)
					r.Get("/{id}/medicines", cfg.ChatHandler.Medicines)
					r.Post("/{id}/quick-actions/{action}", cfg.ChatHandler.QuickAction)
				})
			}
		})

		// Browsers cannot set headers on the WebSocket handshake.
		if cfg.ChatHandler != nil {
			ws := api.With(httpmiddleware.UserJWTWithQuery(cfg.JWTSecret))
			if chatLimiter != nil {
				ws = ws.With(httpmiddleware.RateLimitWith(chatLimiter))
			}
			ws.Get("/chat/ws", cfg.ChatHandler.HandleWebSocket)
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"message": "Healthcare Assistant API is running",
	})
}
