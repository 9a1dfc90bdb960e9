package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/healthcare-assistant/cmd/mainconfig"
	"github.com/wolfman30/healthcare-assistant/internal/alerts"
	"github.com/wolfman30/healthcare-assistant/internal/api/router"
	"github.com/wolfman30/healthcare-assistant/internal/app/bootstrap"
	"github.com/wolfman30/healthcare-assistant/internal/assistant"
	"github.com/wolfman30/healthcare-assistant/internal/auth"
	"github.com/wolfman30/healthcare-assistant/internal/bookings"
	"github.com/wolfman30/healthcare-assistant/internal/chat"
	appconfig "github.com/wolfman30/healthcare-assistant/internal/config"
	"github.com/wolfman30/healthcare-assistant/internal/notifications"
	"github.com/wolfman30/healthcare-assistant/internal/notify"
	"github.com/wolfman30/healthcare-assistant/internal/observability/metrics"
	"github.com/wolfman30/healthcare-assistant/internal/reminders"
	"github.com/wolfman30/healthcare-assistant/pkg/logging"
)

func main() {
	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting healthcare-assistant API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set, authenticated routes will reject every request")
	}

	ctx := context.Background()

	// Persistence
	pool := bootstrap.BuildPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool != nil {
		defer pool.Close()
	}
	repos := bootstrap.BuildRepositories(pool, logger)

	var redisClient *redis.Client
	if cfg.UseRedisSessions() {
		redisClient = bootstrap.BuildRedisClient(ctx, cfg, logger, true)
		if redisClient != nil {
			defer func() { _ = redisClient.Close() }()
		}
	}

	metricsHandler, chatMetrics, reminderMetrics := setupMetrics()

	// Services
	authService := auth.NewService(repos.Users, cfg.JWTSecret, cfg.JWTTTL, logger)
	bookingService := bookings.NewService(repos.Bookings, repos.Alerts, logger)
	chatService := chat.NewService(
		bootstrap.BuildSessionStore(cfg, redisClient, logger),
		assistant.NewMatcher(assistant.DefaultTable()),
		chatMetrics,
		logger,
		chat.WithTurnLocker(bootstrap.BuildTurnLocker(cfg, redisClient)),
	)

	// Reminder sweep
	emailSender := setupEmailSender(ctx, cfg, logger)
	sweeper := reminders.NewSweeper(repos.Bookings, repos.Alerts, logger,
		reminders.WithWindow(cfg.ReminderWindow),
		reminders.WithMetrics(reminderMetrics),
		reminders.WithEmail(repos.Users, notify.NewReminders(emailSender, logger)),
	)
	scheduler := reminders.NewScheduler(cfg.ReminderCron, sweeper, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error("failed to start reminder scheduler", "error", err, "schedule", cfg.ReminderCron)
		os.Exit(1)
	}

	// Setup router
	routerCfg := &router.Config{
		Logger:               logger,
		AuthHandler:          auth.NewHandler(authService, logger),
		BookingsHandler:      bookings.NewHandler(bookingService, logger),
		AlertsHandler:        alerts.NewHandler(repos.Alerts, logger),
		NotificationsHandler: notifications.NewHandler(repos.Alerts, bookingService, logger),
		ChatHandler:          chat.NewHandler(chatService, cfg.ChatReplyDelay, logger),
		MetricsHandler:       metricsHandler,
		CORSAllowedOrigins:   cfg.CORSAllowedOrigins,
		JWTSecret:            cfg.JWTSecret,
		ChatRateLimit:        cfg.ChatRateLimit,
		ChatRateBurst:        cfg.ChatRateBurst,
	}
	r := router.New(routerCfg)

	// Create HTTP server. No WriteTimeout: chat WebSocket connections are long lived.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	scheduler.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupMetrics registers the application collectors on a dedicated registry
// and returns the /metrics handler for it.
func setupMetrics() (http.Handler, *metrics.ChatMetrics, *metrics.ReminderMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	chatMetrics := metrics.NewChatMetrics(reg)
	reminderMetrics := metrics.NewReminderMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), chatMetrics, reminderMetrics
}

func setupEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	sesFactory := func() *sesv2.Client {
		client, err := mainconfig.NewSESClient(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config for SES", "error", err)
			return nil
		}
		return client
	}
	return notify.NewEmailSender(notify.ProviderConfig{
		Provider:       cfg.EmailProvider,
		SendGridAPIKey: cfg.SendGridAPIKey,
		FromEmail:      cfg.EmailFrom,
		FromName:       cfg.EmailFromName,
	}, sesFactory, logger)
}
