package reminders

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wolfman30/healthcare-assistant/pkg/logging"
)

// DefaultSchedule runs the sweep every fifteen minutes.
const DefaultSchedule = "*/15 * * * *"

// Runner is one sweep pass.
type Runner interface {
	Run(ctx context.Context) (int, error)
}

// Scheduler runs the sweep on a cron schedule in UTC. A tick that fires
// while the previous sweep is still running is skipped.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	spec   string
	ctx    context.Context
	cancel context.CancelFunc
	logger *logging.Logger
}

// NewScheduler creates a scheduler. An empty spec means DefaultSchedule.
func NewScheduler(spec string, runner Runner, logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Default()
	}
	if spec == "" {
		spec = DefaultSchedule
	}
	ctx, cancel := context.WithCancel(context.Background())
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		runner: runner,
		spec:   spec,
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// Start registers the sweep and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.tick); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("reminder scheduler started", "schedule", s.spec)
	return nil
}

func (s *Scheduler) tick() {
	n, err := s.runner.Run(s.ctx)
	if err != nil {
		s.logger.Error("reminder sweep failed", "error", err)
		return
	}
	s.logger.Debug("reminder sweep finished", "notified", n)
}

// Stop halts the schedule and waits for a running sweep, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	s.cancel()
	s.logger.Info("reminder scheduler stopped")
}

// IsRunning reports whether the sweep is registered.
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}

// cronLogger adapts the structured logger to cron.Logger.
type cronLogger struct {
	logger *logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
