package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/healthcare-assistant/internal/assistant"
	"github.com/wolfman30/healthcare-assistant/internal/observability/metrics"
	"github.com/wolfman30/healthcare-assistant/pkg/logging"
)

var chatTracer = otel.Tracer("healthcare.internal.chat")

// QuickAction names one of the widget's shortcut buttons.
type QuickAction string

const (
	ActionBookMedicine    QuickAction = "book_medicine"
	ActionBookAppointment QuickAction = "book_appointment"
	ActionEmergency       QuickAction = "emergency"
	ActionHealthInfo      QuickAction = "health_info"
	ActionMyMedicines     QuickAction = "my_medicines"
)

var quickActionUtterances = map[QuickAction]string{
	ActionBookMedicine:    "I want to book a medicine appointment",
	ActionBookAppointment: "I want to book a general appointment",
	ActionEmergency:       "I need emergency help",
	ActionHealthInfo:      "Tell me about general health information",
	ActionMyMedicines:     "show my medicines",
}

// Utterance returns the message a quick action sends on the user's behalf.
func (a QuickAction) Utterance() (string, bool) {
	u, ok := quickActionUtterances[a]
	return u, ok
}

// Turn is the result of one user message.
type Turn struct {
	SessionID string                      `json:"session_id"`
	Intent    assistant.Intent            `json:"intent"`
	Message   ChatMessage                 `json:"message"`
	Reply     ChatMessage                 `json:"reply"`
	Recorded  *assistant.RecordedMedicine `json:"recorded,omitempty"`
}

// Service runs chat turns against the assistant and keeps session state in a Store.
type Service struct {
	store   Store
	matcher *assistant.Matcher
	metrics *metrics.ChatMetrics
	now     func() time.Time
	logger  *logging.Logger
	locks   TurnLocker
}

// Option customizes a Service.
type Option func(*Service)

// WithTurnLocker replaces the in-process turn lock, e.g. with a
// RedisTurnLocker when replicas share a RedisStore.
func WithTurnLocker(l TurnLocker) Option {
	return func(s *Service) {
		if l != nil {
			s.locks = l
		}
	}
}

// NewService wires the chat service. metrics may be nil.
func NewService(store Store, matcher *assistant.Matcher, m *metrics.ChatMetrics, logger *logging.Logger, opts ...Option) *Service {
	if store == nil {
		panic("chat: store required")
	}
	if matcher == nil {
		matcher = assistant.NewMatcher(assistant.DefaultTable())
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		store:   store,
		matcher: matcher,
		metrics: m,
		now:     time.Now,
		logger:  logger,
		locks:   NewLocalTurnLocker(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartSession opens a session for userID and greets the user.
func (s *Service) StartSession(ctx context.Context, userID string) (*Session, error) {
	ctx, span := chatTracer.Start(ctx, "chat.start_session")
	defer span.End()

	now := s.now().UTC()
	session := &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Memory:    assistant.NewMemory(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	session.History = append(session.History, ChatMessage{
		ID:        uuid.New().String(),
		Role:      RoleBot,
		Text:      s.matcher.Welcome(),
		Timestamp: now,
	})
	if err := s.store.Create(ctx, session); err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("healthcare.chat_session_id", session.ID))
	s.metrics.ObserveSession("started")
	s.logger.Info("chat session started", "session_id", session.ID, "user_id", userID)
	return session, nil
}

// SendMessage runs one turn. Only one turn per session may be in flight.
func (s *Service) SendMessage(ctx context.Context, userID, sessionID, text string) (*Turn, error) {
	return s.SendMessageAfter(ctx, userID, sessionID, text, 0)
}

// SendMessageAfter is SendMessage with a presentational pause before the
// reply is produced. The session counts as busy during the pause.
func (s *Service) SendMessageAfter(ctx context.Context, userID, sessionID, text string, delay time.Duration) (*Turn, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	unlock, err := s.locks.Lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}

	ctx, span := chatTracer.Start(ctx, "chat.turn")
	defer span.End()
	span.SetAttributes(attribute.String("healthcare.chat_session_id", sessionID))
	start := time.Now()

	session, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	userMsg := ChatMessage{ID: uuid.New().String(), Role: RoleUser, Text: strings.TrimSpace(text), Timestamp: now}
	reply := s.matcher.Respond(text, session.Memory)
	botMsg := ChatMessage{ID: uuid.New().String(), Role: RoleBot, Text: reply.Text, Intent: reply.Intent, Timestamp: s.now().UTC()}

	session.History = append(session.History, userMsg, botMsg)
	session.UpdatedAt = botMsg.Timestamp
	if err := s.store.Save(ctx, session); err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.String("healthcare.chat_intent", string(reply.Intent)))
	s.metrics.ObserveTurn(string(reply.Intent), reply.Recorded != nil, time.Since(start).Seconds())
	if reply.Recorded != nil {
		s.logger.Info("medicine recorded", "session_id", sessionID, "medicine_id", reply.Recorded.ID)
	}

	return &Turn{
		SessionID: sessionID,
		Intent:    reply.Intent,
		Message:   userMsg,
		Reply:     botMsg,
		Recorded:  reply.Recorded,
	}, nil
}

// QuickAction sends the canned utterance for action as a regular turn.
func (s *Service) QuickAction(ctx context.Context, userID, sessionID string, action QuickAction) (*Turn, error) {
	utterance, ok := action.Utterance()
	if !ok {
		return nil, ErrUnknownAction
	}
	return s.SendMessage(ctx, userID, sessionID, utterance)
}

// Medicines lists what was recorded in the session, in recording order.
func (s *Service) Medicines(ctx context.Context, userID, sessionID string) ([]assistant.RecordedMedicine, error) {
	session, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	return session.Memory.All(), nil
}

// History returns the full transcript.
func (s *Service) History(ctx context.Context, userID, sessionID string) ([]ChatMessage, error) {
	session, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	return session.History, nil
}

// EndSession discards the session and everything recorded in it. It fails
// with ErrTurnInProgress while a turn is running so that turn cannot write
// the session back afterwards.
func (s *Service) EndSession(ctx context.Context, userID, sessionID string) error {
	unlock, err := s.locks.Lock(ctx, sessionID)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := s.load(ctx, userID, sessionID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.metrics.ObserveSession("ended")
	s.logger.Info("chat session ended", "session_id", sessionID, "user_id", userID)
	return nil
}

func (s *Service) load(ctx context.Context, userID, sessionID string) (*Session, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			s.logger.Error("chat: failed to load session", "session_id", sessionID, "error", err)
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrSessionNotFound
	}
	if session.Memory == nil {
		session.Memory = assistant.NewMemory()
	}
	return session, nil
}
