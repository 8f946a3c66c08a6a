package coach

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/matiasleandrokruk/simonsays/internal/infra/llm"
)

// HistoryLimit is the number of most recent messages sent as context.
const HistoryLimit = 50

// TopicCompletionFinished is published once per completion attempt sequence.
const TopicCompletionFinished = "completion.finished"

var (
	// ErrDailyLimitReached is returned when a free user has used today's quota.
	ErrDailyLimitReached = errors.New("daily message limit reached")
	// ErrEmptyMessage is returned for a reply request without text.
	ErrEmptyMessage = errors.New("message text is required")
)

// ProfileSource supplies the personalisation context of a user.
type ProfileSource interface {
	CoachingContext(ctx context.Context, userID string) (UserContext, error)
}

// ConversationStore persists conversation messages.
type ConversationStore interface {
	PersonaOf(ctx context.Context, userID, conversationID string) (Persona, error)
	AppendMessage(ctx context.Context, conversationID string, msg Message) (*Message, error)
	History(ctx context.Context, conversationID string, limit int) ([]Message, error)
}

// UsageCounter tracks the free-tier daily quota.
type UsageCounter interface {
	Remaining(ctx context.Context, userID string) (int, error)
	Increment(ctx context.Context, userID string) error
}

// EntitlementChecker reports whether a user bypasses the daily quota.
type EntitlementChecker interface {
	IsUnlimited(ctx context.Context, userID string) bool
}

// Completer runs a completion with retries.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// EventPublisher is satisfied by eventbus.EventBus.
type EventPublisher interface {
	Publish(topic string, payload any)
}

// CompletionFinished is the payload of TopicCompletionFinished.
type CompletionFinished struct {
	UserID         string
	ConversationID string
	Persona        Persona
	Failed         bool
	Kind           llm.ErrorKind
	Truncated      bool
	Attempts       int
}

// Outcome is "success" or the failure kind.
func (e CompletionFinished) Outcome() string {
	if !e.Failed {
		return "success"
	}
	return e.Kind.String()
}

// ReplyInput is the input of ChatService.Reply.
type ReplyInput struct {
	UserID         string
	ConversationID string
	Text           string
	Image          *Image
}

// Reply is the coach answer. When Failed is set, Message.Text holds the
// fallback note for Kind instead of generated text.
type Reply struct {
	UserMessage *Message `json:"user_message,omitempty"`
	Message     Message  `json:"message"`
	Failed      bool     `json:"failed"`
	Kind        string   `json:"kind,omitempty"`
	Truncated   bool     `json:"truncated"`
	Attempts    int      `json:"attempts"`

	kind llm.ErrorKind
}

// ChatService drives one coaching exchange end to end.
type ChatService struct {
	profiles      ProfileSource
	conversations ConversationStore
	usage         UsageCounter
	entitlements  EntitlementChecker
	completer     Completer
	events        EventPublisher
	logger        *zap.Logger
	now           func() time.Time
}

// ChatOption configures a ChatService.
type ChatOption func(*ChatService)

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) ChatOption {
	return func(s *ChatService) { s.logger = l }
}

// WithEvents publishes completion events to p.
func WithEvents(p EventPublisher) ChatOption {
	return func(s *ChatService) { s.events = p }
}

// WithClock overrides time.Now for message timestamps.
func WithClock(now func() time.Time) ChatOption {
	return func(s *ChatService) { s.now = now }
}

func NewChatService(p ProfileSource, c ConversationStore, u UsageCounter, e EntitlementChecker, l Completer, opts ...ChatOption) *ChatService {
	s := &ChatService{
		profiles:      p,
		conversations: c,
		usage:         u,
		entitlements:  e,
		completer:     l,
		logger:        zap.NewNop(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reply stores the user's message, asks the model and stores the answer.
// Completion failures are folded into a fallback reply; only the quota and
// persistence failures are returned as errors.
func (s *ChatService) Reply(ctx context.Context, in ReplyInput) (*Reply, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, ErrEmptyMessage
	}

	persona, err := s.conversations.PersonaOf(ctx, in.UserID, in.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	uc, err := s.profiles.CoachingContext(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	unlimited := s.entitlements.IsUnlimited(ctx, in.UserID)
	if !unlimited {
		remaining, quotaErr := s.usage.Remaining(ctx, in.UserID)
		if quotaErr != nil {
			return nil, fmt.Errorf("check usage: %w", quotaErr)
		}
		if remaining <= 0 {
			return nil, ErrDailyLimitReached
		}
	}

	userMsg, err := s.conversations.AppendMessage(ctx, in.ConversationID, Message{
		Role:      RoleUser,
		Text:      in.Text,
		Image:     in.Image,
		Timestamp: s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("store user message: %w", err)
	}

	if !unlimited {
		if incErr := s.usage.Increment(ctx, in.UserID); incErr != nil {
			return nil, fmt.Errorf("increment usage: %w", incErr)
		}
	}

	history, err := s.conversations.History(ctx, in.ConversationID, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	reply := s.complete(ctx, persona, uc, history, in.Image)
	reply.UserMessage = userMsg

	stored, err := s.conversations.AppendMessage(ctx, in.ConversationID, reply.Message)
	if err != nil {
		return nil, fmt.Errorf("store coach message: %w", err)
	}
	reply.Message = *stored

	s.publish(in.UserID, in.ConversationID, persona, reply)
	return reply, nil
}

// Ask runs a one-shot completion without persistence or quota.
func (s *ChatService) Ask(ctx context.Context, persona Persona, uc UserContext, text string) *Reply {
	history := []Message{{Role: RoleUser, Text: text, Timestamp: s.now().UTC()}}
	reply := s.complete(ctx, persona, uc, history, nil)
	s.publish("", "", persona, reply)
	return reply
}

// complete builds the turns and calls the model, converting failures into a
// fallback reply.
func (s *ChatService) complete(ctx context.Context, persona Persona, uc UserContext, history []Message, image *Image) *Reply {
	turns, err := BuildTurns(BuildInstruction(persona, uc), history, image)
	if err == nil {
		var resp *llm.Response
		resp, err = s.completer.Complete(ctx, llm.Request{Contents: turns})
		if err == nil {
			return &Reply{
				Message:   Message{Role: RoleAssistant, Text: resp.Text, Timestamp: s.now().UTC()},
				Truncated: resp.Truncated,
				Attempts:  resp.Attempts,
			}
		}
	}

	kind := llm.KindOf(err)
	attempts := 0
	var llmErr *llm.Error
	if errors.As(err, &llmErr) {
		attempts = llmErr.Attempts
	}
	s.logger.Warn("coach reply fell back",
		zap.String("persona", string(persona)),
		zap.Stringer("kind", kind),
		zap.Int("attempts", attempts),
		zap.Error(err))

	return &Reply{
		Message:  Message{Role: RoleAssistant, Text: llm.FallbackMessage(err), Timestamp: s.now().UTC()},
		Failed:   true,
		Kind:     kind.String(),
		Attempts: attempts,
		kind:     kind,
	}
}

func (s *ChatService) publish(userID, conversationID string, persona Persona, reply *Reply) {
	if s.events == nil {
		return
	}
	s.events.Publish(TopicCompletionFinished, CompletionFinished{
		UserID:         userID,
		ConversationID: conversationID,
		Persona:        persona,
		Failed:         reply.Failed,
		Kind:           reply.kind,
		Truncated:      reply.Truncated,
		Attempts:       reply.Attempts,
	})
}
