// Package chat relays user messages to an external AI provider, persists the
// transcript and applies structured side effects such as creating
// commitments detected in the message.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tendhq/tend/internal/app/domain/conversation"
	commitmentsvc "github.com/tendhq/tend/internal/app/services/commitments"
	"github.com/tendhq/tend/internal/app/storage"
	"github.com/tendhq/tend/internal/errors"
	"github.com/tendhq/tend/pkg/logger"
)

// Service relays chat turns and records them.
type Service struct {
	provider      Provider
	conversations storage.ConversationStore
	habits        storage.HabitStore
	users         storage.UserStore
	commitments   *commitmentsvc.Service
	log           *logger.Logger
	nowFunc       func() time.Time
}

// New constructs a chat service.
func New(provider Provider, conversations storage.ConversationStore, habits storage.HabitStore, users storage.UserStore, commitments *commitmentsvc.Service, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("chat")
	}
	return &Service{
		provider:      provider,
		conversations: conversations,
		habits:        habits,
		users:         users,
		commitments:   commitments,
		log:           log,
		nowFunc:       func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the clock. Intended for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.nowFunc = now
	return s
}

// Result is one completed chat turn.
type Result struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
	Actions   []string  `json:"actions,omitempty"`
}

// Send relays a message to the provider, stores the turn and applies side
// effects. A provider failure surfaces as an upstream error before anything
// is stored, so a failed turn never appears in the transcript.
func (s *Service) Send(ctx context.Context, userID, message string) (Result, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Result{}, errors.Validation("message is required")
	}

	system, err := s.buildContext(ctx, userID)
	if err != nil {
		return Result{}, err
	}

	response, err := s.provider.Complete(ctx, system, message)
	if err != nil {
		return Result{}, err
	}

	var actions []string
	for _, parsed := range ParseCommitments(message, s.nowFunc()) {
		deadline := parsed.Deadline
		created, err := s.commitments.Create(ctx, userID, commitmentsvc.CreateParams{
			TaskDescription: parsed.TaskDescription,
			OriginalMessage: message,
			Deadline:        &deadline,
		})
		if err != nil {
			s.log.WithError(err).WithField("task", parsed.TaskDescription).Warn("commitment side effect failed")
			continue
		}
		actions = append(actions, fmt.Sprintf("commitment created: %s (due %s)", created.TaskDescription, deadline.Format("2006-01-02")))
	}

	stored, err := s.conversations.CreateConversation(ctx, conversation.Conversation{
		UserID:    userID,
		Message:   message,
		Response:  response,
		Timestamp: s.nowFunc(),
	})
	if err != nil {
		return Result{}, err
	}

	s.log.WithField("user_id", userID).WithField("conversation_id", stored.ID).Info("chat turn stored")
	return Result{
		ID:        stored.ID,
		Message:   stored.Message,
		Response:  stored.Response,
		Timestamp: stored.Timestamp,
		Actions:   actions,
	}, nil
}

// History returns recent conversation turns, newest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]conversation.Conversation, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.conversations.ListConversations(ctx, userID, limit)
}

// buildContext assembles the minimal system prompt: who the user is and what
// they are tracking.
func (s *Service) buildContext(ctx context.Context, userID string) (string, error) {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a friendly personal assistant helping %s track habits and commitments.\n", u.Username)

	habits, err := s.habits.ListHabits(ctx, userID, true)
	if err != nil {
		return "", err
	}
	if len(habits) > 0 {
		b.WriteString("Their current habits are:\n")
		for _, h := range habits {
			fmt.Fprintf(&b, "- %s (%s)\n", h.Name, h.Frequency)
		}
	}
	b.WriteString("Respond in a helpful, encouraging way.")
	return b.String(), nil
}
