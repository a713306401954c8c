// Package commitments manages commitment records and their status
// transitions.
package commitments

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/tendhq/tend/internal/app/domain/commitment"
	"github.com/tendhq/tend/internal/app/storage"
	"github.com/tendhq/tend/internal/errors"
	"github.com/tendhq/tend/pkg/logger"
)

// SortKey selects the tie-break ordering for listings.
type SortKey string

const (
	SortByDeadline SortKey = "deadline"
	SortByCreated  SortKey = "created"
)

// Service manages commitments for their owning user.
type Service struct {
	store   storage.CommitmentStore
	log     *logger.Logger
	nowFunc func() time.Time
}

// New constructs a commitments service.
func New(store storage.CommitmentStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("commitments")
	}
	return &Service{
		store:   store,
		log:     log,
		nowFunc: func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the clock. Intended for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.nowFunc = now
	return s
}

// WithDerived is a commitment annotated with its read-time classification.
type WithDerived struct {
	commitment.Commitment
	Overdue  bool `json:"overdue"`
	DueToday bool `json:"due_today"`
}

// CreateParams are the caller-supplied fields for a new commitment.
type CreateParams struct {
	TaskDescription   string
	OriginalMessage   string
	Deadline          *time.Time
	IsRecurring       bool
	RecurrencePattern commitment.RecurrencePattern
}

// Create registers a pending commitment. A recurring commitment without a
// recurrence pattern is rejected.
func (s *Service) Create(ctx context.Context, userID string, params CreateParams) (commitment.Commitment, error) {
	params.TaskDescription = strings.TrimSpace(params.TaskDescription)
	if params.TaskDescription == "" {
		return commitment.Commitment{}, errors.Validation("task_description is required")
	}
	if params.IsRecurring {
		if params.RecurrencePattern == "" {
			return commitment.Commitment{}, errors.Validation("recurrence_pattern is required for a recurring commitment")
		}
		if !params.RecurrencePattern.Valid() {
			return commitment.Commitment{}, errors.Validation("recurrence_pattern must be daily, weekly, monthly or custom")
		}
	} else {
		params.RecurrencePattern = ""
	}

	created, err := s.store.CreateCommitment(ctx, commitment.Commitment{
		UserID:            userID,
		TaskDescription:   params.TaskDescription,
		OriginalMessage:   params.OriginalMessage,
		Deadline:          params.Deadline,
		Status:            commitment.StatusPending,
		IsRecurring:       params.IsRecurring,
		RecurrencePattern: params.RecurrencePattern,
	})
	if err != nil {
		return commitment.Commitment{}, err
	}
	s.log.WithField("commitment_id", created.ID).WithField("user_id", userID).Info("commitment created")
	return created, nil
}

// UpdateParams is a partial patch; nil fields are left unchanged.
type UpdateParams struct {
	TaskDescription   *string
	Deadline          *time.Time
	ClearDeadline     bool
	IsRecurring       *bool
	RecurrencePattern *commitment.RecurrencePattern
}

// Update patches a commitment. Turning is_recurring off clears the pattern.
func (s *Service) Update(ctx context.Context, userID, id string, params UpdateParams) (commitment.Commitment, error) {
	c, err := s.store.GetCommitment(ctx, userID, id)
	if err != nil {
		return commitment.Commitment{}, err
	}

	if params.TaskDescription != nil {
		trimmed := strings.TrimSpace(*params.TaskDescription)
		if trimmed == "" {
			return commitment.Commitment{}, errors.Validation("task_description cannot be empty")
		}
		c.TaskDescription = trimmed
	}
	if params.ClearDeadline {
		c.Deadline = nil
	} else if params.Deadline != nil {
		c.Deadline = params.Deadline
	}
	if params.RecurrencePattern != nil {
		if !params.RecurrencePattern.Valid() {
			return commitment.Commitment{}, errors.Validation("recurrence_pattern must be daily, weekly, monthly or custom")
		}
		c.RecurrencePattern = *params.RecurrencePattern
		c.IsRecurring = true
	}
	if params.IsRecurring != nil {
		c.IsRecurring = *params.IsRecurring
		if !c.IsRecurring {
			c.RecurrencePattern = ""
		} else if c.RecurrencePattern == "" {
			return commitment.Commitment{}, errors.Validation("recurrence_pattern is required for a recurring commitment")
		}
	}

	updated, err := s.store.UpdateCommitment(ctx, userID, c)
	if err != nil {
		return commitment.Commitment{}, err
	}
	s.log.WithField("commitment_id", id).WithField("user_id", userID).Info("commitment updated")
	return updated, nil
}

// Complete marks a commitment completed. Completing an already-completed
// commitment is a no-op, not an error.
func (s *Service) Complete(ctx context.Context, userID, id string) (commitment.Commitment, error) {
	c, err := s.store.GetCommitment(ctx, userID, id)
	if err != nil {
		return commitment.Commitment{}, err
	}
	if c.Status == commitment.StatusCompleted {
		return c, nil
	}

	now := s.nowFunc()
	c.Status = commitment.StatusCompleted
	c.CompletedAt = &now
	updated, err := s.store.UpdateCommitment(ctx, userID, c)
	if err != nil {
		return commitment.Commitment{}, err
	}
	s.log.WithField("commitment_id", id).WithField("user_id", userID).Info("commitment completed")
	return updated, nil
}

// Delete removes a commitment permanently.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteCommitment(ctx, userID, id); err != nil {
		return err
	}
	s.log.WithField("commitment_id", id).WithField("user_id", userID).Info("commitment deleted")
	return nil
}

// Get fetches a single commitment with its derived classification.
func (s *Service) Get(ctx context.Context, userID, id string) (WithDerived, error) {
	c, err := s.store.GetCommitment(ctx, userID, id)
	if err != nil {
		return WithDerived{}, err
	}
	return s.derive(c), nil
}

// List returns the user's commitments in display priority order: overdue
// first, then due today, then the rest, tie-broken by the requested sort key.
func (s *Service) List(ctx context.Context, userID string, sortKey SortKey, descending bool) ([]WithDerived, error) {
	all, err := s.store.ListCommitments(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]WithDerived, 0, len(all))
	for _, c := range all {
		out = append(out, s.derive(c))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if pi, pj := priorityBucket(out[i]), priorityBucket(out[j]); pi != pj {
			return pi < pj
		}
		less := tieBreak(out[i].Commitment, out[j].Commitment, sortKey)
		if descending {
			return !less
		}
		return less
	})
	return out, nil
}

func (s *Service) derive(c commitment.Commitment) WithDerived {
	now := s.nowFunc()
	return WithDerived{
		Commitment: c,
		Overdue:    c.OverdueAt(now),
		DueToday:   c.Status == commitment.StatusPending && c.DueOn(now),
	}
}

func priorityBucket(c WithDerived) int {
	switch {
	case c.Overdue:
		return 0
	case c.DueToday:
		return 1
	default:
		return 2
	}
}

func tieBreak(a, b commitment.Commitment, key SortKey) bool {
	if key == SortByDeadline {
		switch {
		case a.Deadline == nil && b.Deadline == nil:
			return a.CreatedAt.Before(b.CreatedAt)
		case a.Deadline == nil:
			return false // deadline-less items sort after dated ones
		case b.Deadline == nil:
			return true
		default:
			return a.Deadline.Before(*b.Deadline)
		}
	}
	return a.CreatedAt.Before(b.CreatedAt)
}
