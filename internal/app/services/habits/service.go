// Package habits manages habit records and completion logging.
package habits

import (
	"context"
	"strings"
	"time"

	"github.com/tendhq/tend/internal/app/domain/habit"
	"github.com/tendhq/tend/internal/app/services/analytics"
	"github.com/tendhq/tend/internal/app/storage"
	"github.com/tendhq/tend/internal/errors"
	"github.com/tendhq/tend/pkg/logger"
)

// Service manages habits for their owning user.
type Service struct {
	store   storage.HabitStore
	log     *logger.Logger
	nowFunc func() time.Time
}

// New constructs a habits service.
func New(store storage.HabitStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("habits")
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

// WithStatus is a habit annotated with its current-period state.
type WithStatus struct {
	habit.Habit
	CompletedToday bool `json:"completed_today"`
	CurrentStreak  int  `json:"current_streak"`
}

// Stats summarises a single habit's history.
type Stats struct {
	HabitID          string `json:"habit_id"`
	TotalCompletions int    `json:"total_completions"`
	CurrentStreak    int    `json:"current_streak"`
	CompletedToday   bool   `json:"completed_today"`
}

// Create registers a new habit for the user.
func (s *Service) Create(ctx context.Context, userID, name string, frequency habit.Frequency, reminderTime string) (habit.Habit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return habit.Habit{}, errors.Validation("name is required")
	}
	if frequency == "" {
		frequency = habit.FrequencyDaily
	}
	if !frequency.Valid() {
		return habit.Habit{}, errors.Validation("frequency must be daily, weekly or custom")
	}
	if reminderTime != "" {
		if _, err := time.Parse("15:04", reminderTime); err != nil {
			return habit.Habit{}, errors.Validation("reminder_time must be HH:MM")
		}
	}

	created, err := s.store.CreateHabit(ctx, habit.Habit{
		UserID:       userID,
		Name:         name,
		Frequency:    frequency,
		ReminderTime: reminderTime,
		IsActive:     true,
	})
	if err != nil {
		return habit.Habit{}, err
	}
	s.log.WithField("habit_id", created.ID).WithField("user_id", userID).Info("habit created")
	return created, nil
}

// Update applies a partial patch to a habit.
func (s *Service) Update(ctx context.Context, userID, id string, name *string, frequency *habit.Frequency, reminderTime *string) (habit.Habit, error) {
	h, err := s.store.GetHabit(ctx, userID, id)
	if err != nil {
		return habit.Habit{}, err
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return habit.Habit{}, errors.Validation("name cannot be empty")
		}
		h.Name = trimmed
	}
	if frequency != nil {
		if !frequency.Valid() {
			return habit.Habit{}, errors.Validation("frequency must be daily, weekly or custom")
		}
		h.Frequency = *frequency
	}
	if reminderTime != nil {
		trimmed := strings.TrimSpace(*reminderTime)
		if trimmed != "" {
			if _, err := time.Parse("15:04", trimmed); err != nil {
				return habit.Habit{}, errors.Validation("reminder_time must be HH:MM")
			}
		}
		h.ReminderTime = trimmed
	}

	updated, err := s.store.UpdateHabit(ctx, userID, h)
	if err != nil {
		return habit.Habit{}, err
	}
	s.log.WithField("habit_id", id).WithField("user_id", userID).Info("habit updated")
	return updated, nil
}

// Delete soft-deletes a habit. Its logs remain for historical analytics.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	h, err := s.store.GetHabit(ctx, userID, id)
	if err != nil {
		return err
	}
	if !h.IsActive {
		return nil
	}
	h.IsActive = false
	if _, err := s.store.UpdateHabit(ctx, userID, h); err != nil {
		return err
	}
	s.log.WithField("habit_id", id).WithField("user_id", userID).Info("habit deactivated")
	return nil
}

// Get fetches a single habit scoped to the owner.
func (s *Service) Get(ctx context.Context, userID, id string) (habit.Habit, error) {
	return s.store.GetHabit(ctx, userID, id)
}

// List returns the user's active habits with completed-today and streak
// annotations.
func (s *Service) List(ctx context.Context, userID string) ([]WithStatus, error) {
	habits, err := s.store.ListHabits(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	now := s.nowFunc()

	out := make([]WithStatus, 0, len(habits))
	for _, h := range habits {
		logs, err := s.store.ListHabitLogs(ctx, h.ID, time.Time{})
		if err != nil {
			return nil, err
		}
		out = append(out, WithStatus{
			Habit:          h,
			CompletedToday: analytics.CompletedInPeriod(h, logs, now),
			CurrentStreak:  analytics.Streak(h, logs, now),
		})
	}
	return out, nil
}

// Log appends a completion for the current eligible period. Logging an
// already-completed period is reported, not treated as an error, so two tabs
// marking the same habit stay idempotent.
func (s *Service) Log(ctx context.Context, userID, id string) (habit.Log, bool, error) {
	h, err := s.store.GetHabit(ctx, userID, id)
	if err != nil {
		return habit.Log{}, false, err
	}
	if !h.IsActive {
		return habit.Log{}, false, errors.NotFound("habit")
	}

	now := s.nowFunc()
	logs, err := s.store.ListHabitLogs(ctx, id, now.AddDate(0, 0, -8))
	if err != nil {
		return habit.Log{}, false, err
	}
	if analytics.CompletedInPeriod(h, logs, now) {
		// Already counted this period; the aggregator dedups by period, so
		// skipping the insert keeps the log clean without changing totals.
		return habit.Log{}, true, nil
	}

	created, err := s.store.CreateHabitLog(ctx, habit.Log{HabitID: id, CompletedAt: now})
	if err != nil {
		return habit.Log{}, false, err
	}
	s.log.WithField("habit_id", id).WithField("user_id", userID).Info("habit completion logged")
	return created, false, nil
}

// Stats reports deduped totals and the current streak for one habit.
func (s *Service) Stats(ctx context.Context, userID, id string) (Stats, error) {
	h, err := s.store.GetHabit(ctx, userID, id)
	if err != nil {
		return Stats{}, err
	}
	logs, err := s.store.ListHabitLogs(ctx, id, time.Time{})
	if err != nil {
		return Stats{}, err
	}
	now := s.nowFunc()
	return Stats{
		HabitID:          id,
		TotalCompletions: analytics.DedupCompletions(h, logs),
		CurrentStreak:    analytics.Streak(h, logs, now),
		CompletedToday:   analytics.CompletedInPeriod(h, logs, now),
	}, nil
}
