// Package analytics computes completion rates, streaks and mood trends from
// raw stored rows, per user and per time window.
package analytics

import (
	"context"
	"time"

	"github.com/tendhq/tend/internal/app/domain/commitment"
	"github.com/tendhq/tend/internal/app/storage"
	"github.com/tendhq/tend/internal/errors"
	"github.com/tendhq/tend/pkg/logger"
)

// DefaultWindowDays is used when a request does not specify a window.
const DefaultWindowDays = 30

// Service aggregates analytics on demand. It holds no state of its own: every
// report is a pure function of store contents at the time of the call.
type Service struct {
	habits        storage.HabitStore
	commitments   storage.CommitmentStore
	checkins      storage.CheckInStore
	conversations storage.ConversationStore
	log           *logger.Logger

	// nowFunc supplies "today"; tests override it.
	nowFunc func() time.Time
}

// New constructs an analytics service.
func New(habits storage.HabitStore, commitments storage.CommitmentStore, checkins storage.CheckInStore, conversations storage.ConversationStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("analytics")
	}
	return &Service{
		habits:        habits,
		commitments:   commitments,
		checkins:      checkins,
		conversations: conversations,
		log:           log,
		nowFunc:       func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the clock. Intended for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.nowFunc = now
	return s
}

// HabitReport is the per-habit aggregate over a window.
type HabitReport struct {
	HabitID           string `json:"habit_id"`
	HabitName         string `json:"habit_name"`
	TotalCompletions  int    `json:"total_completions"`
	TotalEligibleDays int    `json:"total_eligible_days"`
	CompletionRate    int    `json:"completion_rate"`
	CurrentStreak     int    `json:"current_streak"`
}

// CommitmentReport aggregates commitment activity over a window.
type CommitmentReport struct {
	TotalCreated   int `json:"total_created"`
	TotalCompleted int `json:"total_completed"`
	TotalPending   int `json:"total_pending"`
	TotalOverdue   int `json:"total_overdue"`
	CompletionRate int `json:"completion_rate"`
}

// MoodReport is the ordered mood trend plus its average.
type MoodReport struct {
	Trend       []MoodPoint `json:"trend"`
	AverageMood float64     `json:"average_mood"`
}

// Overview is the dashboard summary.
type Overview struct {
	HabitsCompletedToday      int    `json:"habits_completed_today"`
	CommitmentsCompletedToday int    `json:"commitments_completed_today"`
	LongestStreak             int    `json:"longest_streak"`
	CurrentMood               *int   `json:"current_mood"`
	TotalConversations        int    `json:"total_conversations"`
	PendingCommitments        int    `json:"pending_commitments"`
	OverdueCommitments        int    `json:"overdue_commitments"`
}

// Habits reports per-habit completion over the window.
func (s *Service) Habits(ctx context.Context, userID string, days int) ([]HabitReport, error) {
	if days <= 0 {
		days = DefaultWindowDays
	}
	now := s.nowFunc()

	habits, err := s.habits.ListHabits(ctx, userID, true)
	if err != nil {
		return nil, wrapStore(err)
	}

	since := now.AddDate(0, 0, -(days - 1)).Truncate(24 * time.Hour)
	reports := make([]HabitReport, 0, len(habits))
	for _, h := range habits {
		logs, err := s.habits.ListHabitLogs(ctx, h.ID, since)
		if err != nil {
			return nil, wrapStore(err)
		}
		allLogs, err := s.habits.ListHabitLogs(ctx, h.ID, time.Time{})
		if err != nil {
			return nil, wrapStore(err)
		}

		completions := DedupCompletions(h, logs)
		eligible := EligiblePeriods(h, now, days)
		reports = append(reports, HabitReport{
			HabitID:           h.ID,
			HabitName:         h.Name,
			TotalCompletions:  completions,
			TotalEligibleDays: eligible,
			CompletionRate:    CompletionRate(completions, eligible),
			CurrentStreak:     Streak(h, allLogs, now),
		})
	}
	return reports, nil
}

// Commitments reports commitment activity over the window.
func (s *Service) Commitments(ctx context.Context, userID string, days int) (CommitmentReport, error) {
	if days <= 0 {
		days = DefaultWindowDays
	}
	now := s.nowFunc()
	since := now.AddDate(0, 0, -(days - 1)).Truncate(24 * time.Hour)

	all, err := s.commitments.ListCommitments(ctx, userID)
	if err != nil {
		return CommitmentReport{}, wrapStore(err)
	}

	var report CommitmentReport
	for _, c := range all {
		if c.CreatedAt.Before(since) {
			continue
		}
		report.TotalCreated++
		switch {
		case c.Status == commitment.StatusCompleted:
			report.TotalCompleted++
		case c.OverdueAt(now):
			report.TotalOverdue++
			report.TotalPending++
		default:
			report.TotalPending++
		}
	}
	report.CompletionRate = CompletionRate(report.TotalCompleted, report.TotalCreated)
	return report, nil
}

// Mood reports the mood trend over the window. A window with zero check-ins
// yields an empty trend, which is distinct from a store failure.
func (s *Service) Mood(ctx context.Context, userID string, days int) (MoodReport, error) {
	if days <= 0 {
		days = DefaultWindowDays
	}
	now := s.nowFunc()
	since := now.AddDate(0, 0, -(days - 1)).Truncate(24 * time.Hour)

	checkins, err := s.checkins.ListCheckIns(ctx, userID, since)
	if err != nil {
		return MoodReport{}, wrapStore(err)
	}

	trend := MoodTrend(checkins)
	report := MoodReport{Trend: trend}
	if len(trend) > 0 {
		sum := 0
		for _, p := range trend {
			sum += p.Mood
		}
		report.AverageMood = float64(sum) / float64(len(trend))
	}
	return report, nil
}

// Overview reports the dashboard summary for "today".
func (s *Service) Overview(ctx context.Context, userID string) (Overview, error) {
	now := s.nowFunc()
	var overview Overview

	habits, err := s.habits.ListHabits(ctx, userID, true)
	if err != nil {
		return Overview{}, wrapStore(err)
	}
	for _, h := range habits {
		logs, err := s.habits.ListHabitLogs(ctx, h.ID, time.Time{})
		if err != nil {
			return Overview{}, wrapStore(err)
		}
		if CompletedInPeriod(h, logs, now) {
			overview.HabitsCompletedToday++
		}
		if streak := Streak(h, logs, now); streak > overview.LongestStreak {
			overview.LongestStreak = streak
		}
	}

	commitments, err := s.commitments.ListCommitments(ctx, userID)
	if err != nil {
		return Overview{}, wrapStore(err)
	}
	todayKey := now.UTC().Format("2006-01-02")
	for _, c := range commitments {
		switch {
		case c.Status == commitment.StatusCompleted:
			if c.CompletedAt != nil && c.CompletedAt.UTC().Format("2006-01-02") == todayKey {
				overview.CommitmentsCompletedToday++
			}
		case c.OverdueAt(now):
			overview.OverdueCommitments++
			overview.PendingCommitments++
		default:
			overview.PendingCommitments++
		}
	}

	// Current mood is today's latest check-in only; no check-in today means
	// null, never a stale or zero value.
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	todays, err := s.checkins.ListCheckIns(ctx, userID, dayStart)
	if err != nil {
		return Overview{}, wrapStore(err)
	}
	for _, c := range todays {
		if c.Day() == todayKey {
			mood := c.Mood
			overview.CurrentMood = &mood
		}
	}

	count, err := s.conversations.CountConversations(ctx, userID)
	if err != nil {
		return Overview{}, wrapStore(err)
	}
	overview.TotalConversations = count

	return overview, nil
}

// wrapStore classifies a store failure. Anything that is not already a
// service error becomes data_unavailable so callers can tell "fetch failed"
// apart from "zero activity".
func wrapStore(err error) error {
	if svcErr := errors.GetServiceError(err); svcErr != nil {
		return err
	}
	return errors.DataUnavailable(err)
}
