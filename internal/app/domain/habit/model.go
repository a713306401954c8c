// Package habit defines habits, their completion logs and the period
// arithmetic behind deduplication and streaks.
package habit

import (
	"fmt"
	"time"
)

// Frequency is how often a habit is meant to be completed.
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
	FrequencyCustom Frequency = "custom"
)

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyCustom:
		return true
	}
	return false
}

// Habit is a recurring activity a user wants to keep up. Deleting a habit
// only clears IsActive so its history stays intact.
type Habit struct {
	ID           string    `json:"id" db:"id"`
	UserID       string    `json:"user_id" db:"user_id"`
	Name         string    `json:"name" db:"name"`
	Frequency    Frequency `json:"frequency" db:"frequency"`
	ReminderTime string    `json:"reminder_time,omitempty" db:"reminder_time"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Log records one completion of a habit.
type Log struct {
	ID          string    `json:"id" db:"id"`
	HabitID     string    `json:"habit_id" db:"habit_id"`
	CompletedAt time.Time `json:"completed_at" db:"completed_at"`
}

// PeriodKey buckets an instant into the habit's eligibility period: a
// calendar day for daily and custom habits, an ISO week for weekly ones.
// Two completions with the same key count once.
func (h Habit) PeriodKey(t time.Time) string {
	t = t.UTC()
	if h.Frequency == FrequencyWeekly {
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	}
	return t.Format("2006-01-02")
}

// PreviousPeriod steps one eligibility period back from t.
func (h Habit) PreviousPeriod(t time.Time) time.Time {
	if h.Frequency == FrequencyWeekly {
		return t.AddDate(0, 0, -7)
	}
	return t.AddDate(0, 0, -1)
}
