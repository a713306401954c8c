// Package commitment defines tasks a user has committed to.
package commitment

import "time"

// Status is the persisted lifecycle state. Overdue is never stored; it is
// derived from the deadline at read time.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// RecurrencePattern is how often a recurring commitment repeats.
type RecurrencePattern string

const (
	RecurDaily   RecurrencePattern = "daily"
	RecurWeekly  RecurrencePattern = "weekly"
	RecurMonthly RecurrencePattern = "monthly"
	RecurCustom  RecurrencePattern = "custom"
)

// Valid reports whether p is a known recurrence pattern.
func (p RecurrencePattern) Valid() bool {
	switch p {
	case RecurDaily, RecurWeekly, RecurMonthly, RecurCustom:
		return true
	}
	return false
}

// Commitment is a task the user has committed to, either entered directly or
// extracted from a chat message.
type Commitment struct {
	ID                string            `json:"id" db:"id"`
	UserID            string            `json:"user_id" db:"user_id"`
	TaskDescription   string            `json:"task_description" db:"task_description"`
	OriginalMessage   string            `json:"original_message,omitempty" db:"original_message"`
	Deadline          *time.Time        `json:"deadline" db:"deadline"`
	Status            Status            `json:"status" db:"status"`
	IsRecurring       bool              `json:"is_recurring" db:"is_recurring"`
	RecurrencePattern RecurrencePattern `json:"recurrence_pattern,omitempty" db:"recurrence_pattern"`
	CreatedAt         time.Time         `json:"created_at" db:"created_at"`
	CompletedAt       *time.Time        `json:"completed_at" db:"completed_at"`
}

// OverdueAt reports whether the commitment is pending with a deadline in the
// past. Completing a commitment immediately stops it being overdue.
func (c Commitment) OverdueAt(now time.Time) bool {
	return c.Status == StatusPending && c.Deadline != nil && c.Deadline.Before(now)
}

// DueOn reports whether the deadline falls on the same UTC day as now.
func (c Commitment) DueOn(now time.Time) bool {
	if c.Deadline == nil {
		return false
	}
	y1, m1, d1 := c.Deadline.UTC().Date()
	y2, m2, d2 := now.UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
