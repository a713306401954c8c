// Package checkin defines daily mood check-ins.
package checkin

import "time"

// Mood bounds, inclusive. 1 is the lowest mood, 5 the highest.
const (
	MoodMin = 1
	MoodMax = 5
)

// CheckIn is one mood entry. Several may exist per day; readers that want a
// single daily value take the latest.
type CheckIn struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Mood      int       `json:"mood" db:"mood"`
	Notes     string    `json:"notes,omitempty" db:"notes"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// Day returns the UTC calendar day of the check-in.
func (c CheckIn) Day() string {
	return c.Timestamp.UTC().Format("2006-01-02")
}
