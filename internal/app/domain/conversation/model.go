// Package conversation defines the stored chat transcript.
package conversation

import "time"

// Conversation is one completed chat turn: the user message and the
// assistant response, stored together.
type Conversation struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Message   string    `json:"message" db:"message"`
	Response  string    `json:"response" db:"response"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}
