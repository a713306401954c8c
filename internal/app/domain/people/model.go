// Package people defines the user's personal context: notes about people in
// their life and their own profile.
package people

import "time"

// Person is a note about someone the user knows.
type Person struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Name        string    `json:"name" db:"name"`
	Pronouns    string    `json:"pronouns,omitempty" db:"pronouns"`
	Description string    `json:"description,omitempty" db:"description"`
	HowKnown    string    `json:"how_known,omitempty" db:"how_known"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Profile is the user's own profile. Each user has at most one.
type Profile struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Name        string    `json:"name" db:"name"`
	Pronouns    string    `json:"pronouns,omitempty" db:"pronouns"`
	Description string    `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
