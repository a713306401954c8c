package storage

import (
	"context"
	"time"

	"github.com/tendhq/tend/internal/app/domain/checkin"
	"github.com/tendhq/tend/internal/app/domain/commitment"
	"github.com/tendhq/tend/internal/app/domain/conversation"
	"github.com/tendhq/tend/internal/app/domain/habit"
	"github.com/tendhq/tend/internal/app/domain/people"
	"github.com/tendhq/tend/internal/app/domain/user"
)

// Every read and mutation below that touches user-owned rows takes the owner
// user ID and scopes the query to it. A row owned by another user is
// indistinguishable from an absent row: stores return a not-found error for
// both.

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	GetUserByUsername(ctx context.Context, username string) (user.User, error)
}

// HabitStore persists habits and their completion logs.
type HabitStore interface {
	CreateHabit(ctx context.Context, h habit.Habit) (habit.Habit, error)
	UpdateHabit(ctx context.Context, userID string, h habit.Habit) (habit.Habit, error)
	GetHabit(ctx context.Context, userID, id string) (habit.Habit, error)
	ListHabits(ctx context.Context, userID string, activeOnly bool) ([]habit.Habit, error)

	CreateHabitLog(ctx context.Context, log habit.Log) (habit.Log, error)
	ListHabitLogs(ctx context.Context, habitID string, since time.Time) ([]habit.Log, error)
}

// CommitmentStore persists commitments.
type CommitmentStore interface {
	CreateCommitment(ctx context.Context, c commitment.Commitment) (commitment.Commitment, error)
	UpdateCommitment(ctx context.Context, userID string, c commitment.Commitment) (commitment.Commitment, error)
	GetCommitment(ctx context.Context, userID, id string) (commitment.Commitment, error)
	ListCommitments(ctx context.Context, userID string) ([]commitment.Commitment, error)
	DeleteCommitment(ctx context.Context, userID, id string) error
}

// CheckInStore persists daily check-ins.
type CheckInStore interface {
	CreateCheckIn(ctx context.Context, c checkin.CheckIn) (checkin.CheckIn, error)
	ListCheckIns(ctx context.Context, userID string, since time.Time) ([]checkin.CheckIn, error)
}

// ConversationStore persists the append-only chat transcript.
type ConversationStore interface {
	CreateConversation(ctx context.Context, c conversation.Conversation) (conversation.Conversation, error)
	ListConversations(ctx context.Context, userID string, limit int) ([]conversation.Conversation, error)
	CountConversations(ctx context.Context, userID string) (int, error)
}

// PeopleStore persists people notes and the user profile.
type PeopleStore interface {
	CreatePerson(ctx context.Context, p people.Person) (people.Person, error)
	UpdatePerson(ctx context.Context, userID string, p people.Person) (people.Person, error)
	GetPerson(ctx context.Context, userID, id string) (people.Person, error)
	ListPeople(ctx context.Context, userID string) ([]people.Person, error)
	DeletePerson(ctx context.Context, userID, id string) error

	CreateProfile(ctx context.Context, p people.Profile) (people.Profile, error)
	UpdateProfile(ctx context.Context, userID string, p people.Profile) (people.Profile, error)
	GetProfile(ctx context.Context, userID string) (people.Profile, error)
}
