package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tendhq/tend/internal/app/domain/checkin"
	"github.com/tendhq/tend/internal/app/domain/commitment"
	"github.com/tendhq/tend/internal/app/domain/conversation"
	"github.com/tendhq/tend/internal/app/domain/habit"
	"github.com/tendhq/tend/internal/app/domain/people"
	"github.com/tendhq/tend/internal/app/domain/user"
	"github.com/tendhq/tend/internal/app/storage"
	"github.com/tendhq/tend/internal/errors"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local
// development.
type Store struct {
	mu            sync.RWMutex
	users         map[string]user.User
	usersByName   map[string]string
	usersByEmail  map[string]string
	habits        map[string]habit.Habit
	habitLogs     map[string][]habit.Log
	commitments   map[string]commitment.Commitment
	checkins      map[string][]checkin.CheckIn
	conversations map[string][]conversation.Conversation
	persons       map[string]people.Person
	profiles      map[string]people.Profile

	// NowFunc supplies timestamps; tests override it to pin the clock.
	NowFunc func() time.Time
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.HabitStore = (*Store)(nil)
var _ storage.CommitmentStore = (*Store)(nil)
var _ storage.CheckInStore = (*Store)(nil)
var _ storage.ConversationStore = (*Store)(nil)
var _ storage.PeopleStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		users:         make(map[string]user.User),
		usersByName:   make(map[string]string),
		usersByEmail:  make(map[string]string),
		habits:        make(map[string]habit.Habit),
		habitLogs:     make(map[string][]habit.Log),
		commitments:   make(map[string]commitment.Commitment),
		checkins:      make(map[string][]checkin.CheckIn),
		conversations: make(map[string][]conversation.Conversation),
		persons:       make(map[string]people.Person),
		profiles:      make(map[string]people.Profile),
		NowFunc:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) now() time.Time { return s.NowFunc() }

// UserStore implementation ----------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nameKey := strings.ToLower(u.Username)
	emailKey := strings.ToLower(u.Email)
	if _, exists := s.usersByName[nameKey]; exists {
		return user.User{}, errors.Conflict("username already registered")
	}
	if _, exists := s.usersByEmail[emailKey]; exists {
		return user.User{}, errors.Conflict("email already registered")
	}

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = s.now()

	s.users[u.ID] = u
	s.usersByName[nameKey] = u.ID
	s.usersByEmail[emailKey] = u.ID
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, errors.NotFound("user")
	}
	return u, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByName[strings.ToLower(username)]
	if !ok {
		return user.User{}, errors.NotFound("user")
	}
	return s.users[id], nil
}

// HabitStore implementation ---------------------------------------------------

func (s *Store) CreateHabit(_ context.Context, h habit.Habit) (habit.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	h.CreatedAt = s.now()
	s.habits[h.ID] = h
	return h, nil
}

func (s *Store) UpdateHabit(_ context.Context, userID string, h habit.Habit) (habit.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.habits[h.ID]
	if !ok || original.UserID != userID {
		return habit.Habit{}, errors.NotFound("habit")
	}
	h.UserID = original.UserID
	h.CreatedAt = original.CreatedAt
	s.habits[h.ID] = h
	return h, nil
}

func (s *Store) GetHabit(_ context.Context, userID, id string) (habit.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.habits[id]
	if !ok || h.UserID != userID {
		return habit.Habit{}, errors.NotFound("habit")
	}
	return h, nil
}

func (s *Store) ListHabits(_ context.Context, userID string, activeOnly bool) ([]habit.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []habit.Habit
	for _, h := range s.habits {
		if h.UserID != userID {
			continue
		}
		if activeOnly && !h.IsActive {
			continue
		}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CreateHabitLog(_ context.Context, log habit.Log) (habit.Log, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CompletedAt.IsZero() {
		log.CompletedAt = s.now()
	}
	s.habitLogs[log.HabitID] = append(s.habitLogs[log.HabitID], log)
	return log, nil
}

func (s *Store) ListHabitLogs(_ context.Context, habitID string, since time.Time) ([]habit.Log, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []habit.Log
	for _, log := range s.habitLogs[habitID] {
		if !since.IsZero() && log.CompletedAt.Before(since) {
			continue
		}
		out = append(out, log)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.Before(out[j].CompletedAt) })
	return out, nil
}

// CommitmentStore implementation ----------------------------------------------

func (s *Store) CreateCommitment(_ context.Context, c commitment.Commitment) (commitment.Commitment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = s.now()
	s.commitments[c.ID] = c
	return c, nil
}

func (s *Store) UpdateCommitment(_ context.Context, userID string, c commitment.Commitment) (commitment.Commitment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.commitments[c.ID]
	if !ok || original.UserID != userID {
		return commitment.Commitment{}, errors.NotFound("commitment")
	}
	c.UserID = original.UserID
	c.CreatedAt = original.CreatedAt
	s.commitments[c.ID] = c
	return c, nil
}

func (s *Store) GetCommitment(_ context.Context, userID, id string) (commitment.Commitment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.commitments[id]
	if !ok || c.UserID != userID {
		return commitment.Commitment{}, errors.NotFound("commitment")
	}
	return c, nil
}

func (s *Store) ListCommitments(_ context.Context, userID string) ([]commitment.Commitment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []commitment.Commitment
	for _, c := range s.commitments {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteCommitment(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.commitments[id]
	if !ok || c.UserID != userID {
		return errors.NotFound("commitment")
	}
	delete(s.commitments, id)
	return nil
}

// CheckInStore implementation -------------------------------------------------

func (s *Store) CreateCheckIn(_ context.Context, c checkin.CheckIn) (checkin.CheckIn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = s.now()
	}
	s.checkins[c.UserID] = append(s.checkins[c.UserID], c)
	return c, nil
}

func (s *Store) ListCheckIns(_ context.Context, userID string, since time.Time) ([]checkin.CheckIn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []checkin.CheckIn
	for _, c := range s.checkins[userID] {
		if !since.IsZero() && c.Timestamp.Before(since) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// ConversationStore implementation --------------------------------------------

func (s *Store) CreateConversation(_ context.Context, c conversation.Conversation) (conversation.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = s.now()
	}
	s.conversations[c.UserID] = append(s.conversations[c.UserID], c)
	return c, nil
}

func (s *Store) ListConversations(_ context.Context, userID string, limit int) ([]conversation.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.conversations[userID]
	out := make([]conversation.Conversation, len(rows))
	copy(out, rows)
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CountConversations(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations[userID]), nil
}

// PeopleStore implementation --------------------------------------------------

func (s *Store) CreatePerson(_ context.Context, p people.Person) (people.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := s.now()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.persons[p.ID] = p
	return p, nil
}

func (s *Store) UpdatePerson(_ context.Context, userID string, p people.Person) (people.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.persons[p.ID]
	if !ok || original.UserID != userID {
		return people.Person{}, errors.NotFound("person")
	}
	p.UserID = original.UserID
	p.CreatedAt = original.CreatedAt
	p.UpdatedAt = s.now()
	s.persons[p.ID] = p
	return p, nil
}

func (s *Store) GetPerson(_ context.Context, userID, id string) (people.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.persons[id]
	if !ok || p.UserID != userID {
		return people.Person{}, errors.NotFound("person")
	}
	return p, nil
}

func (s *Store) ListPeople(_ context.Context, userID string) ([]people.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []people.Person
	for _, p := range s.persons {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeletePerson(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.persons[id]
	if !ok || p.UserID != userID {
		return errors.NotFound("person")
	}
	delete(s.persons, id)
	return nil
}

func (s *Store) CreateProfile(_ context.Context, p people.Profile) (people.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.profiles[p.UserID]; exists {
		return people.Profile{}, errors.Conflict("profile already exists")
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := s.now()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.profiles[p.UserID] = p
	return p, nil
}

func (s *Store) UpdateProfile(_ context.Context, userID string, p people.Profile) (people.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.profiles[userID]
	if !ok {
		return people.Profile{}, errors.NotFound("profile")
	}
	p.ID = original.ID
	p.UserID = original.UserID
	p.CreatedAt = original.CreatedAt
	p.UpdatedAt = s.now()
	s.profiles[userID] = p
	return p, nil
}

func (s *Store) GetProfile(_ context.Context, userID string) (people.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return people.Profile{}, errors.NotFound("profile")
	}
	return p, nil
}
