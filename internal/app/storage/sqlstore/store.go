// Package sqlstore implements the storage interfaces on a relational
// database via sqlx. PostgreSQL and SQLite are supported; queries are
// written with ? placeholders and rebound per driver.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/tendhq/tend/internal/app/domain/checkin"
	"github.com/tendhq/tend/internal/app/domain/commitment"
	"github.com/tendhq/tend/internal/app/domain/conversation"
	"github.com/tendhq/tend/internal/app/domain/habit"
	"github.com/tendhq/tend/internal/app/domain/people"
	"github.com/tendhq/tend/internal/app/domain/user"
	"github.com/tendhq/tend/internal/app/storage"
	"github.com/tendhq/tend/internal/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS habits (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL REFERENCES users(id),
	name          TEXT NOT NULL,
	frequency     TEXT NOT NULL,
	reminder_time TEXT NOT NULL DEFAULT '',
	is_active     BOOLEAN NOT NULL DEFAULT TRUE,
	created_at    TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_habits_user ON habits(user_id);

CREATE TABLE IF NOT EXISTS habit_logs (
	id           TEXT PRIMARY KEY,
	habit_id     TEXT NOT NULL REFERENCES habits(id),
	completed_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_habit_logs_habit ON habit_logs(habit_id, completed_at);

CREATE TABLE IF NOT EXISTS commitments (
	id                 TEXT PRIMARY KEY,
	user_id            TEXT NOT NULL REFERENCES users(id),
	task_description   TEXT NOT NULL,
	original_message   TEXT NOT NULL DEFAULT '',
	deadline           TIMESTAMP,
	status             TEXT NOT NULL,
	is_recurring       BOOLEAN NOT NULL DEFAULT FALSE,
	recurrence_pattern TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMP NOT NULL,
	completed_at       TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_commitments_user ON commitments(user_id);

CREATE TABLE IF NOT EXISTS checkins (
	id        TEXT PRIMARY KEY,
	user_id   TEXT NOT NULL REFERENCES users(id),
	mood      INTEGER NOT NULL,
	notes     TEXT NOT NULL DEFAULT '',
	timestamp TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_checkins_user ON checkins(user_id, timestamp);

CREATE TABLE IF NOT EXISTS conversations (
	id        TEXT PRIMARY KEY,
	user_id   TEXT NOT NULL REFERENCES users(id),
	message   TEXT NOT NULL,
	response  TEXT NOT NULL,
	timestamp TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id, timestamp);

CREATE TABLE IF NOT EXISTS persons (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL REFERENCES users(id),
	name        TEXT NOT NULL,
	pronouns    TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	how_known   TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_persons_user ON persons(user_id);

CREATE TABLE IF NOT EXISTS profiles (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL UNIQUE REFERENCES users(id),
	name        TEXT NOT NULL,
	pronouns    TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL
);
`

// Store is a SQL-backed implementation of every storage interface.
type Store struct {
	db *sqlx.DB

	// NowFunc supplies timestamps; tests override it to pin the clock.
	NowFunc func() time.Time
}

var (
	_ storage.UserStore         = (*Store)(nil)
	_ storage.HabitStore        = (*Store)(nil)
	_ storage.CommitmentStore   = (*Store)(nil)
	_ storage.CheckInStore      = (*Store)(nil)
	_ storage.ConversationStore = (*Store)(nil)
	_ storage.PeopleStore       = (*Store)(nil)
)

// Open connects to the database, verifies the connection and applies the
// schema. Supported drivers are "postgres" and "sqlite".
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if driver == "sqlite" {
		// modernc sqlite serialises writes; a single connection avoids
		// SQLITE_BUSY under concurrent handlers.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{
		db:      db,
		NowFunc: func() time.Time { return time.Now().UTC() },
	}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) now() time.Time { return s.NowFunc() }

func (s *Store) rebind(query string) string { return s.db.Rebind(query) }

// --- users ---

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	var taken int
	err := s.db.GetContext(ctx, &taken,
		s.rebind(`SELECT COUNT(*) FROM users WHERE username = ? OR email = ?`), u.Username, u.Email)
	if err != nil {
		return user.User{}, errors.DataUnavailable(err)
	}
	if taken > 0 {
		return user.User{}, errors.Conflict("username or email already registered")
	}

	u.ID = uuid.NewString()
	u.CreatedAt = s.now()
	_, err = s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO users (id, username, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`),
		u.ID, u.Username, u.Email, u.PasswordHash, u.CreatedAt)
	if err != nil {
		return user.User{}, errors.DataUnavailable(err)
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	var u user.User
	err := s.db.GetContext(ctx, &u, s.rebind(`SELECT * FROM users WHERE id = ?`), id)
	if err == sql.ErrNoRows {
		return user.User{}, errors.NotFound("user")
	}
	if err != nil {
		return user.User{}, errors.DataUnavailable(err)
	}
	return u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	var u user.User
	err := s.db.GetContext(ctx, &u, s.rebind(`SELECT * FROM users WHERE username = ?`), username)
	if err == sql.ErrNoRows {
		return user.User{}, errors.NotFound("user")
	}
	if err != nil {
		return user.User{}, errors.DataUnavailable(err)
	}
	return u, nil
}

// --- habits ---

func (s *Store) CreateHabit(ctx context.Context, h habit.Habit) (habit.Habit, error) {
	h.ID = uuid.NewString()
	h.CreatedAt = s.now()
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO habits (id, user_id, name, frequency, reminder_time, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		h.ID, h.UserID, h.Name, h.Frequency, h.ReminderTime, h.IsActive, h.CreatedAt)
	if err != nil {
		return habit.Habit{}, errors.DataUnavailable(err)
	}
	return h, nil
}

func (s *Store) UpdateHabit(ctx context.Context, userID string, h habit.Habit) (habit.Habit, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE habits SET name = ?, frequency = ?, reminder_time = ?, is_active = ?
		 WHERE id = ? AND user_id = ?`),
		h.Name, h.Frequency, h.ReminderTime, h.IsActive, h.ID, userID)
	if err != nil {
		return habit.Habit{}, errors.DataUnavailable(err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return habit.Habit{}, errors.NotFound("habit")
	}
	return s.GetHabit(ctx, userID, h.ID)
}

func (s *Store) GetHabit(ctx context.Context, userID, id string) (habit.Habit, error) {
	var h habit.Habit
	err := s.db.GetContext(ctx, &h,
		s.rebind(`SELECT * FROM habits WHERE id = ? AND user_id = ?`), id, userID)
	if err == sql.ErrNoRows {
		return habit.Habit{}, errors.NotFound("habit")
	}
	if err != nil {
		return habit.Habit{}, errors.DataUnavailable(err)
	}
	return h, nil
}

func (s *Store) ListHabits(ctx context.Context, userID string, activeOnly bool) ([]habit.Habit, error) {
	query := `SELECT * FROM habits WHERE user_id = ?`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY created_at, id`

	habits := []habit.Habit{}
	if err := s.db.SelectContext(ctx, &habits, s.rebind(query), userID); err != nil {
		return nil, errors.DataUnavailable(err)
	}
	return habits, nil
}

func (s *Store) CreateHabitLog(ctx context.Context, log habit.Log) (habit.Log, error) {
	log.ID = uuid.NewString()
	if log.CompletedAt.IsZero() {
		log.CompletedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO habit_logs (id, habit_id, completed_at) VALUES (?, ?, ?)`),
		log.ID, log.HabitID, log.CompletedAt)
	if err != nil {
		return habit.Log{}, errors.DataUnavailable(err)
	}
	return log, nil
}

func (s *Store) ListHabitLogs(ctx context.Context, habitID string, since time.Time) ([]habit.Log, error) {
	logs := []habit.Log{}
	err := s.db.SelectContext(ctx, &logs, s.rebind(
		`SELECT * FROM habit_logs WHERE habit_id = ? AND completed_at >= ? ORDER BY completed_at, id`),
		habitID, since)
	if err != nil {
		return nil, errors.DataUnavailable(err)
	}
	return logs, nil
}

// --- commitments ---

func (s *Store) CreateCommitment(ctx context.Context, c commitment.Commitment) (commitment.Commitment, error) {
	c.ID = uuid.NewString()
	c.CreatedAt = s.now()
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO commitments (id, user_id, task_description, original_message, deadline,
		                          status, is_recurring, recurrence_pattern, created_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		c.ID, c.UserID, c.TaskDescription, c.OriginalMessage, c.Deadline,
		c.Status, c.IsRecurring, c.RecurrencePattern, c.CreatedAt, c.CompletedAt)
	if err != nil {
		return commitment.Commitment{}, errors.DataUnavailable(err)
	}
	return c, nil
}

func (s *Store) UpdateCommitment(ctx context.Context, userID string, c commitment.Commitment) (commitment.Commitment, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE commitments SET task_description = ?, original_message = ?, deadline = ?,
		        status = ?, is_recurring = ?, recurrence_pattern = ?, completed_at = ?
		 WHERE id = ? AND user_id = ?`),
		c.TaskDescription, c.OriginalMessage, c.Deadline,
		c.Status, c.IsRecurring, c.RecurrencePattern, c.CompletedAt, c.ID, userID)
	if err != nil {
		return commitment.Commitment{}, errors.DataUnavailable(err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return commitment.Commitment{}, errors.NotFound("commitment")
	}
	return s.GetCommitment(ctx, userID, c.ID)
}

func (s *Store) GetCommitment(ctx context.Context, userID, id string) (commitment.Commitment, error) {
	var c commitment.Commitment
	err := s.db.GetContext(ctx, &c,
		s.rebind(`SELECT * FROM commitments WHERE id = ? AND user_id = ?`), id, userID)
	if err == sql.ErrNoRows {
		return commitment.Commitment{}, errors.NotFound("commitment")
	}
	if err != nil {
		return commitment.Commitment{}, errors.DataUnavailable(err)
	}
	return c, nil
}

func (s *Store) ListCommitments(ctx context.Context, userID string) ([]commitment.Commitment, error) {
	list := []commitment.Commitment{}
	err := s.db.SelectContext(ctx, &list, s.rebind(
		`SELECT * FROM commitments WHERE user_id = ? ORDER BY created_at, id`), userID)
	if err != nil {
		return nil, errors.DataUnavailable(err)
	}
	return list, nil
}

func (s *Store) DeleteCommitment(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		s.rebind(`DELETE FROM commitments WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return errors.DataUnavailable(err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errors.NotFound("commitment")
	}
	return nil
}

// --- check-ins ---

func (s *Store) CreateCheckIn(ctx context.Context, c checkin.CheckIn) (checkin.CheckIn, error) {
	c.ID = uuid.NewString()
	if c.Timestamp.IsZero() {
		c.Timestamp = s.now()
	}
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO checkins (id, user_id, mood, notes, timestamp) VALUES (?, ?, ?, ?, ?)`),
		c.ID, c.UserID, c.Mood, c.Notes, c.Timestamp)
	if err != nil {
		return checkin.CheckIn{}, errors.DataUnavailable(err)
	}
	return c, nil
}

func (s *Store) ListCheckIns(ctx context.Context, userID string, since time.Time) ([]checkin.CheckIn, error) {
	list := []checkin.CheckIn{}
	err := s.db.SelectContext(ctx, &list, s.rebind(
		`SELECT * FROM checkins WHERE user_id = ? AND timestamp >= ? ORDER BY timestamp, id`),
		userID, since)
	if err != nil {
		return nil, errors.DataUnavailable(err)
	}
	return list, nil
}

// --- conversations ---

func (s *Store) CreateConversation(ctx context.Context, c conversation.Conversation) (conversation.Conversation, error) {
	c.ID = uuid.NewString()
	if c.Timestamp.IsZero() {
		c.Timestamp = s.now()
	}
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO conversations (id, user_id, message, response, timestamp) VALUES (?, ?, ?, ?, ?)`),
		c.ID, c.UserID, c.Message, c.Response, c.Timestamp)
	if err != nil {
		return conversation.Conversation{}, errors.DataUnavailable(err)
	}
	return c, nil
}

func (s *Store) ListConversations(ctx context.Context, userID string, limit int) ([]conversation.Conversation, error) {
	query := `SELECT * FROM conversations WHERE user_id = ? ORDER BY timestamp DESC, id DESC`
	args := []interface{}{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	list := []conversation.Conversation{}
	if err := s.db.SelectContext(ctx, &list, s.rebind(query), args...); err != nil {
		return nil, errors.DataUnavailable(err)
	}
	return list, nil
}

func (s *Store) CountConversations(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		s.rebind(`SELECT COUNT(*) FROM conversations WHERE user_id = ?`), userID)
	if err != nil {
		return 0, errors.DataUnavailable(err)
	}
	return count, nil
}

// --- people ---

func (s *Store) CreatePerson(ctx context.Context, p people.Person) (people.Person, error) {
	p.ID = uuid.NewString()
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO persons (id, user_id, name, pronouns, description, how_known, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.UserID, p.Name, p.Pronouns, p.Description, p.HowKnown, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return people.Person{}, errors.DataUnavailable(err)
	}
	return p, nil
}

func (s *Store) UpdatePerson(ctx context.Context, userID string, p people.Person) (people.Person, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE persons SET name = ?, pronouns = ?, description = ?, how_known = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`),
		p.Name, p.Pronouns, p.Description, p.HowKnown, s.now(), p.ID, userID)
	if err != nil {
		return people.Person{}, errors.DataUnavailable(err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return people.Person{}, errors.NotFound("person")
	}
	return s.GetPerson(ctx, userID, p.ID)
}

func (s *Store) GetPerson(ctx context.Context, userID, id string) (people.Person, error) {
	var p people.Person
	err := s.db.GetContext(ctx, &p,
		s.rebind(`SELECT * FROM persons WHERE id = ? AND user_id = ?`), id, userID)
	if err == sql.ErrNoRows {
		return people.Person{}, errors.NotFound("person")
	}
	if err != nil {
		return people.Person{}, errors.DataUnavailable(err)
	}
	return p, nil
}

func (s *Store) ListPeople(ctx context.Context, userID string) ([]people.Person, error) {
	list := []people.Person{}
	err := s.db.SelectContext(ctx, &list,
		s.rebind(`SELECT * FROM persons WHERE user_id = ? ORDER BY created_at, id`), userID)
	if err != nil {
		return nil, errors.DataUnavailable(err)
	}
	return list, nil
}

func (s *Store) DeletePerson(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		s.rebind(`DELETE FROM persons WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return errors.DataUnavailable(err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errors.NotFound("person")
	}
	return nil
}

func (s *Store) CreateProfile(ctx context.Context, p people.Profile) (people.Profile, error) {
	var existing int
	err := s.db.GetContext(ctx, &existing,
		s.rebind(`SELECT COUNT(*) FROM profiles WHERE user_id = ?`), p.UserID)
	if err != nil {
		return people.Profile{}, errors.DataUnavailable(err)
	}
	if existing > 0 {
		return people.Profile{}, errors.Conflict("profile already exists")
	}

	p.ID = uuid.NewString()
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	_, err = s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO profiles (id, user_id, name, pronouns, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.UserID, p.Name, p.Pronouns, p.Description, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return people.Profile{}, errors.DataUnavailable(err)
	}
	return p, nil
}

func (s *Store) UpdateProfile(ctx context.Context, userID string, p people.Profile) (people.Profile, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE profiles SET name = ?, pronouns = ?, description = ?, updated_at = ?
		 WHERE user_id = ?`),
		p.Name, p.Pronouns, p.Description, s.now(), userID)
	if err != nil {
		return people.Profile{}, errors.DataUnavailable(err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return people.Profile{}, errors.NotFound("profile")
	}
	return s.GetProfile(ctx, userID)
}

func (s *Store) GetProfile(ctx context.Context, userID string) (people.Profile, error) {
	var p people.Profile
	err := s.db.GetContext(ctx, &p,
		s.rebind(`SELECT * FROM profiles WHERE user_id = ?`), userID)
	if err == sql.ErrNoRows {
		return people.Profile{}, errors.NotFound("profile")
	}
	if err != nil {
		return people.Profile{}, errors.DataUnavailable(err)
	}
	return p, nil
}
