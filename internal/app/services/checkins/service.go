// Package checkins manages daily mood check-ins.
package checkins

import (
	"context"
	"strings"
	"time"

	"github.com/tendhq/tend/internal/app/domain/checkin"
	"github.com/tendhq/tend/internal/app/storage"
	"github.com/tendhq/tend/internal/errors"
	"github.com/tendhq/tend/pkg/logger"
)

// Service manages check-ins for their owning user.
type Service struct {
	store   storage.CheckInStore
	log     *logger.Logger
	nowFunc func() time.Time
}

// New constructs a check-ins service.
func New(store storage.CheckInStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("checkins")
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

// Create records a mood check-in for today. The mood domain is the closed
// set {1..5}. Repeat check-ins on the same day are stored; the latest one is
// the day's authoritative value.
func (s *Service) Create(ctx context.Context, userID string, mood int, notes string) (checkin.CheckIn, error) {
	if mood < checkin.MoodMin || mood > checkin.MoodMax {
		return checkin.CheckIn{}, errors.Validation("mood must be between 1 and 5")
	}

	created, err := s.store.CreateCheckIn(ctx, checkin.CheckIn{
		UserID:    userID,
		Mood:      mood,
		Notes:     strings.TrimSpace(notes),
		Timestamp: s.nowFunc(),
	})
	if err != nil {
		return checkin.CheckIn{}, err
	}
	s.log.WithField("user_id", userID).WithField("mood", mood).Info("check-in recorded")
	return created, nil
}

// History returns check-ins in the window, newest first.
func (s *Service) History(ctx context.Context, userID string, days int) ([]checkin.CheckIn, error) {
	if days <= 0 {
		days = 30
	}
	since := s.nowFunc().AddDate(0, 0, -(days - 1)).Truncate(24 * time.Hour)
	rows, err := s.store.ListCheckIns(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	// Stores return ascending order; history is served newest first.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

// CheckedInToday reports whether the user has a check-in for the current UTC
// day. The server, not a browser-local flag, is the source of truth here.
func (s *Service) CheckedInToday(ctx context.Context, userID string) (bool, error) {
	now := s.nowFunc()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	rows, err := s.store.ListCheckIns(ctx, userID, dayStart)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}
