// Package people manages people notes and the user's own profile.
package people

import (
	"context"
	"strings"

	"github.com/tendhq/tend/internal/app/domain/people"
	"github.com/tendhq/tend/internal/app/storage"
	"github.com/tendhq/tend/internal/errors"
	"github.com/tendhq/tend/pkg/logger"
)

// Service manages people and profile rows for their owning user.
type Service struct {
	store storage.PeopleStore
	log   *logger.Logger
}

// New constructs a people service.
func New(store storage.PeopleStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("people")
	}
	return &Service{store: store, log: log}
}

// PersonParams are the caller-supplied person fields.
type PersonParams struct {
	Name        string
	Pronouns    string
	Description string
	HowKnown    string
}

// CreatePerson adds a person note.
func (s *Service) CreatePerson(ctx context.Context, userID string, params PersonParams) (people.Person, error) {
	params.Name = strings.TrimSpace(params.Name)
	if params.Name == "" {
		return people.Person{}, errors.Validation("name is required")
	}
	created, err := s.store.CreatePerson(ctx, people.Person{
		UserID:      userID,
		Name:        params.Name,
		Pronouns:    strings.TrimSpace(params.Pronouns),
		Description: params.Description,
		HowKnown:    strings.TrimSpace(params.HowKnown),
	})
	if err != nil {
		return people.Person{}, err
	}
	s.log.WithField("person_id", created.ID).WithField("user_id", userID).Info("person created")
	return created, nil
}

// UpdatePerson replaces the mutable fields of a person note.
func (s *Service) UpdatePerson(ctx context.Context, userID, id string, params PersonParams) (people.Person, error) {
	p, err := s.store.GetPerson(ctx, userID, id)
	if err != nil {
		return people.Person{}, err
	}
	if name := strings.TrimSpace(params.Name); name != "" {
		p.Name = name
	}
	p.Pronouns = strings.TrimSpace(params.Pronouns)
	p.Description = params.Description
	p.HowKnown = strings.TrimSpace(params.HowKnown)
	return s.store.UpdatePerson(ctx, userID, p)
}

// GetPerson fetches one person scoped to the owner.
func (s *Service) GetPerson(ctx context.Context, userID, id string) (people.Person, error) {
	return s.store.GetPerson(ctx, userID, id)
}

// ListPeople returns the user's people notes.
func (s *Service) ListPeople(ctx context.Context, userID string) ([]people.Person, error) {
	return s.store.ListPeople(ctx, userID)
}

// DeletePerson removes a person note permanently.
func (s *Service) DeletePerson(ctx context.Context, userID, id string) error {
	if err := s.store.DeletePerson(ctx, userID, id); err != nil {
		return err
	}
	s.log.WithField("person_id", id).WithField("user_id", userID).Info("person deleted")
	return nil
}

// ProfileParams are the caller-supplied profile fields.
type ProfileParams struct {
	Name        string
	Pronouns    string
	Description string
}

// CreateProfile creates the user's profile. Each user has at most one.
func (s *Service) CreateProfile(ctx context.Context, userID string, params ProfileParams) (people.Profile, error) {
	params.Name = strings.TrimSpace(params.Name)
	if params.Name == "" {
		return people.Profile{}, errors.Validation("name is required")
	}
	return s.store.CreateProfile(ctx, people.Profile{
		UserID:      userID,
		Name:        params.Name,
		Pronouns:    strings.TrimSpace(params.Pronouns),
		Description: params.Description,
	})
}

// UpdateProfile replaces the mutable profile fields.
func (s *Service) UpdateProfile(ctx context.Context, userID string, params ProfileParams) (people.Profile, error) {
	p, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return people.Profile{}, err
	}
	if name := strings.TrimSpace(params.Name); name != "" {
		p.Name = name
	}
	p.Pronouns = strings.TrimSpace(params.Pronouns)
	p.Description = params.Description
	return s.store.UpdateProfile(ctx, userID, p)
}

// GetProfile returns the user's profile.
func (s *Service) GetProfile(ctx context.Context, userID string) (people.Profile, error) {
	return s.store.GetProfile(ctx, userID)
}
