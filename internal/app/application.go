// Package app wires stores and domain services into one application.
package app

import (
	"github.com/tendhq/tend/internal/app/services/analytics"
	"github.com/tendhq/tend/internal/app/services/chat"
	"github.com/tendhq/tend/internal/app/services/checkins"
	"github.com/tendhq/tend/internal/app/services/commitments"
	"github.com/tendhq/tend/internal/app/services/habits"
	peoplesvc "github.com/tendhq/tend/internal/app/services/people"
	"github.com/tendhq/tend/internal/app/services/users"
	"github.com/tendhq/tend/internal/app/storage"
	"github.com/tendhq/tend/internal/app/storage/memory"
	"github.com/tendhq/tend/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Users         storage.UserStore
	Habits        storage.HabitStore
	Commitments   storage.CommitmentStore
	CheckIns      storage.CheckInStore
	Conversations storage.ConversationStore
	People        storage.PeopleStore
}

// Application ties domain services together.
type Application struct {
	log *logger.Logger

	Users       *users.Service
	Habits      *habits.Service
	Commitments *commitments.Service
	CheckIns    *checkins.Service
	Analytics   *analytics.Service
	People      *peoplesvc.Service

	// Chat is nil when no provider is configured; the HTTP layer reports the
	// endpoint as unavailable in that case.
	Chat *chat.Service
}

// New builds a fully initialised application with the provided stores. A nil
// provider disables the chat relay only; everything else keeps working.
func New(stores Stores, provider chat.Provider, log *logger.Logger) *Application {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Habits == nil {
		stores.Habits = mem
	}
	if stores.Commitments == nil {
		stores.Commitments = mem
	}
	if stores.CheckIns == nil {
		stores.CheckIns = mem
	}
	if stores.Conversations == nil {
		stores.Conversations = mem
	}
	if stores.People == nil {
		stores.People = mem
	}

	application := &Application{
		log:         log,
		Users:       users.New(stores.Users, log),
		Habits:      habits.New(stores.Habits, log),
		Commitments: commitments.New(stores.Commitments, log),
		CheckIns:    checkins.New(stores.CheckIns, log),
		Analytics:   analytics.New(stores.Habits, stores.Commitments, stores.CheckIns, stores.Conversations, log),
		People:      peoplesvc.New(stores.People, log),
	}

	if provider != nil {
		application.Chat = chat.New(provider, stores.Conversations, stores.Habits, stores.Users, application.Commitments, log)
	} else {
		log.Warn("chat provider not configured; /chat disabled")
	}

	return application
}
