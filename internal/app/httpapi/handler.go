// Package httpapi exposes the application over a JSON REST API.
package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/tendhq/tend/internal/app"
	"github.com/tendhq/tend/internal/app/domain/commitment"
	"github.com/tendhq/tend/internal/app/domain/habit"
	"github.com/tendhq/tend/internal/app/metrics"
	"github.com/tendhq/tend/internal/app/services/commitments"
	peoplesvc "github.com/tendhq/tend/internal/app/services/people"
	"github.com/tendhq/tend/internal/config"
	"github.com/tendhq/tend/internal/errors"
	"github.com/tendhq/tend/internal/httputil"
	"github.com/tendhq/tend/internal/middleware"
	"github.com/tendhq/tend/pkg/logger"
)

// unauthenticatedPaths are reachable without a bearer token.
var unauthenticatedPaths = []string{"/", "/register", "/token", "/healthz", "/metrics"}

// Handler serves the REST API.
type Handler struct {
	app     *app.Application
	authCfg config.AuthConfig
	log     *logger.Logger
}

// NewHandler creates an API handler over the application.
func NewHandler(application *app.Application, authCfg config.AuthConfig, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	return &Handler{app: application, authCfg: authCfg, log: log}
}

// Router assembles the route table with the middleware chain applied.
func (h *Handler) Router(cfg config.Config) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware(h.log))
	r.Use(middleware.CORSMiddleware(cfg.CORS))
	auth := middleware.NewAuthMiddleware(cfg.Auth.Secret, h.log, unauthenticatedPaths)
	r.Use(auth.Handler)
	r.Use(middleware.NewRateLimiter(cfg.RateLimit).Handler)
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes attaches all API routes to the router.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/register", h.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/token", h.handleToken).Methods(http.MethodPost)
	r.HandleFunc("/users/me", h.handleCurrentUser).Methods(http.MethodGet)

	r.HandleFunc("/habits", h.handleListHabits).Methods(http.MethodGet)
	r.HandleFunc("/habits", h.handleCreateHabit).Methods(http.MethodPost)
	r.HandleFunc("/habits/{id}", h.handleUpdateHabit).Methods(http.MethodPut)
	r.HandleFunc("/habits/{id}", h.handleDeleteHabit).Methods(http.MethodDelete)
	r.HandleFunc("/habits/{id}/log", h.handleLogHabit).Methods(http.MethodPost)
	r.HandleFunc("/habits/{id}/stats", h.handleHabitStats).Methods(http.MethodGet)

	r.HandleFunc("/commitments", h.handleListCommitments).Methods(http.MethodGet)
	r.HandleFunc("/commitments", h.handleCreateCommitment).Methods(http.MethodPost)
	r.HandleFunc("/commitments/{id}", h.handleGetCommitment).Methods(http.MethodGet)
	r.HandleFunc("/commitments/{id}", h.handleUpdateCommitment).Methods(http.MethodPut)
	r.HandleFunc("/commitments/{id}", h.handleDeleteCommitment).Methods(http.MethodDelete)
	r.HandleFunc("/commitments/{id}/complete", h.handleCompleteCommitment).Methods(http.MethodPost)

	r.HandleFunc("/checkins/daily", h.handleCreateCheckIn).Methods(http.MethodPost)
	r.HandleFunc("/checkins/history", h.handleCheckInHistory).Methods(http.MethodGet)
	r.HandleFunc("/checkins/today", h.handleCheckedInToday).Methods(http.MethodGet)

	r.HandleFunc("/analytics/overview", h.handleAnalyticsOverview).Methods(http.MethodGet)
	r.HandleFunc("/analytics/habits", h.handleAnalyticsHabits).Methods(http.MethodGet)
	r.HandleFunc("/analytics/commitments", h.handleAnalyticsCommitments).Methods(http.MethodGet)
	r.HandleFunc("/analytics/mood", h.handleAnalyticsMood).Methods(http.MethodGet)

	r.HandleFunc("/profile", h.handleGetProfile).Methods(http.MethodGet)
	r.HandleFunc("/profile", h.handleCreateProfile).Methods(http.MethodPost)
	r.HandleFunc("/profile", h.handleUpdateProfile).Methods(http.MethodPut)

	r.HandleFunc("/people", h.handleListPeople).Methods(http.MethodGet)
	r.HandleFunc("/people", h.handleCreatePerson).Methods(http.MethodPost)
	r.HandleFunc("/people/{id}", h.handleGetPerson).Methods(http.MethodGet)
	r.HandleFunc("/people/{id}", h.handleUpdatePerson).Methods(http.MethodPut)
	r.HandleFunc("/people/{id}", h.handleDeletePerson).Methods(http.MethodDelete)

	r.HandleFunc("/chat", h.handleChat).Methods(http.MethodPost)
	r.HandleFunc("/chat/history", h.handleChatHistory).Methods(http.MethodGet)
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"service": "tend",
		"status":  "running",
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// --- auth ---

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httputil.DecodeJSON(r.Body, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	u, err := h.app.Users.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, u)
}

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := httputil.DecodeJSON(r.Body, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	u, err := h.app.Users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	token, err := middleware.NewToken(h.authCfg.Secret, h.authCfg.TokenTTL(), u)
	if err != nil {
		httputil.WriteError(w, errors.Internal("failed to issue token", err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *Handler) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.app.Users.Get(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

// --- habits ---

type createHabitRequest struct {
	Name         string `json:"name"`
	Frequency    string `json:"frequency"`
	ReminderTime string `json:"reminder_time"`
}

func (h *Handler) handleCreateHabit(w http.ResponseWriter, r *http.Request) {
	var req createHabitRequest
	if err := httputil.DecodeJSON(r.Body, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	created, err := h.app.Habits.Create(r.Context(), middleware.GetUserID(r.Context()), req.Name, habit.Frequency(req.Frequency), req.ReminderTime)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleListHabits(w http.ResponseWriter, r *http.Request) {
	listed, err := h.app.Habits.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listed)
}

type updateHabitRequest struct {
	Name         *string `json:"name"`
	Frequency    *string `json:"frequency"`
	ReminderTime *string `json:"reminder_time"`
}

func (h *Handler) handleUpdateHabit(w http.ResponseWriter, r *http.Request) {
	var req updateHabitRequest
	if err := httputil.DecodeJSON(r.Body, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	var freq *habit.Frequency
	if req.Frequency != nil {
		f := habit.Frequency(*req.Frequency)
		freq = &f
	}
	updated, err := h.app.Habits.Update(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["id"], req.Name, freq, req.ReminderTime)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDeleteHabit(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Habits.Delete(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["id"]); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type logHabitResponse struct {
	HabitID          string    `json:"habit_id"`
	CompletedAt      time.Time `json:"completed_at"`
	AlreadyCompleted bool      `json:"already_completed"`
}

func (h *Handler) handleLogHabit(w http.ResponseWriter, r *http.Request) {
	entry, already, err := h.app.Habits.Log(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	status := http.StatusCreated
	if already {
		status = http.StatusOK
	}
	httputil.WriteJSON(w, status, logHabitResponse{
		HabitID:          entry.HabitID,
		CompletedAt:      entry.CompletedAt,
		AlreadyCompleted: already,
	})
}

func (h *Handler) handleHabitStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.app.Habits.Stats(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// --- commitments ---

type createCommitmentRequest struct {
	TaskDescription   string     `json:"task_description"`
	OriginalMessage   string     `json:"original_message"`
	Deadline          *time.Time `json:"deadline"`
	IsRecurring       bool       `json:"is_recurring"`
	RecurrencePattern string     `json:"recurrence_pattern"`
}

func (h *Handler) handleCreateCommitment(w http.ResponseWriter, r *http.Request) {
	var req createCommitmentRequest
	if err := httputil.DecodeJSON(r.Body, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	created, err := h.app.Commitments.Create(r.Context(), middleware.GetUserID(r.Context()), commitments.CreateParams{
		TaskDescription:   req.TaskDescription,
		OriginalMessage:   req.OriginalMessage,
		Deadline:          req.Deadline,
		IsRecurring:       req.IsRecurring,
		RecurrencePattern: commitment.RecurrencePattern(req.RecurrencePattern),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleListCommitments(w http.ResponseWriter, r *http.Request) {
	sortKey := commitments.SortKey(r.URL.Query().Get("sort"))
	if sortKey == "" {
		sortKey = commitments.SortByDeadline
	}
	descending := r.URL.Query().Get("order") == "desc"
	listed, err := h.app.Commitments.List(r.Context(), middleware.GetUserID(r.Context()), sortKey, descending)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listed)
}

func (h *Handler) handleGetCommitment(w http.ResponseWriter, r *http.Request) {
	c, err := h.app.Commitments.Get(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

type updateCommitmentRequest struct {
	TaskDescription   *string    `json:"task_description"`
	Deadline          *time.Time `json:"deadline"`
	ClearDeadline     bool       `json:"clear_deadline"`
	IsRecurring       *bool      `json:"is_recurring"`
	RecurrencePattern *string    `json:"recurrence_pattern"`
}

func (h *Handler) handleUpdateCommitment(w http.ResponseWriter, r *http.Request) {
	var req updateCommitmentRequest
	if err := httputil.DecodeJSON(r.Body, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	var pattern *commitment.RecurrencePattern
	if req.RecurrencePattern != nil {
		p := commitment.RecurrencePattern(*req.RecurrencePattern)
		pattern = &p
	}
	updated, err := h.app.Commitments.Update(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["id"], commitments.UpdateParams{
		TaskDescription:   req.TaskDescription,
		Deadline:          req.Deadline,
		ClearDeadline:     req.ClearDeadline,
		IsRecurring:       req.IsRecurring,
		RecurrencePattern: pattern,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDeleteCommitment(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Commitments.Delete(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["id"]); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) handleCompleteCommitment(w http.ResponseWriter, r *http.Request) {
	completed, err := h.app.Commitments.Complete(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, completed)
}

// --- check-ins ---

type createCheckInRequest struct {
	Mood  int    `json:"mood"`
	Notes string `json:"notes"`
}

func (h *Handler) handleCreateCheckIn(w http.ResponseWriter, r *http.Request) {
	var req createCheckInRequest
	if err := httputil.DecodeJSON(r.Body, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	created, err := h.app.CheckIns.Create(r.Context(), middleware.GetUserID(r.Context()), req.Mood, req.Notes)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleCheckInHistory(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 30)
	history, err := h.app.CheckIns.History(r.Context(), middleware.GetUserID(r.Context()), days)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, history)
}

func (h *Handler) handleCheckedInToday(w http.ResponseWriter, r *http.Request) {
	checked, err := h.app.CheckIns.CheckedInToday(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"checked_in": checked})
}

// --- analytics ---

func (h *Handler) handleAnalyticsOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.app.Analytics.Overview(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, overview)
}

func (h *Handler) handleAnalyticsHabits(w http.ResponseWriter, r *http.Request) {
	reports, err := h.app.Analytics.Habits(r.Context(), middleware.GetUserID(r.Context()), queryInt(r, "days", 0))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reports)
}

func (h *Handler) handleAnalyticsCommitments(w http.ResponseWriter, r *http.Request) {
	report, err := h.app.Analytics.Commitments(r.Context(), middleware.GetUserID(r.Context()), queryInt(r, "days", 0))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) handleAnalyticsMood(w http.ResponseWriter, r *http.Request) {
	report, err := h.app.Analytics.Mood(r.Context(), middleware.GetUserID(r.Context()), queryInt(r, "days", 0))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

// --- profile and people ---

type profileRequest struct {
	Name        string `json:"name"`
	Pronouns    string `json:"pronouns"`
	Description string `json:"description"`
}

func (h *Handler) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := httputil.DecodeJSON(r.Body, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	created, err := h.app.People.CreateProfile(r.Context(), middleware.GetUserID(r.Context()), peoplesvc.ProfileParams{
		Name:        req.Name,
		Pronouns:    req.Pronouns,
		Description: req.Description,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := httputil.DecodeJSON(r.Body, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	updated, err := h.app.People.UpdateProfile(r.Context(), middleware.GetUserID(r.Context()), peoplesvc.ProfileParams{
		Name:        req.Name,
		Pronouns:    req.Pronouns,
		Description: req.Description,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.app.People.GetProfile(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

type personRequest struct {
	Name        string `json:"name"`
	Pronouns    string `json:"pronouns"`
	Description string `json:"description"`
	HowKnown    string `json:"how_known"`
}

func (p personRequest) params() peoplesvc.PersonParams {
	return peoplesvc.PersonParams{
		Name:        p.Name,
		Pronouns:    p.Pronouns,
		Description: p.Description,
		HowKnown:    p.HowKnown,
	}
}

func (h *Handler) handleCreatePerson(w http.ResponseWriter, r *http.Request) {
	var req personRequest
	if err := httputil.DecodeJSON(r.Body, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	created, err := h.app.People.CreatePerson(r.Context(), middleware.GetUserID(r.Context()), req.params())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleListPeople(w http.ResponseWriter, r *http.Request) {
	listed, err := h.app.People.ListPeople(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listed)
}

func (h *Handler) handleGetPerson(w http.ResponseWriter, r *http.Request) {
	p, err := h.app.People.GetPerson(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleUpdatePerson(w http.ResponseWriter, r *http.Request) {
	var req personRequest
	if err := httputil.DecodeJSON(r.Body, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	updated, err := h.app.People.UpdatePerson(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["id"], req.params())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDeletePerson(w http.ResponseWriter, r *http.Request) {
	if err := h.app.People.DeletePerson(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["id"]); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- chat ---

type chatRequest struct {
	Message string `json:"message"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	if h.app.Chat == nil {
		httputil.WriteError(w, chatUnconfigured())
		return
	}
	var req chatRequest
	if err := httputil.DecodeJSON(r.Body, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.app.Chat.Send(r.Context(), middleware.GetUserID(r.Context()), req.Message)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func chatUnconfigured() *errors.ServiceError {
	return &errors.ServiceError{
		Code:       errors.CodeDataUnavailable,
		Message:    "chat assistant is not configured",
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

func (h *Handler) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	if h.app.Chat == nil {
		httputil.WriteError(w, chatUnconfigured())
		return
	}
	history, err := h.app.Chat.History(r.Context(), middleware.GetUserID(r.Context()), queryInt(r, "limit", 0))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, history)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
