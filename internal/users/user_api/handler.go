package user_api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"eventhub/internal/auth"
	events "eventhub/internal/events/service"
	"eventhub/internal/models"
	users "eventhub/internal/users/service"
	"eventhub/internal/utils"
)

type Handler struct {
	UserService  *users.UserService
	EventService *events.EventService
	CookieName   string
	CookieTTL    time.Duration
}

func NewHandler(userService *users.UserService, eventService *events.EventService, cookieName string, cookieTTL time.Duration) *Handler {
	return &Handler{
		UserService:  userService,
		EventService: eventService,
		CookieName:   cookieName,
		CookieTTL:    cookieTTL,
	}
}

type credentialsRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/users/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, fmt.Errorf("%w: invalid request body", models.ErrValidation))
		return
	}

	user, err := h.UserService.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, user)
}

// Login handles POST /api/users/login and sets the session cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, fmt.Errorf("%w: invalid request body", models.ErrValidation))
		return
	}

	token, user, err := h.UserService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.CookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	utils.WriteJSON(w, http.StatusOK, user)
}

// Logout handles POST /api/users/logout by clearing the cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Logged out", nil))
}

// Profile handles GET /api/users/profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		utils.WriteError(w, models.ErrUnauthenticated)
		return
	}

	user, err := h.UserService.Profile(r.Context(), userID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, user)
}

// MyEvents handles GET /api/users/events: the caller's own events with
// attendance stats.
func (h *Handler) MyEvents(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		utils.WriteError(w, models.ErrUnauthenticated)
		return
	}

	owned, err := h.EventService.ListOwnedEvents(r.Context(), userID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, owned)
}
