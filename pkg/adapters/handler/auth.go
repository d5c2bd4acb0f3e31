package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/snaplink/snaplink/pkg/core/domain"
	"github.com/snaplink/snaplink/pkg/ports"
)

// AuthHandler serves email/password registration and login. Sessions are a
// JWT cookie; the token format is internal to this package and invisible to
// the core services.
type AuthHandler struct {
	auth     ports.AuthService
	sessions *sessionIssuer
}

func NewAuthHandler(auth ports.AuthService, sessions *sessionIssuer) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmailTaken):
			writeError(w, http.StatusConflict, "email already registered")
		case errors.Is(err, domain.ErrInvalidCredentials):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "could not register, please try again")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"id":    user.ID,
		"email": user.Email,
	})
}

// Login handles POST /api/login. Success sets the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		writeError(w, http.StatusInternalServerError, "could not log in, please try again")
		return
	}

	if err := h.sessions.issue(w, user); err != nil {
		writeError(w, http.StatusInternalServerError, "could not log in, please try again")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Logout handles POST /api/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.clear(w)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
