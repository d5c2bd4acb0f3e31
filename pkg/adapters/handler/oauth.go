package handler

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/snaplink/snaplink/pkg/config"
	"github.com/snaplink/snaplink/pkg/ports"
)

// OAuthHandler implements the Google sign-in flow. The callback provisions
// a local account on first sign-in and issues the same session cookie as
// password login.
type OAuthHandler struct {
	oauthConfig   *oauth2.Config
	auth          ports.AuthService
	sessions      *sessionIssuer
	frontendURL   string
	allowedEmails []string
	logger        *slog.Logger
}

type googleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func NewOAuthHandler(cfg *config.Config, auth ports.AuthService, sessions *sessionIssuer, logger *slog.Logger) *OAuthHandler {
	return &OAuthHandler{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		auth:          auth,
		sessions:      sessions,
		frontendURL:   cfg.FrontendURL,
		allowedEmails: cfg.AllowedEmails,
		logger:        logger,
	}
}

// Login handles GET /auth/google/login.
func (h *OAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state := h.generateStateOauthCookie(w)
	http.Redirect(w, r, h.oauthConfig.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// Callback handles GET /auth/google/callback.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	oauthState, err := r.Cookie("oauthstate")
	if err != nil {
		h.logger.Warn("oauth callback missing state cookie", "error", err)
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}
	if r.FormValue("state") != oauthState.Value {
		h.logger.Warn("oauth callback state mismatch")
		writeError(w, http.StatusBadRequest, "invalid oauth state")
		return
	}

	token, err := h.oauthConfig.Exchange(r.Context(), r.FormValue("code"))
	if err != nil {
		h.logger.Error("oauth code exchange failed", "error", err)
		writeError(w, http.StatusInternalServerError, "sign-in failed, please try again")
		return
	}

	resp, err := http.Get("https://www.googleapis.com/oauth2/v2/userinfo?access_token=" + token.AccessToken)
	if err != nil {
		h.logger.Error("oauth userinfo fetch failed", "error", err)
		writeError(w, http.StatusInternalServerError, "sign-in failed, please try again")
		return
	}
	defer resp.Body.Close()

	var gu googleUser
	if err := json.NewDecoder(resp.Body).Decode(&gu); err != nil {
		h.logger.Error("oauth userinfo decode failed", "error", err)
		writeError(w, http.StatusInternalServerError, "sign-in failed, please try again")
		return
	}

	if len(h.allowedEmails) > 0 && !h.isAllowed(gu.Email) {
		h.logger.Warn("oauth email not in allowlist", "email", gu.Email)
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	user, err := h.auth.EnsureUser(r.Context(), gu.Email)
	if err != nil {
		h.logger.Error("oauth account provisioning failed", "error", err)
		writeError(w, http.StatusInternalServerError, "sign-in failed, please try again")
		return
	}

	if err := h.sessions.issue(w, user); err != nil {
		h.logger.Error("oauth session issue failed", "error", err)
		writeError(w, http.StatusInternalServerError, "sign-in failed, please try again")
		return
	}

	h.logger.Info("oauth sign-in", "email", user.Email)
	http.Redirect(w, r, h.frontendURL, http.StatusTemporaryRedirect)
}

func (h *OAuthHandler) isAllowed(email string) bool {
	for _, allowed := range h.allowedEmails {
		if allowed == email {
			return true
		}
	}
	return false
}

func (h *OAuthHandler) generateStateOauthCookie(w http.ResponseWriter) string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	state := base64.URLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     "oauthstate",
		Value:    state,
		Expires:  time.Now().Add(20 * time.Minute),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.sessions.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return state
}
