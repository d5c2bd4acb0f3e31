package handler

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/snaplink/snaplink/pkg/core/domain"
)

// sessionCookie is the JWT session cookie shared by password login and the
// OAuth callback.
const sessionCookie = "snaplink_token"

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// sessionIssuer signs and clears session cookies. The token subject is the
// user ID; handlers only ever forward that ID to the core as an opaque
// owner string.
type sessionIssuer struct {
	secret []byte
	ttl    time.Duration
	secure bool
}

func newSessionIssuer(secret string, ttl time.Duration, secure bool) *sessionIssuer {
	return &sessionIssuer{secret: []byte(secret), ttl: ttl, secure: secure}
}

func (s *sessionIssuer) issue(w http.ResponseWriter, user *domain.User) error {
	expires := time.Now().Add(s.ttl)
	claims := &sessionClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Expires:  expires,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *sessionIssuer) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		MaxAge:   -1,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
