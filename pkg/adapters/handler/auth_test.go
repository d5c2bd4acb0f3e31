package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snaplink/snaplink/pkg/core/domain"
)

// stubAuthService scripts ports.AuthService responses.
type stubAuthService struct {
	registerUser *domain.User
	registerErr  error
	loginUser    *domain.User
	loginErr     error
}

func (s *stubAuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	return s.registerUser, s.registerErr
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	return s.loginUser, s.loginErr
}

func (s *stubAuthService) EnsureUser(ctx context.Context, email string) (*domain.User, error) {
	return s.loginUser, s.loginErr
}

func newTestAuthHandler(svc *stubAuthService) *AuthHandler {
	return NewAuthHandler(svc, newSessionIssuer("test-secret", time.Hour, false))
}

func TestRegisterHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		user       *domain.User
		err        error
		wantStatus int
	}{
		{
			name:       "created",
			body:       `{"email":"alice@example.com","password":"s3cret!"}`,
			user:       &domain.User{ID: "id-1", Email: "alice@example.com"},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "invalid body",
			body:       `{broken`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "duplicate email",
			body:       `{"email":"alice@example.com","password":"s3cret!"}`,
			err:        domain.ErrEmailTaken,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "weak password",
			body:       `{"email":"alice@example.com","password":"123"}`,
			err:        domain.ErrInvalidCredentials,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestAuthHandler(&stubAuthService{registerUser: tt.user, registerErr: tt.err})

			req := httptest.NewRequest("POST", "/api/register", bytes.NewBufferString(tt.body))
			rr := httptest.NewRecorder()
			h.Register(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestLoginHandler_SetsSessionCookie(t *testing.T) {
	h := newTestAuthHandler(&stubAuthService{
		loginUser: &domain.User{ID: "id-1", Email: "alice@example.com"},
	})

	req := httptest.NewRequest("POST", "/api/login",
		bytes.NewBufferString(`{"email":"alice@example.com","password":"s3cret!"}`))
	rr := httptest.NewRecorder()
	h.Login(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookie, cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	// The minted cookie must satisfy the middleware.
	mw := NewMiddleware("test-secret")
	authedReq := httptest.NewRequest("GET", "/api/links", nil)
	authedReq.AddCookie(cookies[0])
	authedRR := httptest.NewRecorder()
	mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "id-1", UserID(r.Context()))
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(authedRR, authedReq)
	assert.Equal(t, http.StatusOK, authedRR.Code)
}

func TestLoginHandler_WrongCredentials(t *testing.T) {
	h := newTestAuthHandler(&stubAuthService{loginErr: domain.ErrInvalidCredentials})

	req := httptest.NewRequest("POST", "/api/login",
		bytes.NewBufferString(`{"email":"alice@example.com","password":"wrong"}`))
	rr := httptest.NewRecorder()
	h.Login(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Empty(t, rr.Result().Cookies())
}

func TestLogoutHandler_ClearsCookie(t *testing.T) {
	h := newTestAuthHandler(&stubAuthService{})

	req := httptest.NewRequest("POST", "/api/logout", nil)
	rr := httptest.NewRecorder()
	h.Logout(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookie, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}
