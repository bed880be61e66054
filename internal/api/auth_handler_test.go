package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"alcyxob/blockcoach/internal/domain"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPing(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"pong"}`, rec.Body.String())
}

func TestAuth_RegisterLoginMeLogout(t *testing.T) {
	s := newTestServer(t)
	coach := s.signUp(t, domain.RoleCoach)

	rec := s.do(t, http.MethodGet, "/api/v1/me", coach.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[UserResponse](t, rec)
	assert.Equal(t, coach.ID, me.ID)
	assert.Equal(t, domain.RoleCoach, me.Role)
	assert.NotContains(t, rec.Body.String(), "passwordHash")

	rec = s.do(t, http.MethodPost, "/api/v1/auth/logout", coach.Token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/me", coach.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_Register(t *testing.T) {
	s := newTestServer(t)
	valid := RegisterRequest{
		Name:     "Sam Lifter",
		Username: "samlifts",
		Email:    "sam@example.com",
		Password: "longenough",
		Role:     domain.RoleAthlete,
	}
	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", "", valid)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[UserResponse](t, rec)
	assert.Equal(t, "samlifts", created.Username)

	tests := []struct {
		name   string
		mutate func(r *RegisterRequest)
		want   int
	}{
		{"duplicate email", func(r *RegisterRequest) { r.Username = "otheruser" }, http.StatusConflict},
		{"duplicate username", func(r *RegisterRequest) { r.Email = "other@example.com" }, http.StatusConflict},
		{"unknown role", func(r *RegisterRequest) { r.Email, r.Username, r.Role = "x@example.com", "xuser", "trainer" }, http.StatusBadRequest},
		{"short password", func(r *RegisterRequest) { r.Email, r.Username, r.Password = "y@example.com", "yuser", "short" }, http.StatusBadRequest},
		{"bad email", func(r *RegisterRequest) { r.Email, r.Username = "not-an-email", "zuser" }, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			rec := s.do(t, http.MethodPost, "/api/v1/auth/register", "", req)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestAuth_LoginRejectsWrongPassword(t *testing.T) {
	s := newTestServer(t)
	email := gofakeit.Email()
	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{
		Name: "Coach", Username: "coachx", Email: email, Password: "correct-horse", Role: domain.RoleCoach,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: email, Password: "battery-staple"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_RejectsBadHeaders(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong scheme", "Basic abc"},
		{"garbage token", "Bearer not.a.jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := s.serve(req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}
