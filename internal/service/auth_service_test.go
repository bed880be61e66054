package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"alcyxob/blockcoach/internal/domain"
	"alcyxob/blockcoach/internal/repository/memory"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func (r *mapRevoker) Revoke(_ context.Context, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[token] = expiresAt
	return nil
}

func (r *mapRevoker) IsRevoked(_ context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.revoked[token]
	return ok, nil
}

func newAuth(t *testing.T) (AuthService, *mapRevoker) {
	t.Helper()
	revoker := &mapRevoker{revoked: map[string]time.Time{}}
	return NewAuthService(memory.NewStore().Users(), revoker, "test-secret", time.Hour), revoker
}

func registerInput(role domain.Role) RegisterInput {
	return RegisterInput{
		Name:     gofakeit.Name(),
		Username: gofakeit.Username(),
		Email:    gofakeit.Email(),
		Password: gofakeit.Password(true, true, true, false, false, 12),
		Role:     role,
	}
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	auth, _ := newAuth(t)

	in := registerInput(domain.RoleCoach)
	in.Email = "  Coach.Mike@Example.COM "
	user, err := auth.Register(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "coach.mike@example.com", user.Email)
	assert.Empty(t, user.PasswordHash)
	assert.Equal(t, domain.RoleCoach, user.Role)

	token, loggedIn, err := auth.Login(ctx, "COACH.MIKE@example.com", in.Password)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, loggedIn.ID)

	claims, err := auth.ParseToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, domain.RoleCoach, claims.Role)

	_, _, err = auth.Login(ctx, "coach.mike@example.com", "wrong")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	_, _, err = auth.Login(ctx, "nobody@example.com", in.Password)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	ctx := context.Background()
	auth, _ := newAuth(t)

	first := registerInput(domain.RoleAthlete)
	_, err := auth.Register(ctx, first)
	require.NoError(t, err)

	sameEmail := registerInput(domain.RoleAthlete)
	sameEmail.Email = first.Email
	_, err = auth.Register(ctx, sameEmail)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	sameUsername := registerInput(domain.RoleCoach)
	sameUsername.Username = first.Username
	_, err = auth.Register(ctx, sameUsername)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	badRole := registerInput("admin")
	_, err = auth.Register(ctx, badRole)
	assert.ErrorIs(t, err, ErrInvalidRole)

	missing := registerInput(domain.RoleCoach)
	missing.Password = ""
	_, err = auth.Register(ctx, missing)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	auth, revoker := newAuth(t)

	in := registerInput(domain.RoleAthlete)
	_, err := auth.Register(ctx, in)
	require.NoError(t, err)
	token, _, err := auth.Login(ctx, in.Email, in.Password)
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, token))
	assert.Len(t, revoker.revoked, 1)

	_, err = auth.ParseToken(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	assert.ErrorIs(t, auth.Logout(ctx, "not-a-jwt"), ErrInvalidToken)
}

func TestAuthService_ParseTokenRejectsForeignSecret(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	issuer := NewAuthService(store.Users(), nil, "one-secret", time.Hour)
	verifier := NewAuthService(store.Users(), nil, "other-secret", time.Hour)

	in := registerInput(domain.RoleCoach)
	_, err := issuer.Register(ctx, in)
	require.NoError(t, err)
	token, _, err := issuer.Login(ctx, in.Email, in.Password)
	require.NoError(t, err)

	_, err = verifier.ParseToken(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewAuthService_PanicsWithoutSecret(t *testing.T) {
	assert.Panics(t, func() {
		NewAuthService(memory.NewStore().Users(), nil, "", time.Hour)
	})
}
