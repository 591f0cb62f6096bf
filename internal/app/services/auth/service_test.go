package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "staybook/internal/domain/auth"
	domainuser "staybook/internal/domain/user"
	"staybook/internal/infra/security"
	"staybook/internal/infra/storage/memory"
)

func newService(t *testing.T) *Service {
	t.Helper()
	return &Service{
		Users:      memory.NewUserRepository(),
		Sessions:   memory.NewSessionStore(),
		Passwords:  security.BcryptHasher{Cost: 4},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: time.Hour,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterParams{
		Email:    "Guest@Example.com",
		Name:     "Pat",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "guest@example.com", result.User.Email)
	assert.Equal(t, []domainuser.Role{domainuser.RoleGuest}, result.User.Roles)

	login, err := svc.Login(ctx, LoginParams{Email: "guest@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, login.User.ID)
}

func TestRegisterHostRole(t *testing.T) {
	svc := newService(t)
	result, err := svc.Register(context.Background(), RegisterParams{
		Email:      "host@example.com",
		Name:       "Sam",
		Password:   "longenough",
		WantToHost: true,
	})
	require.NoError(t, err)
	assert.True(t, result.User.HasRole(domainuser.RoleHost))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterParams{Email: "a@b.com", Name: "A", Password: "longenough"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterParams{Email: "A@B.com", Name: "B", Password: "longenough"})
	assert.ErrorIs(t, err, domainuser.ErrEmailAlreadyUsed)
}

func TestRegisterShortPassword(t *testing.T) {
	svc := newService(t)
	_, err := svc.Register(context.Background(), RegisterParams{Email: "a@b.com", Name: "A", Password: "short"})
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterParams{Email: "a@b.com", Name: "A", Password: "longenough"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginParams{Email: "a@b.com", Password: "wrong password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginParams{Email: "nobody@b.com", Password: "longenough"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResolveTokenRoundTrip(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	result, err := svc.Register(ctx, RegisterParams{Email: "a@b.com", Name: "A", Password: "longenough"})
	require.NoError(t, err)

	resolved, err := svc.ResolveToken(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, resolved.User.ID)

	require.NoError(t, svc.Logout(ctx, result.Token))
	_, err = svc.ResolveToken(ctx, result.Token)
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
}

func TestResolveExpiredToken(t *testing.T) {
	svc := newService(t)
	svc.SessionTTL = time.Millisecond
	ctx := context.Background()
	result, err := svc.Register(ctx, RegisterParams{Email: "a@b.com", Name: "A", Password: "longenough"})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = svc.ResolveToken(ctx, result.Token)
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
}
