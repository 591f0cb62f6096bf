package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "staybook/internal/domain/auth"
	domainuser "staybook/internal/domain/user"
)

func newStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionStore(client), server
}

func newSession(t *testing.T, token string, userID string) *domainauth.Session {
	t.Helper()
	session, err := domainauth.NewSession(domainauth.CreateSessionParams{
		Token:  domainauth.Token(token),
		UserID: domainuser.ID(userID),
		Roles:  []domainuser.Role{domainuser.RoleGuest},
		TTL:    time.Hour,
		Now:    time.Now(),
	})
	require.NoError(t, err)
	return session
}

func TestSessionRoundTrip(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	session := newSession(t, "tok-1", "user-1")

	require.NoError(t, store.Save(ctx, session))

	got, err := store.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, session.UserID, got.UserID)
	assert.Equal(t, session.Roles, got.Roles)
	assert.WithinDuration(t, session.ExpiresAt, got.ExpiresAt, time.Second)
}

func TestGetUnknownToken(t *testing.T) {
	store, _ := newStore(t)
	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
}

func TestDelete(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, newSession(t, "tok-1", "user-1")))

	require.NoError(t, store.Delete(ctx, "tok-1"))
	_, err := store.Get(ctx, "tok-1")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)

	// deleting again is a no-op
	require.NoError(t, store.Delete(ctx, "tok-1"))
}

func TestDeleteByUserDropsAllTokens(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, newSession(t, "tok-1", "user-1")))
	require.NoError(t, store.Save(ctx, newSession(t, "tok-2", "user-1")))
	require.NoError(t, store.Save(ctx, newSession(t, "tok-3", "user-2")))

	require.NoError(t, store.DeleteByUser(ctx, "user-1"))

	_, err := store.Get(ctx, "tok-1")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
	_, err = store.Get(ctx, "tok-2")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)

	got, err := store.Get(ctx, "tok-3")
	require.NoError(t, err)
	assert.Equal(t, domainuser.ID("user-2"), got.UserID)
}

func TestExpiryEvictsSession(t *testing.T) {
	store, server := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, newSession(t, "tok-1", "user-1")))

	server.FastForward(2 * time.Hour)

	_, err := store.Get(ctx, "tok-1")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
}
