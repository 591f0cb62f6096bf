package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "staybook/internal/domain/auth"
	domainuser "staybook/internal/domain/user"
)

// SessionStore keeps sessions in Redis with a TTL matching their expiry, so
// stale tokens disappear without a sweeper. A per-user set tracks tokens for
// DeleteByUser.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func ParseURL(rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

func sessionKey(token domainauth.Token) string {
	return fmt.Sprintf("session:%s", token)
}

func userKey(userID domainuser.ID) string {
	return fmt.Sprintf("session_user:%s", userID)
}

type sessionRecord struct {
	Token     string   `json:"token"`
	UserID    string   `json:"user_id"`
	Roles     []string `json:"roles"`
	CreatedAt int64    `json:"created_at"`
	ExpiresAt int64    `json:"expires_at"`
}

func (s *SessionStore) Save(ctx context.Context, session *domainauth.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return domainauth.ErrTTLInvalid
	}
	roles := make([]string, 0, len(session.Roles))
	for _, role := range session.Roles {
		roles = append(roles, string(role))
	}
	payload, err := json.Marshal(sessionRecord{
		Token:     string(session.Token),
		UserID:    string(session.UserID),
		Roles:     roles,
		CreatedAt: session.CreatedAt.UnixMilli(),
		ExpiresAt: session.ExpiresAt.UnixMilli(),
	})
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(session.Token), payload, ttl)
	pipe.SAdd(ctx, userKey(session.UserID), string(session.Token))
	pipe.Expire(ctx, userKey(session.UserID), ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *SessionStore) Get(ctx context.Context, token domainauth.Token) (*domainauth.Session, error) {
	payload, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domainauth.ErrSessionNotFound
		}
		return nil, err
	}
	var record sessionRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, err
	}
	roles := make([]domainuser.Role, 0, len(record.Roles))
	for _, role := range record.Roles {
		roles = append(roles, domainuser.Role(role))
	}
	return &domainauth.Session{
		Token:     domainauth.Token(record.Token),
		UserID:    domainuser.ID(record.UserID),
		Roles:     roles,
		CreatedAt: time.UnixMilli(record.CreatedAt).UTC(),
		ExpiresAt: time.UnixMilli(record.ExpiresAt).UTC(),
	}, nil
}

func (s *SessionStore) Delete(ctx context.Context, token domainauth.Token) error {
	session, err := s.Get(ctx, token)
	if err != nil {
		if errors.Is(err, domainauth.ErrSessionNotFound) {
			return nil
		}
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(token))
	pipe.SRem(ctx, userKey(session.UserID), string(token))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *SessionStore) DeleteByUser(ctx context.Context, userID domainuser.ID) error {
	tokens, err := s.client.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, sessionKey(domainauth.Token(token)))
	}
	keys = append(keys, userKey(userID))
	return s.client.Del(ctx, keys...).Err()
}
