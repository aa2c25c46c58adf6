package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionTTL = 24 * time.Hour

// Session is the authenticated state behind a bearer token. It carries the
// display metadata the presence directory records at login.
type Session struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	ClientIP string `json:"client_ip"`
}

// RedisStore handles Redis operations for sessions and rate limiting.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Client exposes the underlying client for the rate limiter middleware.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// sessionKey returns the key for a session token.
func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

// NewSessionToken generates an opaque 64-hex-char bearer token.
func NewSessionToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand failure is not recoverable
	}
	return hex.EncodeToString(buf)
}

// CreateSession stores a session under a fresh token and returns the token.
func (s *RedisStore) CreateSession(ctx context.Context, sess *Session) (string, error) {
	token := NewSessionToken()
	data, err := json.Marshal(sess)
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, sessionKey(token), data, sessionTTL).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// GetSession resolves a bearer token. Returns (nil, nil) for an unknown or
// expired token; the TTL is refreshed on each hit so active sessions do not
// expire under the user.
func (s *RedisStore) GetSession(ctx context.Context, token string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}

	s.client.Expire(ctx, sessionKey(token), sessionTTL)

	return &sess, nil
}

// DeleteSession removes a session token. Unknown tokens are a no-op.
func (s *RedisStore) DeleteSession(ctx context.Context, token string) error {
	return s.client.Del(ctx, sessionKey(token)).Err()
}
