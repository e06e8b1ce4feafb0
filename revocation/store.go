package revocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoActiveSession is returned by GetRefreshToken when no refresh-token
// record exists for the account.
var ErrNoActiveSession = errors.New("no active session")

// ErrRedisUnavailable wraps transport-level Redis failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

const defaultKeyPrefix = "courseauth"

// blacklistMarker is the value stored under blacklist keys. Only key
// existence matters.
const blacklistMarker = "revoked"

// Store is the revocation cache. All operations are single-key and atomic
// from the caller's perspective. Safe for concurrent use.
type Store struct {
	redis  *redis.Client
	prefix string
}

// NewStore wraps a Redis client with the given key prefix. An empty prefix
// selects the default.
func NewStore(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) refreshKey(accountID int64) string {
	return s.prefix + ":refresh:" + strconv.FormatInt(accountID, 10)
}

// blacklistKey hashes the raw token so bearer strings never appear in Redis.
func (s *Store) blacklistKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return s.prefix + ":blacklist:" + hex.EncodeToString(sum[:])
}

// PutRefreshToken stores the account's refresh token with the given TTL,
// replacing any prior value and resetting its expiry. The single-slot
// overwrite is what enforces one live session per account.
func (s *Store) PutRefreshToken(ctx context.Context, accountID int64, token string, ttl time.Duration) error {
	if err := s.redis.Set(ctx, s.refreshKey(accountID), token, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// GetRefreshToken returns the stored refresh token for the account, or
// [ErrNoActiveSession] when no record exists.
func (s *Store) GetRefreshToken(ctx context.Context, accountID int64) (string, error) {
	val, err := s.redis.Get(ctx, s.refreshKey(accountID)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "", ErrNoActiveSession
	case err != nil:
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return val, nil
}

// DeleteRefreshToken removes the account's refresh-token record. Deleting
// an absent key is not an error.
func (s *Store) DeleteRefreshToken(ctx context.Context, accountID int64) error {
	if err := s.redis.Del(ctx, s.refreshKey(accountID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Blacklist marks a token revoked for the rest of its lifetime. A zero or
// negative ttl means the token has already expired and the call is a no-op:
// the cache must never hold an entry that outlives its token.
func (s *Store) Blacklist(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, s.blacklistKey(token), blacklistMarker, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// IsBlacklisted reports whether the token was revoked before its natural
// expiry.
func (s *Store) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.blacklistKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n > 0, nil
}
