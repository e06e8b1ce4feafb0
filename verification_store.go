package courseauth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	errVerificationNotFound         = errors.New("verification challenge not found")
	errVerificationRedisUnavailable = errors.New("verification redis unavailable")
)

// emailVerificationStore holds pending verification challenges in Redis,
// keyed by the opaque challenge string with the configured TTL. Consuming a
// challenge removes it atomically so it cannot be replayed.
type emailVerificationStore struct {
	redis  *redis.Client
	prefix string
}

func newEmailVerificationStore(client *redis.Client, prefix string) *emailVerificationStore {
	return &emailVerificationStore{redis: client, prefix: prefix}
}

func (s *emailVerificationStore) key(challenge string) string {
	return s.prefix + ":verify:" + challenge
}

func (s *emailVerificationStore) Save(ctx context.Context, challenge string, accountID int64, ttl time.Duration) error {
	value := strconv.FormatInt(accountID, 10)
	if err := s.redis.Set(ctx, s.key(challenge), value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", errVerificationRedisUnavailable, err)
	}
	return nil
}

// Consume returns the account the challenge was issued for and deletes the
// record in the same round trip.
func (s *emailVerificationStore) Consume(ctx context.Context, challenge string) (int64, error) {
	value, err := s.redis.GetDel(ctx, s.key(challenge)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return 0, errVerificationNotFound
	case err != nil:
		return 0, fmt.Errorf("%w: %v", errVerificationRedisUnavailable, err)
	}

	accountID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, errVerificationNotFound
	}
	return accountID, nil
}
