package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Purpose namespaces one-time codes so that a code minted for one flow can never
// be redeemed in another.
type Purpose string

const (
	PurposeEmailVerify   Purpose = "email-verify"
	PurposePasswordReset Purpose = "password-reset"
)

var (
	ErrCodeNotFound         = errors.New("code not found")
	ErrCodeMismatch         = errors.New("code mismatch")
	ErrCodeRedisUnavailable = errors.New("code redis unavailable")
)

// compareAndDeleteLua deletes KEYS[1] only if it still holds ARGV[1].
// KEYS[1] = code key
// ARGV[1] = value observed by the caller
//
// Returns the remaining lifetime in milliseconds when the key was deleted
// (-1 if it had none), -2 otherwise.
var compareAndDeleteLua = redis.NewScript(`
local data = redis.call('GET', KEYS[1])
if not data then
  return -2
end
if data ~= ARGV[1] then
  return -2
end
local ttl = redis.call('PTTL', KEYS[1])
redis.call('DEL', KEYS[1])
return ttl
`)

// CodeStore keeps at most one live code per purpose and identity in Redis.
type CodeStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewCodeStore(redisClient redis.UniversalClient, prefix string) *CodeStore {
	if prefix == "" {
		prefix = "otc"
	}
	return &CodeStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *CodeStore) key(purpose Purpose, identity string) string {
	return s.prefix + ":" + string(purpose) + ":" + identity
}

// Issue replaces any existing entry for purpose/identity with value. The delete
// and the set are two separate commands; a concurrent issuance can at worst leave
// the other caller's value in place, which simply invalidates this one.
func (s *CodeStore) Issue(ctx context.Context, purpose Purpose, identity, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("code ttl must be positive")
	}

	key := s.key(purpose, identity)
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCodeRedisUnavailable, err)
	}
	if err := s.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCodeRedisUnavailable, err)
	}
	return nil
}

func (s *CodeStore) Get(ctx context.Context, purpose Purpose, identity string) (string, error) {
	value, err := s.redis.Get(ctx, s.key(purpose, identity)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCodeNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrCodeRedisUnavailable, err)
	}
	return value, nil
}

func (s *CodeStore) Exists(ctx context.Context, purpose Purpose, identity string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(purpose, identity)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrCodeRedisUnavailable, err)
	}
	return n > 0, nil
}

func (s *CodeStore) Delete(ctx context.Context, purpose Purpose, identity string) error {
	if err := s.redis.Del(ctx, s.key(purpose, identity)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCodeRedisUnavailable, err)
	}
	return nil
}

// TTL reports the remaining lifetime of an entry, ErrCodeNotFound if absent.
func (s *CodeStore) TTL(ctx context.Context, purpose Purpose, identity string) (time.Duration, error) {
	ttl, err := s.redis.PTTL(ctx, s.key(purpose, identity)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCodeRedisUnavailable, err)
	}
	if ttl < 0 {
		return 0, ErrCodeNotFound
	}
	return ttl, nil
}

// Consume fetches the entry and hands it to match. A rejected match leaves the
// entry untouched and returns ErrCodeMismatch. An accepted match deletes the entry
// only if it is still the value that was inspected, so two concurrent redemptions
// of the same code cannot both succeed; the loser sees ErrCodeNotFound.
//
// On success it also returns the lifetime the entry had left, zero if it had
// no expiry, so a caller can Restore it.
func (s *CodeStore) Consume(
	ctx context.Context,
	purpose Purpose,
	identity string,
	match func(stored string) bool,
) (string, time.Duration, error) {
	stored, err := s.Get(ctx, purpose, identity)
	if err != nil {
		return "", 0, err
	}
	if !match(stored) {
		return "", 0, ErrCodeMismatch
	}

	remaining, err := compareAndDeleteLua.Run(ctx, s.redis, []string{s.key(purpose, identity)}, stored).Int64()
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrCodeRedisUnavailable, err)
	}
	switch {
	case remaining == -2:
		return "", 0, ErrCodeNotFound
	case remaining < 0:
		return stored, 0, nil
	}
	return stored, time.Duration(remaining) * time.Millisecond, nil
}

// Restore puts back an entry taken by Consume. It never overwrites an entry
// issued in the meantime.
func (s *CodeStore) Restore(ctx context.Context, purpose Purpose, identity, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("code ttl must be positive")
	}
	if err := s.redis.SetNX(ctx, s.key(purpose, identity), value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCodeRedisUnavailable, err)
	}
	return nil
}

func (s *CodeStore) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCodeRedisUnavailable, err)
	}
	return nil
}
