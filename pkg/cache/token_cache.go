package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	radix "github.com/mediocregopher/radix/v3"
)

const refreshTokenKey = "user:%s:refresh"

// rotateScript replaces KEYS[1] with ARGV[2] for ARGV[3] seconds only while it
// still holds ARGV[1].
var rotateScript = radix.NewEvalScript(1, `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("SETEX", KEYS[1], ARGV[3], ARGV[2])
	return 1
end
return 0
`)

// TokenStore keeps the single live refresh token of every user.
type TokenStore interface {
	SetRefreshToken(ctx context.Context, userID uuid.UUID, token string, ttl time.Duration) error
	// GetRefreshToken returns "" when nothing is stored or the entry expired.
	GetRefreshToken(ctx context.Context, userID uuid.UUID) (string, error)
	// RotateRefreshToken stores next only if current is still the stored token.
	// It reports false when another refresh or a logout got there first.
	RotateRefreshToken(ctx context.Context, userID uuid.UUID, current, next string, ttl time.Duration) (bool, error)
	DeleteRefreshToken(ctx context.Context, userID uuid.UUID) error
}

type TokenCache struct {
	redis radix.Client
}

func NewTokenCache(redis radix.Client) *TokenCache {
	return &TokenCache{redis: redis}
}

func RefreshTokenKey(userID uuid.UUID) string {
	return fmt.Sprintf(refreshTokenKey, userID.String())
}

func ttlSeconds(ttl time.Duration) (int64, error) {
	secs := int64(ttl / time.Second)
	if secs <= 0 {
		return 0, fmt.Errorf("ttl must be at least one second, got %s", ttl)
	}
	return secs, nil
}

func (c *TokenCache) SetRefreshToken(ctx context.Context, userID uuid.UUID, token string, ttl time.Duration) error {
	secs, err := ttlSeconds(ttl)
	if err != nil {
		return fmt.Errorf("set refresh token for %s: %w", userID, err)
	}

	key := RefreshTokenKey(userID)
	if err := c.redis.Do(radix.FlatCmd(nil, "SETEX", key, secs, token)); err != nil {
		return fmt.Errorf("set refresh token for %s: %w", userID, err)
	}
	return nil
}

func (c *TokenCache) GetRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	var raw string
	mn := radix.MaybeNil{Rcv: &raw}
	if err := c.redis.Do(radix.Cmd(&mn, "GET", RefreshTokenKey(userID))); err != nil {
		return "", fmt.Errorf("get refresh token for %s: %w", userID, err)
	}
	if mn.Nil {
		return "", nil
	}
	return raw, nil
}

func (c *TokenCache) RotateRefreshToken(ctx context.Context, userID uuid.UUID, current, next string, ttl time.Duration) (bool, error) {
	secs, err := ttlSeconds(ttl)
	if err != nil {
		return false, fmt.Errorf("rotate refresh token for %s: %w", userID, err)
	}

	var swapped int
	action := rotateScript.Cmd(&swapped, RefreshTokenKey(userID), current, next, strconv.FormatInt(secs, 10))
	if err := c.redis.Do(action); err != nil {
		return false, fmt.Errorf("rotate refresh token for %s: %w", userID, err)
	}
	return swapped == 1, nil
}

func (c *TokenCache) DeleteRefreshToken(ctx context.Context, userID uuid.UUID) error {
	if err := c.redis.Do(radix.Cmd(nil, "DEL", RefreshTokenKey(userID))); err != nil {
		return fmt.Errorf("delete refresh token for %s: %w", userID, err)
	}
	return nil
}
