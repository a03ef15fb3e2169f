package moderation

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	banKeyPrefix       = "moderation:ban:"
	blocksKeyPrefix    = "moderation:blocks:"
	blockedByKeyPrefix = "moderation:blocked_by:"
)

// RedisGate reads moderation decisions written by the admin side:
// a ban is a string key holding the reason, block relations are sets of
// user ids kept in both directions.
type RedisGate struct {
	rdb redis.Cmdable
}

func NewRedisGate(rdb redis.Cmdable) *RedisGate {
	return &RedisGate{rdb: rdb}
}

func (g *RedisGate) BanStatus(ctx context.Context, userID string) (bool, string, error) {
	const op = "moderation.gate.banStatus"

	reason, err := g.rdb.Get(ctx, banKeyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return false, "", nil
	}
	if err != nil {
		return false, "", fmt.Errorf("%s: %w", op, err)
	}
	return true, reason, nil
}

// BlockedUsers returns users that userID blocked or was blocked by.
func (g *RedisGate) BlockedUsers(ctx context.Context, userID string) ([]string, error) {
	const op = "moderation.gate.blockedUsers"

	users, err := g.rdb.SUnion(ctx, blocksKeyPrefix+userID, blockedByKeyPrefix+userID).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// NopGate admits everybody and blocks nobody. It is used when no Redis is
// configured.
type NopGate struct{}

func (NopGate) BanStatus(context.Context, string) (bool, string, error) {
	return false, "", nil
}

func (NopGate) BlockedUsers(context.Context, string) ([]string, error) {
	return nil, nil
}
