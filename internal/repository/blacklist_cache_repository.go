package repository

import (
	"auth-session-server/config"
	"auth-session-server/internal/util"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	blacklistRevoked = "1"
	blacklistAllowed = "0"
)

// BlacklistCacheRepository : Redis кэш ответов blacklist.
// Значение "1" означает отозванный токен, "0" проверенный и живой.
type BlacklistCacheRepository struct {
	client *config.RedisClient
}

func NewBlacklistCacheRepository(rdb *config.RedisClient) *BlacklistCacheRepository {
	return &BlacklistCacheRepository{rdb}
}

func (r *BlacklistCacheRepository) Get(ctx context.Context, jti string) (bool, bool, error) {
	val, err := r.client.Client.Get(ctx, blacklistKey(jti)).Result()
	if errors.Is(err, redis.Nil) {
		return false, false, nil // нет в кэше
	} else if err != nil {
		return false, false, util.LogError("ошибка получения jti из Redis", err)
	}

	switch val {
	case blacklistRevoked:
		return true, true, nil
	case blacklistAllowed:
		return false, true, nil
	default:
		return false, false, fmt.Errorf("неожиданное значение в кэше blacklist: %q", val)
	}
}

// SetRevoked : ttl до естественного истечения токена
func (r *BlacklistCacheRepository) SetRevoked(ctx context.Context, jti string, ttl time.Duration) error {
	return r.set(ctx, jti, blacklistRevoked, ttl)
}

func (r *BlacklistCacheRepository) SetAllowed(ctx context.Context, jti string, ttl time.Duration) error {
	return r.set(ctx, jti, blacklistAllowed, ttl)
}

func (r *BlacklistCacheRepository) set(ctx context.Context, jti, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	cmd := r.client.Client.Set(ctx, blacklistKey(jti), value, ttl)
	if err := cmd.Err(); err != nil {
		return util.LogError("ошибка сохранения в Redis", err)
	}
	if cmd.Val() != "OK" {
		return fmt.Errorf("неожиданный ответ Redis: %s", cmd.Val())
	}

	return nil
}

func blacklistKey(jti string) string {
	return fmt.Sprintf("blacklist:%s", jti)
}
