package repository

import (
	"auth-session-server/config"
	"auth-session-server/internal/util"
	"context"
	"fmt"
	"time"
)

// RateLimitRepository : счётчик в фиксированном окне на INCR + PEXPIRE
type RateLimitRepository struct {
	client *config.RedisClient
}

func NewRateLimitRepository(rdb *config.RedisClient) *RateLimitRepository {
	return &RateLimitRepository{rdb}
}

// Allow : true, пока в текущем окне было не больше limit обращений по key
func (r *RateLimitRepository) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 || window < time.Millisecond {
		return true, nil
	}

	redisKey := rateLimitKey(key, window, time.Now())

	pipe := r.client.Client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.PExpire(ctx, redisKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, util.LogError("ошибка обновления счётчика rate limit", err)
	}

	return incr.Val() <= int64(limit), nil
}

// rateLimitKey : ключ меняется с каждым окном, поэтому старый счётчик просто истекает
func rateLimitKey(key string, window time.Duration, now time.Time) string {
	bucket := now.UnixMilli() / window.Milliseconds()
	return fmt.Sprintf("ratelimit:%s:%d", key, bucket)
}
