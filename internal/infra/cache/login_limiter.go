package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const loginKeyPrefix = "login:attempts:"

// LOGIN_RATE_LIMIT は1分あたりの回数
const DefaultLoginWindow = time.Minute

// 固定ウィンドウでログイン試行を数える（キーはクライアントIP）
type RedisLoginLimiter struct {
	rdb    *redis.Client
	limit  int64
	window time.Duration
}

func NewRedisLoginLimiter(rdb *redis.Client, limit int, window time.Duration) *RedisLoginLimiter {
	return &RedisLoginLimiter{rdb: rdb, limit: int64(limit), window: window}
}

func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

// Allow は今回の試行を数えて、上限以内なら true を返す。
func (l *RedisLoginLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := loginKeyPrefix + key

	var incr *redis.IntCmd
	_, err := l.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		//初回だけ期限を付ける
		p.ExpireNX(ctx, k, l.window)
		return nil
	})
	if err != nil {
		return false, err
	}
	return incr.Val() <= l.limit, nil
}

// 試行回数をリセット
func (l *RedisLoginLimiter) Reset(ctx context.Context, key string) error {
	return l.rdb.Del(ctx, loginKeyPrefix+key).Err()
}
