package storage

import (
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// —— 连接状态缓存 ——
// key 对用户对无序：ty:conn:<小id>:<大id>，写路径在状态变化时主动失效。

func connKey(a, b string) string {
	p := []string{a, b}
	sort.Strings(p)
	return fmt.Sprintf("ty:conn:%s:%s", p[0], p[1])
}

// ConnStatusCacheGet 命中返回 (status, true)
func ConnStatusCacheGet(a, b string) (string, bool, error) {
	if rdb == nil {
		return "", false, fmt.Errorf("redis not initialized")
	}
	val, err := rdb.Get(ctx, connKey(a, b)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func ConnStatusCacheSet(a, b, status string, ttl time.Duration) error {
	if rdb == nil {
		return fmt.Errorf("redis not initialized")
	}
	return rdb.Set(ctx, connKey(a, b), status, ttl).Err()
}

// ConnStatusCacheDrop 状态迁移后失效
func ConnStatusCacheDrop(a, b string) error {
	if rdb == nil {
		return fmt.Errorf("redis not initialized")
	}
	return rdb.Del(ctx, connKey(a, b)).Err()
}
