package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var ctx = context.Background()

var rdb *redis.Client

// Bind 注入 redis 客户端；main 在 InitRedis 之后调用一次
func Bind(client *redis.Client) { rdb = client }

// presence key: ty:presence:<user>
// 值是 gateway_id，TTL 决定在线有效期
func presenceKey(user string) string { return "ty:presence:" + user }

// PresenceOnline 标记用户在线并续 TTL
func PresenceOnline(user, gatewayID string, ttl time.Duration) error {
	if rdb == nil {
		return fmt.Errorf("redis not initialized")
	}
	return rdb.Set(ctx, presenceKey(user), gatewayID, ttl).Err()
}

// PresenceOffline 主动下线（删 key）
func PresenceOffline(user string) error {
	if rdb == nil {
		return fmt.Errorf("redis not initialized")
	}
	return rdb.Del(ctx, presenceKey(user)).Err()
}

// PresenceLookup 查用户是否在线；在线时带回所在网关
func PresenceLookup(user string) (gatewayID string, online bool, err error) {
	if rdb == nil {
		return "", false, fmt.Errorf("redis not initialized")
	}
	val, err := rdb.Get(ctx, presenceKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}
