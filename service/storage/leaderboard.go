package storage

import (
	"fmt"

	"github.com/redis/go-redis/v9"
)

// —— XP 排行榜：一个全局 ZSET ——

const leaderboardKey = "ty:xp:leaderboard"

// LeaderboardAdd 给用户累加 XP 分值
func LeaderboardAdd(userID string, delta int64) error {
	if rdb == nil {
		return fmt.Errorf("redis not initialized")
	}
	return rdb.ZIncrBy(ctx, leaderboardKey, float64(delta), userID).Err()
}

// LeaderboardEntry 排行榜一行
type LeaderboardEntry struct {
	UserID string `json:"user_id"`
	XP     int64  `json:"xp"`
	Rank   int64  `json:"rank"` // 1-based
}

// LeaderboardTop 取前 n 名（按 XP 从高到低）
func LeaderboardTop(n int64) ([]LeaderboardEntry, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis not initialized")
	}
	zs, err := rdb.ZRevRangeWithScores(ctx, leaderboardKey, 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]LeaderboardEntry, 0, len(zs))
	for i, z := range zs {
		member, _ := z.Member.(string)
		out = append(out, LeaderboardEntry{
			UserID: member,
			XP:     int64(z.Score),
			Rank:   int64(i + 1),
		})
	}
	return out, nil
}

// LeaderboardRank 查单个用户的名次与分值；不在榜上时 rank=0
func LeaderboardRank(userID string) (LeaderboardEntry, error) {
	if rdb == nil {
		return LeaderboardEntry{}, fmt.Errorf("redis not initialized")
	}
	rank, err := rdb.ZRevRank(ctx, leaderboardKey, userID).Result()
	if err == redis.Nil {
		return LeaderboardEntry{UserID: userID}, nil
	}
	if err != nil {
		return LeaderboardEntry{}, err
	}
	score, err := rdb.ZScore(ctx, leaderboardKey, userID).Result()
	if err != nil && err != redis.Nil {
		return LeaderboardEntry{}, err
	}
	return LeaderboardEntry{
		UserID: userID,
		XP:     int64(score),
		Rank:   rank + 1,
	}, nil
}
