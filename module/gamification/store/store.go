package store

import (
	"context"

	"TradeYa/module/gamification/model"
)

// Store XP 账户持久化抽象。
// AddXP 原子累加并返回累加后的账户（级别由调用方写回无意义，
// 实现内按 LevelFor 一并更新）。
type Store interface {
	AddXP(ctx context.Context, userID string, delta int64) (*model.XPAccount, error)
	Get(ctx context.Context, userID string) (*model.XPAccount, error)
}
