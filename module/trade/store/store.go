package store

import (
	"context"

	"TradeYa/module/trade/model"
)

// Store 交易持久化抽象。Get 不存在返回 nil, nil。
//
// UpdateStatus 带前置状态做条件更新（compare-and-set）：
// 当前状态不等于 fromStatus 时返回 (false, nil)，由服务层翻译成冲突错误。
type Store interface {
	Insert(ctx context.Context, t *model.Trade) error
	Get(ctx context.Context, tradeID string) (*model.Trade, error)
	ListOpen(ctx context.Context, skill string, limit int64) ([]*model.Trade, error)
	ListByUser(ctx context.Context, userID string, limit int64) ([]*model.Trade, error)
	UpdateStatus(ctx context.Context, tradeID, fromStatus string, t *model.Trade) (bool, error)
}
