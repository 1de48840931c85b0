package store

import (
	"context"

	"TradeYa/module/notify/model"
)

// Store 通知持久化抽象
type Store interface {
	Insert(ctx context.Context, n *model.Notification) error
	// List 按时间倒序返回最近 limit 条；limit<=0 用默认值
	List(ctx context.Context, userID string, limit int64) ([]*model.Notification, error)
	// MarkRead 不存在的通知不算错
	MarkRead(ctx context.Context, userID, notifyID string) error
	CountUnread(ctx context.Context, userID string) (int64, error)
}
