package store

import (
	"context"

	"TradeYa/module/collaboration/model"
)

// Store 协作持久化抽象。Get 不存在返回 nil, nil。
//
// Replace 乐观锁整体替换：文档当前 version 不等于 expectVersion 时
// 返回 (false, nil)，写入时 version 自增。
type Store interface {
	Insert(ctx context.Context, c *model.Collaboration) error
	Get(ctx context.Context, collabID string) (*model.Collaboration, error)
	ListOpen(ctx context.Context, limit int64) ([]*model.Collaboration, error)
	ListByUser(ctx context.Context, userID string, limit int64) ([]*model.Collaboration, error)
	Replace(ctx context.Context, c *model.Collaboration, expectVersion int64) (bool, error)
}
