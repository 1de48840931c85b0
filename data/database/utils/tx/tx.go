package tx

import "context"

// Tx 事务抽象：fn 内的所有写要么全部落库，要么全部回滚。
// Mongo 实现基于 session + WithTransaction；内存实现直接执行（测试用）。
type Tx interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}
