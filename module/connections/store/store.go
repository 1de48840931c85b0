package store

import (
	"context"

	"TradeYa/module/connections/model"
)

// Store 连接目录的持久化抽象。
// 生产实现 Mongo（store/mongo.go）；测试用内存实现（store/memory.go）。
//
// Transaction 内的读写必须是全有或全无；实现方保证批内原子性，
// 调用方（service.Directory）保证“查重 + 写入”发生在同一个事务里。
type Store interface {
	// UserExists 点查用户是否存在
	UserExists(ctx context.Context, userID string) (bool, error)

	// GetConnection / GetSentRequest 按 (owner, connID) 点查；不存在返回 nil, nil
	GetConnection(ctx context.Context, ownerID, connID string) (*model.Connection, error)
	GetSentRequest(ctx context.Context, ownerID, connID string) (*model.Connection, error)

	// FindConnectionWith / FindSentRequestTo 按对端用户查（owner 集合内 user_id 等值）
	FindConnectionWith(ctx context.Context, ownerID, otherUserID string) (*model.Connection, error)
	FindSentRequestTo(ctx context.Context, ownerID, otherUserID string) (*model.Connection, error)

	// ListConnections 列出 owner 的全部已建立/待处理连接
	ListConnections(ctx context.Context, ownerID string) ([]*model.Connection, error)
	// ListSentRequests 列出 owner 的全部已发出请求
	ListSentRequests(ctx context.Context, ownerID string) ([]*model.Connection, error)

	// PutConnection / PutSentRequest 按 (owner, connID) upsert
	PutConnection(ctx context.Context, c *model.Connection) error
	PutSentRequest(ctx context.Context, c *model.Connection) error

	// DeleteConnection / DeleteSentRequest 幂等删除：目标不存在不算错
	DeleteConnection(ctx context.Context, ownerID, connID string) error
	DeleteSentRequest(ctx context.Context, ownerID, connID string) error

	// Transaction fn 内的写要么全部生效，要么全部回滚
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}
