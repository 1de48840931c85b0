package store

import (
	"context"

	"TradeYa/module/messaging/model"
)

// Store 消息持久化抽象。
//
// NextSeq 对会话文档做原子自增并返回新水位；会话不存在则按
// members 创建后从 1 开始。同一会话的并发发送各拿到不同 seq。
type Store interface {
	NextSeq(ctx context.Context, convID string, members []string) (int64, error)
	InsertMessage(ctx context.Context, m *model.Message) error
	// ListMessages 取 seq > afterSeq 的消息，按 seq 升序，最多 limit 条
	ListMessages(ctx context.Context, convID string, afterSeq int64, limit int64) ([]*model.Message, error)
	// ListConversations 用户参与的会话，按最近活跃排序
	ListConversations(ctx context.Context, userID string, limit int64) ([]*model.Conversation, error)
	// SetReadSeq 推高用户在会话里的已读水位；只增不减
	SetReadSeq(ctx context.Context, convID, userID string, seq int64) error
}
