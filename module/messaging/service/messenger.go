package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"TradeYa/logger"
	connmodel "TradeYa/module/connections/model"
	"TradeYa/module/messaging/model"
	"TradeYa/module/messaging/store"
	"TradeYa/service/natsx"
	"TradeYa/service/storage"
	"TradeYa/tools/errs"
	"TradeYa/tools/ids"
)

// NATS 业务路由名：网关订阅后按 user_id 头投递到 websocket
const BizChatDeliver = "chat.deliver"

const maxBodyLen = 4096

// StatusChecker 发消息前查双方关系（connections.Directory 满足该接口）
type StatusChecker interface {
	GetConnectionStatus(ctx context.Context, userID, otherUserID string) (string, error)
}

// Pusher 在线投递出口
type Pusher interface {
	Publish(ctx context.Context, biz string, data []byte, hdr map[string]string) error
}

type natsPusher struct{}

// 收方不在线就不进 NATS，少一跳空转；presence 查询失败按在线处理
func (natsPusher) Publish(ctx context.Context, biz string, data []byte, hdr map[string]string) error {
	if user := hdr["user_id"]; user != "" {
		if _, online, err := storage.PresenceLookup(user); err == nil && !online {
			return nil
		}
	}
	return natsx.Publish(ctx, biz, data, hdr)
}

// Messenger 私信服务：只有已建立连接（accepted）的双方可以互发。
// seq 由会话文档原子自增分配，落库成功后尽力在线推送。
type Messenger struct {
	store  store.Store
	status StatusChecker
	push   Pusher
	clock  func() time.Time
}

func NewMessenger(s store.Store, status StatusChecker, opts ...Option) *Messenger {
	m := &Messenger{
		store:  s,
		status: status,
		push:   natsPusher{},
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type Option func(*Messenger)

func WithPusher(p Pusher) Option {
	return func(m *Messenger) {
		if p != nil {
			m.push = p
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(m *Messenger) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// Send 发私信；返回落库后的消息（带 seq）
func (m *Messenger) Send(ctx context.Context, fromUserID, toUserID, body string) (*model.Message, error) {
	if fromUserID == "" || toUserID == "" {
		return nil, errs.ErrArgs.WithDetail("both user ids are required")
	}
	if fromUserID == toUserID {
		return nil, errs.ErrArgs.WithDetail("cannot message yourself")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, errs.ErrArgs.WithDetail("message body is required")
	}
	if len(body) > maxBodyLen {
		return nil, errs.ErrArgs.WithDetail("message body too long")
	}

	status, err := m.status.GetConnectionStatus(ctx, fromUserID, toUserID)
	if err != nil {
		return nil, err
	}
	if status != connmodel.StatusAccepted {
		return nil, errs.ErrPermissionDenied.WithDetail("messaging requires an accepted connection").Wrap()
	}

	convID := model.BuildConvID(fromUserID, toUserID)
	seq, err := m.store.NextSeq(ctx, convID, []string{fromUserID, toUserID})
	if err != nil {
		return nil, err
	}

	msg := &model.Message{
		MsgID:      ids.GenerateString(),
		ConvID:     convID,
		Seq:        seq,
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Body:       body,
		CreatedAt:  m.clock(),
	}
	if err := m.store.InsertMessage(ctx, msg); err != nil {
		return nil, err
	}
	// 自己发的自己已读
	if err := m.store.SetReadSeq(ctx, convID, fromUserID, seq); err != nil {
		logger.Warnf("advance sender read seq conv=%s: %v", convID, err)
	}

	// 在线推送尽力而为；收方离线靠 History 拉取补齐
	if payload, err := json.Marshal(msg); err == nil {
		if err := m.push.Publish(ctx, BizChatDeliver, payload, map[string]string{"user_id": toUserID}); err != nil {
			logger.Warnf("chat deliver skipped conv=%s seq=%d: %v", convID, seq, err)
		}
	}
	return msg, nil
}

// History 拉取与某人的历史消息（seq > afterSeq，升序）。
// 只允许会话双方拉取，由 userID 必在 convID 里保证。
func (m *Messenger) History(ctx context.Context, userID, otherUserID string, afterSeq, limit int64) ([]*model.Message, error) {
	if userID == "" || otherUserID == "" {
		return nil, errs.ErrArgs.WithDetail("both user ids are required")
	}
	return m.store.ListMessages(ctx, model.BuildConvID(userID, otherUserID), afterSeq, limit)
}

// Conversations 最近会话列表
func (m *Messenger) Conversations(ctx context.Context, userID string, limit int64) ([]*model.Conversation, error) {
	if userID == "" {
		return nil, errs.ErrArgs.WithDetail("user id is required")
	}
	return m.store.ListConversations(ctx, userID, limit)
}

// MarkRead 推高已读水位到 seq；水位差即未读数（model.UnreadFor）
func (m *Messenger) MarkRead(ctx context.Context, userID, otherUserID string, seq int64) error {
	if userID == "" || otherUserID == "" {
		return errs.ErrArgs.WithDetail("both user ids are required")
	}
	if seq < 0 {
		return errs.ErrArgs.WithDetail("seq must not be negative")
	}
	return m.store.SetReadSeq(ctx, model.BuildConvID(userID, otherUserID), userID, seq)
}
