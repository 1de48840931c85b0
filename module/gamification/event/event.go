package event

import (
	"context"
	"encoding/json"
	"time"

	"TradeYa/logger"
	"TradeYa/service/kafka"
)

// 活动事件统一走这个 topic，按 user_id 分区保序
const TopicActivity = "ty.activity"

// 活动类型
const (
	TypeTradeCompleted     = "trade_completed"
	TypeCollabCompleted    = "collab_completed"
	TypeChallengeCompleted = "challenge_completed"
	TypeConnectionAccepted = "connection_accepted"
)

// Activity 一条可得分的用户活动。RefID 指向来源对象（trade_id 等）。
type Activity struct {
	Type   string    `json:"type"`
	UserID string    `json:"userId"`
	RefID  string    `json:"refId"`
	At     time.Time `json:"at"`
}

// Sink 事件出口抽象；生产走 Kafka，单测用内存实现
type Sink interface {
	Emit(ctx context.Context, a Activity) error
}

// KafkaSink 经同步生产者写入活动 topic
type KafkaSink struct{}

func (KafkaSink) Emit(ctx context.Context, a Activity) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return kafka.SendSync(TopicActivity, a.UserID, payload)
}

// Emitter 各业务模块拿去直接用的薄封装。
// 发送失败只记日志：活动事件允许丢，不能拖垮业务主流程。
type Emitter struct {
	sink  Sink
	clock func() time.Time
}

func NewEmitter(sink Sink) *Emitter {
	if sink == nil {
		sink = KafkaSink{}
	}
	return &Emitter{sink: sink, clock: time.Now}
}

func (e *Emitter) emit(ctx context.Context, typ, userID, refID string) {
	a := Activity{Type: typ, UserID: userID, RefID: refID, At: e.clock()}
	if err := e.sink.Emit(ctx, a); err != nil {
		logger.Warnf("activity emit dropped type=%s user=%s: %v", typ, userID, err)
	}
}

func (e *Emitter) TradeCompleted(ctx context.Context, userID, tradeID string) {
	e.emit(ctx, TypeTradeCompleted, userID, tradeID)
}

func (e *Emitter) CollabCompleted(ctx context.Context, userID, collabID string) {
	e.emit(ctx, TypeCollabCompleted, userID, collabID)
}

func (e *Emitter) ChallengeCompleted(ctx context.Context, userID, challengeID string) {
	e.emit(ctx, TypeChallengeCompleted, userID, challengeID)
}

// ConnectionAccepted 双方各得一条活动
func (e *Emitter) ConnectionAccepted(ctx context.Context, fromUserID, toUserID string) {
	refID := fromUserID + "_" + toUserID
	e.emit(ctx, TypeConnectionAccepted, fromUserID, refID)
	e.emit(ctx, TypeConnectionAccepted, toUserID, refID)
}
