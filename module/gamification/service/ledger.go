package service

import (
	"context"
	"encoding/json"

	"TradeYa/logger"
	"TradeYa/module/gamification/event"
	"TradeYa/module/gamification/model"
	"TradeYa/module/gamification/store"
	"TradeYa/service/kafka"
	"TradeYa/service/storage"
	"TradeYa/tools/errs"
)

// 各类活动的 XP 奖励
var xpRewards = map[string]int64{
	event.TypeTradeCompleted:     100,
	event.TypeCollabCompleted:    150,
	event.TypeChallengeCompleted: 75,
	event.TypeConnectionAccepted: 10,
}

// Board 排行榜出口；生产走 redis ZSET，单测用内存实现
type Board interface {
	Add(userID string, delta int64) error
	Top(n int64) ([]storage.LeaderboardEntry, error)
	Rank(userID string) (storage.LeaderboardEntry, error)
}

// RedisBoard 包一层 service/storage 的包级函数
type RedisBoard struct{}

func (RedisBoard) Add(userID string, delta int64) error { return storage.LeaderboardAdd(userID, delta) }
func (RedisBoard) Top(n int64) ([]storage.LeaderboardEntry, error) {
	return storage.LeaderboardTop(n)
}
func (RedisBoard) Rank(userID string) (storage.LeaderboardEntry, error) {
	return storage.LeaderboardRank(userID)
}

// Ledger XP 流水：消费活动事件，累加经验并同步排行榜。
// 排行榜写失败只记日志，账本以 Mongo 为准。
type Ledger struct {
	store store.Store
	board Board
}

func NewLedger(s store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store: s,
		board: RedisBoard{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type Option func(*Ledger)

func WithBoard(b Board) Option {
	return func(l *Ledger) {
		if b != nil {
			l.board = b
		}
	}
}

// Apply 处理一条活动事件；未知类型直接忽略
func (l *Ledger) Apply(ctx context.Context, a event.Activity) error {
	reward, ok := xpRewards[a.Type]
	if !ok {
		logger.Debug("unknown activity type dropped: " + a.Type)
		return nil
	}
	if a.UserID == "" {
		return errs.ErrArgs.WithDetail("activity without user id")
	}

	acc, err := l.store.AddXP(ctx, a.UserID, reward)
	if err != nil {
		return err
	}
	if err := l.board.Add(a.UserID, reward); err != nil {
		logger.Warnf("leaderboard update skipped user=%s: %v", a.UserID, err)
	}
	logger.Debugf("xp applied user=%s type=%s +%d total=%d level=%d",
		a.UserID, a.Type, reward, acc.XP, acc.Level)
	return nil
}

// HandleKafka kafka.MessageHandler 形状；main 注册到活动 topic 上
func (l *Ledger) HandleKafka(topic string, key, value []byte) error {
	var a event.Activity
	if err := json.Unmarshal(value, &a); err != nil {
		logger.Errorf("malformed activity on %s: %v", topic, err)
		return nil
	}
	return l.Apply(context.Background(), a)
}

// Register 把流水挂到活动 topic 的消费侧
func (l *Ledger) Register() {
	kafka.RegisterHandler(event.TopicActivity, l.HandleKafka)
}

// Account 查用户经验；从未得分按零值账户返回
func (l *Ledger) Account(ctx context.Context, userID string) (*model.XPAccount, error) {
	if userID == "" {
		return nil, errs.ErrArgs.WithDetail("user id is required")
	}
	acc, err := l.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return &model.XPAccount{UserID: userID, Level: 1}, nil
	}
	return acc, nil
}

// Top 排行榜前 n 名
func (l *Ledger) Top(n int64) ([]storage.LeaderboardEntry, error) {
	if n <= 0 {
		n = 10
	}
	return l.board.Top(n)
}

// Rank 用户当前名次
func (l *Ledger) Rank(userID string) (storage.LeaderboardEntry, error) {
	if userID == "" {
		return storage.LeaderboardEntry{}, errs.ErrArgs.WithDetail("user id is required")
	}
	return l.board.Rank(userID)
}
