package store

import (
	"context"
	"time"

	"TradeYa/module/challenge/model"
)

// Store 挑战持久化抽象。点查不存在返回 nil, nil。
type Store interface {
	InsertChallenge(ctx context.Context, c *model.Challenge) error
	GetChallenge(ctx context.Context, challengeID string) (*model.Challenge, error)
	ListActive(ctx context.Context, limit int64) ([]*model.Challenge, error)
	// CloseExpired 把截止时间早于 now 的 active 挑战置为 closed，返回被关闭的挑战
	CloseExpired(ctx context.Context, now time.Time) ([]*model.Challenge, error)
	// ActiveByTemplate 模板当前是否有在跑的一期
	ActiveByTemplate(ctx context.Context, templateID string) (*model.Challenge, error)

	InsertParticipation(ctx context.Context, p *model.Participation) error
	GetParticipation(ctx context.Context, challengeID, userID string) (*model.Participation, error)
	UpdateParticipation(ctx context.Context, p *model.Participation) error
	ListParticipants(ctx context.Context, challengeID string, limit int64) ([]*model.Participation, error)
}
