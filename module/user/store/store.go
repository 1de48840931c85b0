package store

import (
	"context"

	"TradeYa/module/user/model"
)

// Store 用户持久化抽象。点查不存在返回 nil, nil。
type Store interface {
	Insert(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, userID string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, u *model.User) error
	// SearchBySkill 在 skills_offered 里找提供某技能的人
	SearchBySkill(ctx context.Context, skill string, limit int64) ([]*model.User, error)
}
