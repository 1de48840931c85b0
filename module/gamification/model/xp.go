package model

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const TableXPAccounts = "xp_accounts"

// XPAccount 用户经验账户；XP 只增不减
type XPAccount struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	UserID    string             `bson:"user_id" json:"userId"`
	XP        int64              `bson:"xp" json:"xp"`
	Level     int                `bson:"level" json:"level"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

func (XPAccount) GetTableName() string { return TableXPAccounts }

// LevelFor 等级曲线：level = floor(sqrt(xp/100)) + 1。
// 0xp -> 1级，100xp -> 2级，400xp -> 3级，900xp -> 4级。
func LevelFor(xp int64) int {
	if xp < 0 {
		return 1
	}
	return int(math.Sqrt(float64(xp)/100)) + 1
}
