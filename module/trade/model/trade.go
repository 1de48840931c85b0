package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const TableTrades = "trades"

// 交易状态机：open -> proposed -> in_progress -> completed / cancelled。
// open 与 proposed 可直接 cancelled；completed / cancelled 是终态。
const (
	StatusOpen       = "open"
	StatusProposed   = "proposed"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Trade 技能置换：创建者拿 OfferedSkill 换 RequestedSkill。
// ParticipantID 在有人提案后写入。
type Trade struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	TradeID        string             `bson:"trade_id" json:"tradeId"`
	CreatorID      string             `bson:"creator_id" json:"creatorId"`
	ParticipantID  string             `bson:"participant_id,omitempty" json:"participantId,omitempty"`
	Title          string             `bson:"title" json:"title"`
	Description    string             `bson:"description" json:"description"`
	OfferedSkill   string             `bson:"offered_skill" json:"offeredSkill"`
	RequestedSkill string             `bson:"requested_skill" json:"requestedSkill"`
	Status         string             `bson:"status" json:"status"`

	// 完成要双方各确认一次，都确认才迁移到 completed
	CreatorConfirmed     bool `bson:"creator_confirmed,omitempty" json:"creatorConfirmed,omitempty"`
	ParticipantConfirmed bool `bson:"participant_confirmed,omitempty" json:"participantConfirmed,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

func (Trade) GetTableName() string { return TableTrades }

// Closed 终态判断
func (t *Trade) Closed() bool {
	return t.Status == StatusCompleted || t.Status == StatusCancelled
}
