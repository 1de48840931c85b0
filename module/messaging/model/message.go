package model

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	TableConversations = "conversations"
	TableMessages      = "messages"
)

// Conversation 两人会话。conv_id 对用户对无序（排序后拼接），
// last_seq 是该会话的消息序号水位，发消息时原子自增。
type Conversation struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ConvID    string             `bson:"conv_id" json:"convId"`
	Members   []string           `bson:"members" json:"members"`
	LastSeq   int64              `bson:"last_seq" json:"lastSeq"`
	ReadSeq   map[string]int64   `bson:"read_seq,omitempty" json:"readSeq,omitempty"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

func (Conversation) GetTableName() string { return TableConversations }

// UnreadFor 用户在该会话的未读条数（水位差）
func (c *Conversation) UnreadFor(userID string) int64 {
	n := c.LastSeq - c.ReadSeq[userID]
	if n < 0 {
		return 0
	}
	return n
}

// Message 会话内按 seq 全序；seq 从 1 开始连续
type Message struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	MsgID      string             `bson:"msg_id" json:"msgId"`
	ConvID     string             `bson:"conv_id" json:"convId"`
	Seq        int64              `bson:"seq" json:"seq"`
	FromUserID string             `bson:"from_user_id" json:"fromUserId"`
	ToUserID   string             `bson:"to_user_id" json:"toUserId"`
	Body       string             `bson:"body" json:"body"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
}

func (Message) GetTableName() string { return TableMessages }

// BuildConvID 会话键对成员无序："<小id>:<大id>"
func BuildConvID(a, b string) string {
	p := []string{a, b}
	sort.Strings(p)
	return p[0] + ":" + p[1]
}
