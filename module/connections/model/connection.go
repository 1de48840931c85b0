package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 连接状态。decline 不落终态：两侧记录直接删除，查询侧只会看到 none。
const (
	StatusNone     = "none"
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusDeclined = "declined"
)

// Connection 表示一条人脉关系的单侧视图（每侧各存一条）。
// connections 集合存"我收到/已建立的"，sent_requests 集合存"我发出的"。
// (owner_id, conn_id) 做联合唯一索引。
type Connection struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ConnID  string             `bson:"conn_id" json:"conn_id"` // "{from}_{to}"，顺序有意义
	OwnerID string             `bson:"owner_id" json:"owner_id"`
	UserID  string             `bson:"user_id" json:"user_id"` // 对端用户（从 owner 视角看）

	// 显式存双方ID，不从 conn_id 反解（用户ID里出现分隔符时反解会错）
	FromUserID string `bson:"from_user_id" json:"from_user_id"`
	ToUserID   string `bson:"to_user_id" json:"to_user_id"`

	Status    string    `bson:"status" json:"status"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"` // 每次状态迁移都覆盖
}

const (
	TableConnections  = "connections"
	TableSentRequests = "sent_requests"
)

// ConnID 组合键："{from}_{to}"
func BuildConnID(fromUserID, toUserID string) string {
	return fromUserID + "_" + toUserID
}
