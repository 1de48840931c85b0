package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const TableNotifications = "notifications"

// 通知级别
const (
	LevelSuccess = "success"
	LevelError   = "error"
)

// Notification 站内通知：落库一份，同时经 NATS 推给在线端
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	NotifyID  string             `bson:"notify_id" json:"notifyId"`
	UserID    string             `bson:"user_id" json:"userId"`
	Level     string             `bson:"level" json:"level"`
	Title     string             `bson:"title" json:"title"`
	Body      string             `bson:"body" json:"body"`
	Read      bool               `bson:"read" json:"read"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

func (Notification) GetTableName() string { return TableNotifications }
