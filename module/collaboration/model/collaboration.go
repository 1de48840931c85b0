package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const TableCollaborations = "collaborations"

const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Role 协作里的一个技能席位。FilledBy 为空表示还在招人。
type Role struct {
	Name       string   `bson:"name" json:"name"`
	Skill      string   `bson:"skill" json:"skill"`
	FilledBy   string   `bson:"filled_by,omitempty" json:"filledBy,omitempty"`
	Applicants []string `bson:"applicants,omitempty" json:"applicants,omitempty"`
}

// Collaboration 多人协作项目：创建者定义席位，申请人按席位申请。
// Version 做乐观锁：席位与状态的并发修改靠它挡。
type Collaboration struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	CollabID    string             `bson:"collab_id" json:"collabId"`
	CreatorID   string             `bson:"creator_id" json:"creatorId"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Roles       []Role             `bson:"roles" json:"roles"`
	Status      string             `bson:"status" json:"status"`
	Version     int64              `bson:"version" json:"-"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}

func (Collaboration) GetTableName() string { return TableCollaborations }

func (c *Collaboration) Closed() bool {
	return c.Status == StatusCompleted || c.Status == StatusCancelled
}

// Role 按名称找席位；找不到返回 nil
func (c *Collaboration) Role(name string) *Role {
	for i := range c.Roles {
		if c.Roles[i].Name == name {
			return &c.Roles[i]
		}
	}
	return nil
}

// AllFilled 是否所有席位都已有人
func (c *Collaboration) AllFilled() bool {
	for i := range c.Roles {
		if c.Roles[i].FilledBy == "" {
			return false
		}
	}
	return true
}

// Participants 创建者加全部已入席成员
func (c *Collaboration) Participants() []string {
	out := []string{c.CreatorID}
	for i := range c.Roles {
		if u := c.Roles[i].FilledBy; u != "" && u != c.CreatorID {
			out = append(out, u)
		}
	}
	return out
}
