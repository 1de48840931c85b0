package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const TableUsers = "users"

// User 平台账号。user_id 是雪花串，不允许含 "_"（连接组合键的分隔符）。
// SkillsOffered / SkillsWanted 支撑技能置换的匹配检索。
type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	UserID        string             `bson:"user_id" json:"userId"`
	Email         string             `bson:"email" json:"email"`
	DisplayName   string             `bson:"display_name" json:"displayName"`
	Bio           string             `bson:"bio" json:"bio"`
	AvatarURL     string             `bson:"avatar_url" json:"avatarUrl"`
	SkillsOffered []string           `bson:"skills_offered" json:"skillsOffered"`
	SkillsWanted  []string           `bson:"skills_wanted" json:"skillsWanted"`

	PasswordHash string `bson:"password_hash" json:"-"`
	Salt         string `bson:"salt" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

func (User) GetTableName() string { return TableUsers }

// Public 脱敏视图（他人可见）
type Public struct {
	UserID        string   `json:"userId"`
	DisplayName   string   `json:"displayName"`
	Bio           string   `json:"bio"`
	AvatarURL     string   `json:"avatarUrl"`
	SkillsOffered []string `json:"skillsOffered"`
	SkillsWanted  []string `json:"skillsWanted"`
}

func (u *User) ToPublic() *Public {
	return &Public{
		UserID:        u.UserID,
		DisplayName:   u.DisplayName,
		Bio:           u.Bio,
		AvatarURL:     u.AvatarURL,
		SkillsOffered: u.SkillsOffered,
		SkillsWanted:  u.SkillsWanted,
	}
}
