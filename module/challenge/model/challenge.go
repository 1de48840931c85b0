package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	TableChallenges     = "challenges"
	TableParticipations = "challenge_participations"
)

const (
	ChallengeActive = "active"
	ChallengeClosed = "closed"
)

// 参与状态：joined -> submitted -> completed
const (
	ParticipationJoined    = "joined"
	ParticipationSubmitted = "submitted"
	ParticipationCompleted = "completed"
)

// Challenge 限时技能挑战。到期由滚动任务关闭，并按模板开下一期。
type Challenge struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ChallengeID string             `bson:"challenge_id" json:"challengeId"`
	TemplateID  string             `bson:"template_id,omitempty" json:"templateId,omitempty"`
	CreatorID   string             `bson:"creator_id,omitempty" json:"creatorId,omitempty"` // 手工开的挑战记创建者；模板滚动开的为空

	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Skill       string             `bson:"skill" json:"skill"`
	Status      string             `bson:"status" json:"status"`
	StartAt     time.Time          `bson:"start_at" json:"startAt"`
	EndAt       time.Time          `bson:"end_at" json:"endAt"`
}

func (Challenge) GetTableName() string { return TableChallenges }

// Expired 截止时间已过
func (c *Challenge) Expired(now time.Time) bool {
	return !now.Before(c.EndAt)
}

// Template 周期挑战模板；每期时长 Duration
type Template struct {
	TemplateID  string        `json:"templateId" yaml:"templateId"`
	Title       string        `json:"title" yaml:"title"`
	Description string        `json:"description" yaml:"description"`
	Skill       string        `json:"skill" yaml:"skill"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
}

// Submission 交作品的负载；客户端可以多带字段，服务端只认这里声明的
type Submission struct {
	URL   string `json:"url"`
	Notes string `json:"notes,omitempty"`
}

// Participation 用户在一期挑战里的参与记录
type Participation struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ChallengeID   string             `bson:"challenge_id" json:"challengeId"`
	UserID        string             `bson:"user_id" json:"userId"`
	Status        string             `bson:"status" json:"status"`
	SubmissionURL string             `bson:"submission_url,omitempty" json:"submissionUrl,omitempty"`
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty"`
	JoinedAt      time.Time          `bson:"joined_at" json:"joinedAt"`
	SubmittedAt   time.Time          `bson:"submitted_at,omitempty" json:"submittedAt,omitempty"`
}

func (Participation) GetTableName() string { return TableParticipations }
