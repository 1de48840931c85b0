package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/mail"
	"strings"
	"time"

	"TradeYa/module/user/model"
	"TradeYa/module/user/store"
	"TradeYa/tools/errs"
	"TradeYa/tools/ids"
	jwtlib "TradeYa/tools/security"
)

const minPasswordLen = 8

// Accounts 账号服务：注册、登录、资料
type Accounts struct {
	store store.Store
	jwt   jwtlib.Options
	clock func() time.Time
}

func NewAccounts(s store.Store, jwtOpts jwtlib.Options) *Accounts {
	return &Accounts{
		store: s,
		jwt:   jwtOpts,
		clock: time.Now,
	}
}

type RegisterReq struct {
	Email         string   `json:"email"`
	Password      string   `json:"password"`
	DisplayName   string   `json:"displayName"`
	SkillsOffered []string `json:"skillsOffered"`
	SkillsWanted  []string `json:"skillsWanted"`
}

// Register 注册；user_id 用雪花串（纯数字，天然不含组合键分隔符）
func (a *Accounts) Register(ctx context.Context, req *RegisterReq) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, errs.ErrArgs.WithDetail("invalid email")
	}
	if len(req.Password) < minPasswordLen {
		return nil, errs.ErrArgs.WithDetail("password too short")
	}
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		return nil, errs.ErrArgs.WithDetail("display name is required")
	}

	salt, err := newSalt()
	if err != nil {
		return nil, errs.WrapMsg(err, "generate salt")
	}
	now := a.clock()
	u := &model.User{
		UserID:        ids.GenerateString(),
		Email:         email,
		DisplayName:   name,
		SkillsOffered: normalizeSkills(req.SkillsOffered),
		SkillsWanted:  normalizeSkills(req.SkillsWanted),
		PasswordHash:  jwtlib.HashPassword(req.Password, salt),
		Salt:          salt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := a.store.Insert(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

type LoginResult struct {
	UserID   string    `json:"userId"`
	Token    string    `json:"token"`
	ExpireAt time.Time `json:"expireAt"`
}

// Login 邮箱+口令登录，签发 JWT。
// 账号不存在与口令不对返回同一个错误，不给枚举邮箱的口子。
func (a *Accounts) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errs.ErrArgs.WithDetail("email and password are required")
	}
	u, err := a.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil || jwtlib.HashPassword(password, u.Salt) != u.PasswordHash {
		return nil, errs.ErrPermissionDenied.WithDetail("bad credentials").Wrap()
	}
	token, exp, err := jwtlib.Generate(a.jwt, u.UserID, nil)
	if err != nil {
		return nil, errs.WrapMsg(err, "sign token")
	}
	return &LoginResult{UserID: u.UserID, Token: token, ExpireAt: exp}, nil
}

// Profile 查看资料；本人拿全量，他人拿脱敏视图由 handler 决定
func (a *Accounts) Profile(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, errs.ErrArgs.WithDetail("user id is required")
	}
	u, err := a.store.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errs.ErrUserNotFound.Wrap()
	}
	return u, nil
}

type UpdateProfileReq struct {
	DisplayName   string   `json:"displayName"`
	Bio           string   `json:"bio"`
	AvatarURL     string   `json:"avatarUrl"`
	SkillsOffered []string `json:"skillsOffered"`
	SkillsWanted  []string `json:"skillsWanted"`
}

func (a *Accounts) UpdateProfile(ctx context.Context, userID string, req *UpdateProfileReq) (*model.User, error) {
	u, err := a.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(req.DisplayName); name != "" {
		u.DisplayName = name
	}
	u.Bio = req.Bio
	u.AvatarURL = req.AvatarURL
	if req.SkillsOffered != nil {
		u.SkillsOffered = normalizeSkills(req.SkillsOffered)
	}
	if req.SkillsWanted != nil {
		u.SkillsWanted = normalizeSkills(req.SkillsWanted)
	}
	u.UpdatedAt = a.clock()
	if err := a.store.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// SearchBySkill 按提供的技能找人
func (a *Accounts) SearchBySkill(ctx context.Context, skill string, limit int64) ([]*model.Public, error) {
	skill = normalizeSkill(skill)
	if skill == "" {
		return nil, errs.ErrArgs.WithDetail("skill is required")
	}
	users, err := a.store.SearchBySkill(ctx, skill, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Public, 0, len(users))
	for _, u := range users {
		out = append(out, u.ToPublic())
	}
	return out, nil
}

func newSalt() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// normalizeSkill 技能名统一小写去空白，作为精确匹配键
func normalizeSkill(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeSkills(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = normalizeSkill(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
