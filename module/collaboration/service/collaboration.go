package service

import (
	"context"
	"strings"
	"time"

	"TradeYa/module/collaboration/model"
	"TradeYa/module/collaboration/store"
	"TradeYa/tools/errs"
	"TradeYa/tools/ids"
)

type Notifier interface {
	Success(ctx context.Context, userID, title, body string)
	Failure(ctx context.Context, userID, title, body string)
}

type Emitter interface {
	CollabCompleted(ctx context.Context, userID, collabID string)
}

type noopNotifier struct{}

func (noopNotifier) Success(context.Context, string, string, string) {}
func (noopNotifier) Failure(context.Context, string, string, string) {}

type noopEmitter struct{}

func (noopEmitter) CollabCompleted(context.Context, string, string) {}

// 单次乐观锁冲突后的重读次数
const replaceRetries = 3

// Projects 协作项目服务。席位与状态的修改都是
// 读-改-Replace（乐观锁），冲突就重读重试。
type Projects struct {
	store  store.Store
	notify Notifier
	events Emitter
	clock  func() time.Time
}

func NewProjects(s store.Store, opts ...Option) *Projects {
	p := &Projects{
		store:  s,
		notify: noopNotifier{},
		events: noopEmitter{},
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type Option func(*Projects)

func WithNotifier(n Notifier) Option {
	return func(p *Projects) {
		if n != nil {
			p.notify = n
		}
	}
}

func WithEmitter(e Emitter) Option {
	return func(p *Projects) {
		if e != nil {
			p.events = e
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(p *Projects) {
		if clock != nil {
			p.clock = clock
		}
	}
}

type RoleReq struct {
	Name  string `json:"name"`
	Skill string `json:"skill"`
}

type CreateReq struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Roles       []RoleReq `json:"roles"`
}

func (p *Projects) Create(ctx context.Context, creatorID string, req *CreateReq) (*model.Collaboration, error) {
	if creatorID == "" {
		return nil, errs.ErrArgs.WithDetail("creator id is required")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, errs.ErrArgs.WithDetail("title is required")
	}
	if len(req.Roles) == 0 {
		return nil, errs.ErrArgs.WithDetail("at least one role is required")
	}

	seen := make(map[string]struct{}, len(req.Roles))
	roles := make([]model.Role, 0, len(req.Roles))
	for _, r := range req.Roles {
		name := strings.TrimSpace(r.Name)
		skill := strings.ToLower(strings.TrimSpace(r.Skill))
		if name == "" || skill == "" {
			return nil, errs.ErrArgs.WithDetail("role name and skill are required")
		}
		if _, ok := seen[name]; ok {
			return nil, errs.ErrArgs.WithDetail("duplicate role name: " + name)
		}
		seen[name] = struct{}{}
		roles = append(roles, model.Role{Name: name, Skill: skill})
	}

	now := p.clock()
	c := &model.Collaboration{
		CollabID:    ids.GenerateString(),
		CreatorID:   creatorID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Roles:       roles,
		Status:      model.StatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := p.store.Insert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (p *Projects) Get(ctx context.Context, collabID string) (*model.Collaboration, error) {
	c, err := p.store.Get(ctx, collabID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errs.ErrRecordNotFound.WithDetail("collaboration not found").Wrap()
	}
	return c, nil
}

func (p *Projects) ListOpen(ctx context.Context, limit int64) ([]*model.Collaboration, error) {
	return p.store.ListOpen(ctx, limit)
}

func (p *Projects) ListByUser(ctx context.Context, userID string, limit int64) ([]*model.Collaboration, error) {
	if userID == "" {
		return nil, errs.ErrArgs.WithDetail("user id is required")
	}
	return p.store.ListByUser(ctx, userID, limit)
}

// Apply 按席位申请
func (p *Projects) Apply(ctx context.Context, userID, collabID, roleName string) error {
	if userID == "" || roleName == "" {
		return errs.ErrArgs.WithDetail("user id and role name are required")
	}
	return p.mutate(ctx, collabID, func(c *model.Collaboration) error {
		if c.Closed() {
			return errs.ErrStatusConflict.WithDetail("collaboration is closed").Wrap()
		}
		if c.CreatorID == userID {
			return errs.ErrArgs.WithDetail("creator cannot apply to own collaboration")
		}
		role := c.Role(roleName)
		if role == nil {
			return errs.ErrRecordNotFound.WithDetail("role not found: " + roleName).Wrap()
		}
		if role.FilledBy != "" {
			return errs.ErrRoleFilled.Wrap()
		}
		for _, a := range role.Applicants {
			if a == userID {
				return errs.ErrAlreadyJoined.WithDetail("already applied to this role").Wrap()
			}
		}
		role.Applicants = append(role.Applicants, userID)
		return nil
	}, func(c *model.Collaboration) {
		p.notify.Success(ctx, c.CreatorID, "New Role Application", roleName)
	})
}

// AcceptApplicant 创建者选定席位人选；该席位其余申请作废
func (p *Projects) AcceptApplicant(ctx context.Context, creatorID, collabID, roleName, applicantID string) error {
	if creatorID == "" || roleName == "" || applicantID == "" {
		return errs.ErrArgs.WithDetail("creator, role and applicant are required")
	}
	return p.mutate(ctx, collabID, func(c *model.Collaboration) error {
		if c.CreatorID != creatorID {
			return errs.ErrPermissionDenied.Wrap()
		}
		if c.Closed() {
			return errs.ErrStatusConflict.WithDetail("collaboration is closed").Wrap()
		}
		role := c.Role(roleName)
		if role == nil {
			return errs.ErrRecordNotFound.WithDetail("role not found: " + roleName).Wrap()
		}
		if role.FilledBy != "" {
			return errs.ErrRoleFilled.Wrap()
		}
		found := false
		for _, a := range role.Applicants {
			if a == applicantID {
				found = true
				break
			}
		}
		if !found {
			return errs.ErrRecordNotFound.WithDetail("no such applicant for role").Wrap()
		}
		role.FilledBy = applicantID
		role.Applicants = nil
		if c.AllFilled() {
			c.Status = model.StatusInProgress
		}
		return nil
	}, func(c *model.Collaboration) {
		p.notify.Success(ctx, applicantID, "Application Accepted", roleName)
	})
}

// Complete 创建者确认完成；所有参与者各记一条活动
func (p *Projects) Complete(ctx context.Context, creatorID, collabID string) error {
	var participants []string
	err := p.mutate(ctx, collabID, func(c *model.Collaboration) error {
		if c.CreatorID != creatorID {
			return errs.ErrPermissionDenied.Wrap()
		}
		if c.Closed() {
			return errs.ErrStatusConflict.WithDetail("collaboration is closed").Wrap()
		}
		if c.Status != model.StatusInProgress {
			return errs.ErrStatusConflict.WithDetail("collaboration is not in progress").Wrap()
		}
		c.Status = model.StatusCompleted
		participants = c.Participants()
		return nil
	}, func(c *model.Collaboration) {
		for _, u := range participants {
			p.events.CollabCompleted(ctx, u, collabID)
			p.notify.Success(ctx, u, "Collaboration Completed", c.Title)
		}
	})
	return err
}

// Cancel 创建者随时可取消（终态前）
func (p *Projects) Cancel(ctx context.Context, creatorID, collabID string) error {
	return p.mutate(ctx, collabID, func(c *model.Collaboration) error {
		if c.CreatorID != creatorID {
			return errs.ErrPermissionDenied.Wrap()
		}
		if c.Closed() {
			return errs.ErrStatusConflict.WithDetail("collaboration is closed").Wrap()
		}
		c.Status = model.StatusCancelled
		return nil
	}, nil)
}

// mutate 读-改-Replace 循环；change 返回错误直接透传，
// Replace 版本冲突就重读，重试耗尽报冲突。
func (p *Projects) mutate(ctx context.Context, collabID string, change func(*model.Collaboration) error, after func(*model.Collaboration)) error {
	for i := 0; i < replaceRetries; i++ {
		c, err := p.Get(ctx, collabID)
		if err != nil {
			return err
		}
		expect := c.Version
		if err := change(c); err != nil {
			return err
		}
		c.UpdatedAt = p.clock()
		ok, err := p.store.Replace(ctx, c, expect)
		if err != nil {
			return err
		}
		if ok {
			if after != nil {
				after(c)
			}
			return nil
		}
	}
	return errs.ErrStatusConflict.WithDetail("concurrent update, retry").Wrap()
}
