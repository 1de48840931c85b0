package service

import (
	"context"
	"strings"
	"time"

	"TradeYa/logger"
	"TradeYa/module/challenge/model"
	"TradeYa/module/challenge/store"
	"TradeYa/tools/decode"
	"TradeYa/tools/errs"
	"TradeYa/tools/ids"
	"TradeYa/tools/safe"
)

// Emitter 审核通过即记一条挑战完成活动
type Emitter interface {
	ChallengeCompleted(ctx context.Context, userID, challengeID string)
}

type noopEmitter struct{}

func (noopEmitter) ChallengeCompleted(context.Context, string, string) {}

// Arena 限时挑战服务。Rollover 负责到期关闭与按模板开新一期，
// main 里用 ticker 周期驱动。
type Arena struct {
	store     store.Store
	events    Emitter
	templates []model.Template
	clock     func() time.Time
}

func NewArena(s store.Store, opts ...Option) *Arena {
	a := &Arena{
		store:  s,
		events: noopEmitter{},
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type Option func(*Arena)

func WithEmitter(e Emitter) Option {
	return func(a *Arena) {
		if e != nil {
			a.events = e
		}
	}
}

func WithTemplates(ts []model.Template) Option {
	return func(a *Arena) { a.templates = ts }
}

func WithClock(clock func() time.Time) Option {
	return func(a *Arena) {
		if clock != nil {
			a.clock = clock
		}
	}
}

type CreateReq struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Skill       string        `json:"skill"`
	Duration    time.Duration `json:"duration"`
}

// Create 手工开一期挑战；创建者即审核人
func (a *Arena) Create(ctx context.Context, creatorID string, req *CreateReq) (*model.Challenge, error) {
	title := strings.TrimSpace(req.Title)
	skill := strings.ToLower(strings.TrimSpace(req.Skill))
	if title == "" || skill == "" {
		return nil, errs.ErrArgs.WithDetail("title and skill are required")
	}
	if req.Duration <= 0 {
		return nil, errs.ErrArgs.WithDetail("duration must be positive")
	}

	now := a.clock()
	c := &model.Challenge{
		ChallengeID: ids.GenerateString(),
		CreatorID:   creatorID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Skill:       skill,
		Status:      model.ChallengeActive,
		StartAt:     now,
		EndAt:       now.Add(req.Duration),
	}
	if err := a.store.InsertChallenge(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (a *Arena) Get(ctx context.Context, challengeID string) (*model.Challenge, error) {
	c, err := a.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errs.ErrRecordNotFound.WithDetail("challenge not found").Wrap()
	}
	return c, nil
}

func (a *Arena) ListActive(ctx context.Context, limit int64) ([]*model.Challenge, error) {
	return a.store.ListActive(ctx, limit)
}

// Join 报名；截止后或重复报名拒绝
func (a *Arena) Join(ctx context.Context, userID, challengeID string) error {
	if userID == "" {
		return errs.ErrArgs.WithDetail("user id is required")
	}
	c, err := a.Get(ctx, challengeID)
	if err != nil {
		return err
	}
	if c.Status != model.ChallengeActive || c.Expired(a.clock()) {
		return errs.ErrChallengeClosed.Wrap()
	}
	existing, err := a.store.GetParticipation(ctx, challengeID, userID)
	if err != nil {
		return err
	}
	if existing != nil {
		return errs.ErrAlreadyJoined.Wrap()
	}
	return a.store.InsertParticipation(ctx, &model.Participation{
		ChallengeID: challengeID,
		UserID:      userID,
		Status:      model.ParticipationJoined,
		JoinedAt:    a.clock(),
	})
}

// Submit 交作品；只能在截止前、报名后。
// payload 是松散 JSON，宽松解码成 Submission，多余字段忽略。
func (a *Arena) Submit(ctx context.Context, userID, challengeID string, payload map[string]any) error {
	if userID == "" {
		return errs.ErrArgs.WithDetail("user id is required")
	}
	sub, err := decode.DecodeMap[model.Submission](payload)
	if err != nil {
		return errs.ErrArgs.WithDetail(err.Error())
	}
	sub.URL = strings.TrimSpace(sub.URL)
	if sub.URL == "" {
		return errs.ErrArgs.WithDetail("submission url is required")
	}
	c, err := a.Get(ctx, challengeID)
	if err != nil {
		return err
	}
	if c.Status != model.ChallengeActive || c.Expired(a.clock()) {
		return errs.ErrChallengeClosed.Wrap()
	}
	p, err := a.store.GetParticipation(ctx, challengeID, userID)
	if err != nil {
		return err
	}
	if p == nil {
		return errs.ErrRecordNotFound.WithDetail("join the challenge first").Wrap()
	}
	if p.Status == model.ParticipationCompleted {
		return errs.ErrStatusConflict.WithDetail("submission already approved").Wrap()
	}

	p.Status = model.ParticipationSubmitted
	p.SubmissionURL = sub.URL
	p.Notes = sub.Notes
	p.SubmittedAt = a.clock()
	return a.store.UpdateParticipation(ctx, p)
}

// Approve 审核通过，记一条挑战完成活动。
// 手工挑战只有创建者能审；模板挑战没有创建者，任何人可审但不能审自己。
func (a *Arena) Approve(ctx context.Context, reviewerID, userID, challengeID string) error {
	if reviewerID == "" || userID == "" {
		return errs.ErrArgs.WithDetail("user id is required")
	}
	if reviewerID == userID {
		return errs.ErrPermissionDenied.WithDetail("cannot approve own submission").Wrap()
	}
	c, err := a.Get(ctx, challengeID)
	if err != nil {
		return err
	}
	if c.CreatorID != "" && c.CreatorID != reviewerID {
		return errs.ErrPermissionDenied.WithDetail("only the challenge creator can approve").Wrap()
	}
	p, err := a.store.GetParticipation(ctx, challengeID, userID)
	if err != nil {
		return err
	}
	if p == nil {
		return errs.ErrRecordNotFound.WithDetail("participation not found").Wrap()
	}
	if p.Status != model.ParticipationSubmitted {
		return errs.ErrStatusConflict.WithDetail("no pending submission").Wrap()
	}

	p.Status = model.ParticipationCompleted
	if err := a.store.UpdateParticipation(ctx, p); err != nil {
		return err
	}
	a.events.ChallengeCompleted(ctx, userID, challengeID)
	return nil
}

func (a *Arena) Participants(ctx context.Context, challengeID string, limit int64) ([]*model.Participation, error) {
	return a.store.ListParticipants(ctx, challengeID, limit)
}

// Rollover 单轮滚动：关到期的，按模板补开缺的一期
func (a *Arena) Rollover(ctx context.Context) error {
	now := a.clock()
	closed, err := a.store.CloseExpired(ctx, now)
	if err != nil {
		return err
	}
	for _, c := range closed {
		logger.Infof("challenge closed id=%s title=%s", c.ChallengeID, c.Title)
	}

	for _, t := range a.templates {
		if t.Duration <= 0 {
			continue
		}
		active, err := a.store.ActiveByTemplate(ctx, t.TemplateID)
		if err != nil {
			return err
		}
		if active != nil {
			continue
		}
		c := &model.Challenge{
			ChallengeID: ids.GenerateString(),
			TemplateID:  t.TemplateID,
			Title:       t.Title,
			Description: t.Description,
			Skill:       strings.ToLower(strings.TrimSpace(t.Skill)),
			Status:      model.ChallengeActive,
			StartAt:     now,
			EndAt:       now.Add(t.Duration),
		}
		if err := a.store.InsertChallenge(ctx, c); err != nil {
			return err
		}
		logger.Infof("challenge opened id=%s template=%s until=%s", c.ChallengeID, t.TemplateID, c.EndAt.Format(time.RFC3339))
	}
	return nil
}

// Run 周期滚动，直到 ctx 取消
func (a *Arena) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	safe.Go(func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		if err := a.Rollover(ctx); err != nil {
			logger.Errorf("challenge rollover: %v", err)
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := a.Rollover(ctx); err != nil {
					logger.Errorf("challenge rollover: %v", err)
				}
			}
		}
	})
}
