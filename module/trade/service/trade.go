package service

import (
	"context"
	"strings"
	"time"

	"TradeYa/module/trade/model"
	"TradeYa/module/trade/store"
	"TradeYa/tools/errs"
	"TradeYa/tools/ids"
)

// Notifier 与 connections 共用同一套通知面
type Notifier interface {
	Success(ctx context.Context, userID, title, body string)
	Failure(ctx context.Context, userID, title, body string)
}

// Emitter 完成时给双方各记一条交易活动
type Emitter interface {
	TradeCompleted(ctx context.Context, userID, tradeID string)
}

type noopNotifier struct{}

func (noopNotifier) Success(context.Context, string, string, string) {}
func (noopNotifier) Failure(context.Context, string, string, string) {}

type noopEmitter struct{}

func (noopEmitter) TradeCompleted(context.Context, string, string) {}

// Exchange 技能置换服务：状态机迁移全部走 store 的条件更新，
// 并发下同一迁移只有一个调用成功，其余按当前态报冲突。
type Exchange struct {
	store  store.Store
	notify Notifier
	events Emitter
	clock  func() time.Time
}

func NewExchange(s store.Store, opts ...Option) *Exchange {
	e := &Exchange{
		store:  s,
		notify: noopNotifier{},
		events: noopEmitter{},
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type Option func(*Exchange)

func WithNotifier(n Notifier) Option {
	return func(e *Exchange) {
		if n != nil {
			e.notify = n
		}
	}
}

func WithEmitter(em Emitter) Option {
	return func(e *Exchange) {
		if em != nil {
			e.events = em
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(e *Exchange) {
		if clock != nil {
			e.clock = clock
		}
	}
}

type CreateReq struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	OfferedSkill   string `json:"offeredSkill"`
	RequestedSkill string `json:"requestedSkill"`
}

func (e *Exchange) Create(ctx context.Context, creatorID string, req *CreateReq) (*model.Trade, error) {
	if creatorID == "" {
		return nil, errs.ErrArgs.WithDetail("creator id is required")
	}
	title := strings.TrimSpace(req.Title)
	offered := strings.ToLower(strings.TrimSpace(req.OfferedSkill))
	requested := strings.ToLower(strings.TrimSpace(req.RequestedSkill))
	if title == "" || offered == "" || requested == "" {
		return nil, errs.ErrArgs.WithDetail("title, offeredSkill and requestedSkill are required")
	}

	now := e.clock()
	t := &model.Trade{
		TradeID:        ids.GenerateString(),
		CreatorID:      creatorID,
		Title:          title,
		Description:    strings.TrimSpace(req.Description),
		OfferedSkill:   offered,
		RequestedSkill: requested,
		Status:         model.StatusOpen,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := e.store.Insert(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (e *Exchange) Get(ctx context.Context, tradeID string) (*model.Trade, error) {
	t, err := e.store.Get(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errs.ErrRecordNotFound.WithDetail("trade not found").Wrap()
	}
	return t, nil
}

func (e *Exchange) ListOpen(ctx context.Context, skill string, limit int64) ([]*model.Trade, error) {
	return e.store.ListOpen(ctx, strings.ToLower(strings.TrimSpace(skill)), limit)
}

func (e *Exchange) ListByUser(ctx context.Context, userID string, limit int64) ([]*model.Trade, error) {
	if userID == "" {
		return nil, errs.ErrArgs.WithDetail("user id is required")
	}
	return e.store.ListByUser(ctx, userID, limit)
}

// Propose 对 open 交易发起提案：open -> proposed，提案人成为参与方
func (e *Exchange) Propose(ctx context.Context, userID, tradeID string) error {
	t, err := e.Get(ctx, tradeID)
	if err != nil {
		return err
	}
	if t.CreatorID == userID {
		return errs.ErrArgs.WithDetail("cannot propose to your own trade")
	}
	if t.Closed() {
		return errs.ErrTradeClosed.Wrap()
	}
	if t.Status != model.StatusOpen {
		return errs.ErrStatusConflict.WithDetail("trade already has a proposal").Wrap()
	}

	t.Status = model.StatusProposed
	t.ParticipantID = userID
	t.UpdatedAt = e.clock()
	ok, err := e.store.UpdateStatus(ctx, tradeID, model.StatusOpen, t)
	if err != nil {
		return err
	}
	if !ok {
		return errs.ErrStatusConflict.WithDetail("trade already has a proposal").Wrap()
	}
	e.notify.Success(ctx, t.CreatorID, "New Trade Proposal", "someone proposed on your trade")
	return nil
}

// AcceptProposal 创建者接受提案：proposed -> in_progress
func (e *Exchange) AcceptProposal(ctx context.Context, userID, tradeID string) error {
	t, err := e.Get(ctx, tradeID)
	if err != nil {
		return err
	}
	if t.CreatorID != userID {
		return errs.ErrNotParticipant.WithDetail("only the creator accepts proposals").Wrap()
	}
	if t.Closed() {
		return errs.ErrTradeClosed.Wrap()
	}
	if t.Status != model.StatusProposed {
		return errs.ErrStatusConflict.WithDetail("no pending proposal").Wrap()
	}

	t.Status = model.StatusInProgress
	t.UpdatedAt = e.clock()
	ok, err := e.store.UpdateStatus(ctx, tradeID, model.StatusProposed, t)
	if err != nil {
		return err
	}
	if !ok {
		return errs.ErrStatusConflict.WithDetail("no pending proposal").Wrap()
	}
	e.notify.Success(ctx, t.ParticipantID, "Proposal Accepted", "your trade proposal was accepted")
	return nil
}

// Complete 记一次完成确认。双方各确认一次才迁移到 completed；
// 先确认的一方会触发对另一方的提醒。
func (e *Exchange) Complete(ctx context.Context, userID, tradeID string) error {
	t, err := e.Get(ctx, tradeID)
	if err != nil {
		return err
	}
	if t.CreatorID != userID && t.ParticipantID != userID {
		return errs.ErrNotParticipant.Wrap()
	}
	if t.Closed() {
		return errs.ErrTradeClosed.Wrap()
	}
	if t.Status != model.StatusInProgress {
		return errs.ErrStatusConflict.WithDetail("trade is not in progress").Wrap()
	}

	other := t.ParticipantID
	if userID == t.CreatorID {
		if t.CreatorConfirmed {
			return errs.ErrStatusConflict.WithDetail("already confirmed").Wrap()
		}
		t.CreatorConfirmed = true
	} else {
		if t.ParticipantConfirmed {
			return errs.ErrStatusConflict.WithDetail("already confirmed").Wrap()
		}
		t.ParticipantConfirmed = true
		other = t.CreatorID
	}

	done := t.CreatorConfirmed && t.ParticipantConfirmed
	if done {
		t.Status = model.StatusCompleted
	}
	t.UpdatedAt = e.clock()
	ok, err := e.store.UpdateStatus(ctx, tradeID, model.StatusInProgress, t)
	if err != nil {
		return err
	}
	if !ok {
		return errs.ErrStatusConflict.WithDetail("trade is not in progress").Wrap()
	}

	if !done {
		e.notify.Success(ctx, other, "Trade Completion Requested", t.Title)
		return nil
	}
	e.events.TradeCompleted(ctx, t.CreatorID, tradeID)
	e.events.TradeCompleted(ctx, t.ParticipantID, tradeID)
	e.notify.Success(ctx, t.CreatorID, "Trade Completed", t.Title)
	e.notify.Success(ctx, t.ParticipantID, "Trade Completed", t.Title)
	return nil
}

// Cancel 创建者可在终态前任意取消；参与方只能在提案被接受前退出
func (e *Exchange) Cancel(ctx context.Context, userID, tradeID string) error {
	t, err := e.Get(ctx, tradeID)
	if err != nil {
		return err
	}
	if t.Closed() {
		return errs.ErrTradeClosed.Wrap()
	}
	switch userID {
	case t.CreatorID:
	case t.ParticipantID:
		if t.Status == model.StatusInProgress {
			return errs.ErrStatusConflict.WithDetail("trade already in progress").Wrap()
		}
	default:
		return errs.ErrNotParticipant.Wrap()
	}

	from := t.Status
	t.Status = model.StatusCancelled
	t.UpdatedAt = e.clock()
	ok, err := e.store.UpdateStatus(ctx, tradeID, from, t)
	if err != nil {
		return err
	}
	if !ok {
		return errs.ErrStatusConflict.WithDetail("trade state changed, retry").Wrap()
	}
	return nil
}
