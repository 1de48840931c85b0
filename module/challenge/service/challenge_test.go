package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"TradeYa/module/challenge/model"
	"TradeYa/module/challenge/store"
	"TradeYa/tools/errs"
)

type recordEmitter struct {
	mu        sync.Mutex
	completed []string
}

func (e *recordEmitter) ChallengeCompleted(_ context.Context, userID, challengeID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.completed = append(e.completed, userID)
}

// manualClock 手动拨表
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestArena(templates ...model.Template) (*Arena, *recordEmitter, *manualClock) {
	em := &recordEmitter{}
	clock := &manualClock{now: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)}
	a := NewArena(store.NewMemStore(),
		WithEmitter(em),
		WithTemplates(templates),
		WithClock(clock.Now))
	return a, em, clock
}

func TestJoinSubmitApprove(t *testing.T) {
	a, em, _ := newTestArena()
	ctx := context.Background()
	c, err := a.Create(ctx, "carol", &CreateReq{Title: "weekly photo", Skill: "Photography", Duration: 7 * 24 * time.Hour})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := a.Join(ctx, "alice", c.ChallengeID); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := a.Join(ctx, "alice", c.ChallengeID); !errors.Is(err, errs.ErrAlreadyJoined) {
		t.Fatalf("rejoin: want ErrAlreadyJoined, got %v", err)
	}

	// 没报名不能交
	err = a.Submit(ctx, "bob", c.ChallengeID, map[string]any{"url": "https://example.com/work"})
	if !errors.Is(err, errs.ErrRecordNotFound) {
		t.Fatalf("submit without join: want ErrRecordNotFound, got %v", err)
	}
	if err := a.Submit(ctx, "alice", c.ChallengeID, map[string]any{"url": "https://example.com/work"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// 没提交不能过审
	if err := a.Approve(ctx, "carol", "bob", c.ChallengeID); !errors.Is(err, errs.ErrRecordNotFound) {
		t.Fatalf("approve stranger: want ErrRecordNotFound, got %v", err)
	}
	if err := a.Approve(ctx, "carol", "alice", c.ChallengeID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if len(em.completed) != 1 || em.completed[0] != "alice" {
		t.Fatalf("activities: %v", em.completed)
	}
	// 重复过审
	if err := a.Approve(ctx, "carol", "alice", c.ChallengeID); !errors.Is(err, errs.ErrStatusConflict) {
		t.Fatalf("re-approve: want ErrStatusConflict, got %v", err)
	}
}

func TestApproveAuthorization(t *testing.T) {
	a, em, _ := newTestArena()
	ctx := context.Background()
	c, err := a.Create(ctx, "carol", &CreateReq{Title: "weekly photo", Skill: "Photography", Duration: 7 * 24 * time.Hour})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := a.Join(ctx, "alice", c.ChallengeID); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := a.Submit(ctx, "alice", c.ChallengeID, map[string]any{"url": "https://example.com/work"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// 自己不能审自己
	if err := a.Approve(ctx, "alice", "alice", c.ChallengeID); !errors.Is(err, errs.ErrPermissionDenied) {
		t.Fatalf("self approve: want ErrPermissionDenied, got %v", err)
	}
	// 非创建者不能审
	if err := a.Approve(ctx, "bob", "alice", c.ChallengeID); !errors.Is(err, errs.ErrPermissionDenied) {
		t.Fatalf("stranger approve: want ErrPermissionDenied, got %v", err)
	}
	if len(em.completed) != 0 {
		t.Fatalf("no xp before valid approve: %v", em.completed)
	}
	if err := a.Approve(ctx, "carol", "alice", c.ChallengeID); err != nil {
		t.Fatalf("creator approve: %v", err)
	}

	// 模板滚动开的挑战没有创建者：他人可审，自己仍不行
	tplArena, tplEm, _ := newTestArena(model.Template{
		TemplateID: "weekly-code", Title: "Weekly Code", Skill: "go", Duration: 7 * 24 * time.Hour,
	})
	if err := tplArena.Rollover(ctx); err != nil {
		t.Fatalf("rollover: %v", err)
	}
	active, _ := tplArena.ListActive(ctx, 0)
	if len(active) != 1 {
		t.Fatalf("active: %v", active)
	}
	sys := active[0]
	if err := tplArena.Join(ctx, "alice", sys.ChallengeID); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := tplArena.Submit(ctx, "alice", sys.ChallengeID, map[string]any{"url": "https://example.com/w"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := tplArena.Approve(ctx, "alice", "alice", sys.ChallengeID); !errors.Is(err, errs.ErrPermissionDenied) {
		t.Fatalf("self approve on template challenge: want ErrPermissionDenied, got %v", err)
	}
	if err := tplArena.Approve(ctx, "bob", "alice", sys.ChallengeID); err != nil {
		t.Fatalf("peer approve on template challenge: %v", err)
	}
	if len(tplEm.completed) != 1 || tplEm.completed[0] != "alice" {
		t.Fatalf("activities: %v", tplEm.completed)
	}
}

func TestJoinAfterDeadline(t *testing.T) {
	a, _, clock := newTestArena()
	ctx := context.Background()
	c, err := a.Create(ctx, "carol", &CreateReq{Title: "sprint", Skill: "go", Duration: time.Hour})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	clock.Advance(2 * time.Hour)
	if err := a.Join(ctx, "alice", c.ChallengeID); !errors.Is(err, errs.ErrChallengeClosed) {
		t.Fatalf("late join: want ErrChallengeClosed, got %v", err)
	}
}

func TestSubmitAfterDeadline(t *testing.T) {
	a, _, clock := newTestArena()
	ctx := context.Background()
	c, _ := a.Create(ctx, "carol", &CreateReq{Title: "sprint", Skill: "go", Duration: time.Hour})
	if err := a.Join(ctx, "alice", c.ChallengeID); err != nil {
		t.Fatalf("join: %v", err)
	}
	clock.Advance(2 * time.Hour)
	err := a.Submit(ctx, "alice", c.ChallengeID, map[string]any{"url": "https://example.com/late"})
	if !errors.Is(err, errs.ErrChallengeClosed) {
		t.Fatalf("late submit: want ErrChallengeClosed, got %v", err)
	}
}

func TestSubmitPayloadDecoding(t *testing.T) {
	a, _, _ := newTestArena()
	ctx := context.Background()
	c, _ := a.Create(ctx, "carol", &CreateReq{Title: "sprint", Skill: "go", Duration: time.Hour})
	if err := a.Join(ctx, "alice", c.ChallengeID); err != nil {
		t.Fatalf("join: %v", err)
	}

	// url 缺失
	err := a.Submit(ctx, "alice", c.ChallengeID, map[string]any{"notes": "wip"})
	if !errors.Is(err, errs.ErrArgs) {
		t.Fatalf("missing url: want ErrArgs, got %v", err)
	}
	// 多余字段忽略，notes 留存
	payload := map[string]any{
		"url":    " https://example.com/work ",
		"notes":  "first pass",
		"client": "ios-2.3",
	}
	if err := a.Submit(ctx, "alice", c.ChallengeID, payload); err != nil {
		t.Fatalf("submit: %v", err)
	}
	parts, err := a.Participants(ctx, c.ChallengeID, 0)
	if err != nil || len(parts) != 1 {
		t.Fatalf("participants: %v %v", parts, err)
	}
	if parts[0].SubmissionURL != "https://example.com/work" || parts[0].Notes != "first pass" {
		t.Fatalf("decoded submission: %+v", parts[0])
	}
}

func TestRolloverClosesAndReopens(t *testing.T) {
	tpl := model.Template{
		TemplateID: "weekly-photo",
		Title:      "Weekly Photo Challenge",
		Skill:      "Photography",
		Duration:   7 * 24 * time.Hour,
	}
	a, _, clock := newTestArena(tpl)
	ctx := context.Background()

	// 第一轮：没有在跑的，按模板开新一期
	if err := a.Rollover(ctx); err != nil {
		t.Fatalf("rollover: %v", err)
	}
	active, err := a.ListActive(ctx, 0)
	if err != nil || len(active) != 1 {
		t.Fatalf("active after first rollover: %v %v", active, err)
	}
	first := active[0]
	if first.TemplateID != "weekly-photo" || first.Skill != "photography" {
		t.Fatalf("spawned challenge: %+v", first)
	}

	// 没到期，重复滚动不重复开
	if err := a.Rollover(ctx); err != nil {
		t.Fatalf("rollover: %v", err)
	}
	active, _ = a.ListActive(ctx, 0)
	if len(active) != 1 {
		t.Fatalf("duplicate spawn: %v", active)
	}

	// 过期后滚动：旧的关、新的开
	clock.Advance(8 * 24 * time.Hour)
	if err := a.Rollover(ctx); err != nil {
		t.Fatalf("rollover: %v", err)
	}
	closed, err := a.Get(ctx, first.ChallengeID)
	if err != nil || closed.Status != model.ChallengeClosed {
		t.Fatalf("first cycle should be closed: %+v %v", closed, err)
	}
	active, _ = a.ListActive(ctx, 0)
	if len(active) != 1 || active[0].ChallengeID == first.ChallengeID {
		t.Fatalf("next cycle not spawned: %v", active)
	}
}

func TestCreateValidation(t *testing.T) {
	a, _, _ := newTestArena()
	ctx := context.Background()
	if _, err := a.Create(ctx, "carol", &CreateReq{Title: "x", Skill: "go"}); !errors.Is(err, errs.ErrArgs) {
		t.Fatalf("zero duration: want ErrArgs, got %v", err)
	}
	if _, err := a.Create(ctx, "carol", &CreateReq{Skill: "go", Duration: time.Hour}); !errors.Is(err, errs.ErrArgs) {
		t.Fatalf("no title: want ErrArgs, got %v", err)
	}
}
