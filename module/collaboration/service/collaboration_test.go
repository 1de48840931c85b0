package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"TradeYa/module/collaboration/model"
	"TradeYa/module/collaboration/store"
	"TradeYa/tools/errs"
)

type recordEmitter struct {
	mu        sync.Mutex
	completed []string
}

func (e *recordEmitter) CollabCompleted(_ context.Context, userID, collabID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.completed = append(e.completed, userID)
}

func newTestProjects() (*Projects, *recordEmitter) {
	em := &recordEmitter{}
	return NewProjects(store.NewMemStore(), WithEmitter(em)), em
}

func createCollab(t *testing.T, p *Projects) *model.Collaboration {
	t.Helper()
	c, err := p.Create(context.Background(), "alice", &CreateReq{
		Title: "community site",
		Roles: []RoleReq{
			{Name: "designer", Skill: "Design"},
			{Name: "backend", Skill: "Go"},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return c
}

func TestCreateValidation(t *testing.T) {
	p, _ := newTestProjects()
	ctx := context.Background()
	cases := []struct {
		name string
		req  CreateReq
	}{
		{"no title", CreateReq{Roles: []RoleReq{{Name: "r", Skill: "s"}}}},
		{"no roles", CreateReq{Title: "x"}},
		{"bad role", CreateReq{Title: "x", Roles: []RoleReq{{Name: "", Skill: "s"}}}},
		{"dup role", CreateReq{Title: "x", Roles: []RoleReq{{Name: "r", Skill: "a"}, {Name: "r", Skill: "b"}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := p.Create(ctx, "alice", &tc.req); !errors.Is(err, errs.ErrArgs) {
				t.Fatalf("want ErrArgs, got %v", err)
			}
		})
	}
}

func TestApplyAndAccept(t *testing.T) {
	p, _ := newTestProjects()
	ctx := context.Background()
	c := createCollab(t, p)

	if err := p.Apply(ctx, "bob", c.CollabID, "backend"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	// 重复申请
	if err := p.Apply(ctx, "bob", c.CollabID, "backend"); !errors.Is(err, errs.ErrAlreadyJoined) {
		t.Fatalf("repeat apply: want ErrAlreadyJoined, got %v", err)
	}
	// 创建者不能申请自己的项目
	if err := p.Apply(ctx, "alice", c.CollabID, "backend"); !errors.Is(err, errs.ErrArgs) {
		t.Fatalf("creator apply: want ErrArgs, got %v", err)
	}
	// 不存在的席位
	if err := p.Apply(ctx, "bob", c.CollabID, "frontend"); !errors.Is(err, errs.ErrRecordNotFound) {
		t.Fatalf("bad role: want ErrRecordNotFound, got %v", err)
	}

	// 非创建者不能选人
	err := p.AcceptApplicant(ctx, "bob", c.CollabID, "backend", "bob")
	if !errors.Is(err, errs.ErrPermissionDenied) {
		t.Fatalf("non-creator accept: want ErrPermissionDenied, got %v", err)
	}
	// 没申请过的人不能被选
	err = p.AcceptApplicant(ctx, "alice", c.CollabID, "backend", "carol")
	if !errors.Is(err, errs.ErrRecordNotFound) {
		t.Fatalf("unknown applicant: want ErrRecordNotFound, got %v", err)
	}

	if err := p.AcceptApplicant(ctx, "alice", c.CollabID, "backend", "bob"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	got, _ := p.Get(ctx, c.CollabID)
	role := got.Role("backend")
	if role.FilledBy != "bob" || len(role.Applicants) != 0 {
		t.Fatalf("role after accept: %+v", role)
	}
	// 还有空席位，不迁移状态
	if got.Status != model.StatusOpen {
		t.Fatalf("want open while roles remain, got %s", got.Status)
	}

	// 已占的席位不能再申请
	if err := p.Apply(ctx, "carol", c.CollabID, "backend"); !errors.Is(err, errs.ErrRoleFilled) {
		t.Fatalf("apply filled role: want ErrRoleFilled, got %v", err)
	}
}

func TestAllFilledMovesToInProgress(t *testing.T) {
	p, _ := newTestProjects()
	ctx := context.Background()
	c := createCollab(t, p)

	fill(t, p, c.CollabID, "backend", "bob")
	fill(t, p, c.CollabID, "designer", "carol")

	got, _ := p.Get(ctx, c.CollabID)
	if got.Status != model.StatusInProgress {
		t.Fatalf("want in_progress when all filled, got %s", got.Status)
	}
}

func TestCompleteEmitsForAllParticipants(t *testing.T) {
	p, em := newTestProjects()
	ctx := context.Background()
	c := createCollab(t, p)
	fill(t, p, c.CollabID, "backend", "bob")
	fill(t, p, c.CollabID, "designer", "carol")

	// 完成前的状态校验
	if err := p.Complete(ctx, "bob", c.CollabID); !errors.Is(err, errs.ErrPermissionDenied) {
		t.Fatalf("non-creator complete: want ErrPermissionDenied, got %v", err)
	}
	if err := p.Complete(ctx, "alice", c.CollabID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	got, _ := p.Get(ctx, c.CollabID)
	if got.Status != model.StatusCompleted {
		t.Fatalf("want completed, got %s", got.Status)
	}
	sort.Strings(em.completed)
	want := []string{"alice", "bob", "carol"}
	if len(em.completed) != len(want) {
		t.Fatalf("activities: %v", em.completed)
	}
	for i := range want {
		if em.completed[i] != want[i] {
			t.Fatalf("activities: %v", em.completed)
		}
	}

	// 终态后关门
	if err := p.Complete(ctx, "alice", c.CollabID); !errors.Is(err, errs.ErrStatusConflict) {
		t.Fatalf("re-complete: want ErrStatusConflict, got %v", err)
	}
	if err := p.Apply(ctx, "dave", c.CollabID, "backend"); !errors.Is(err, errs.ErrStatusConflict) {
		t.Fatalf("apply after close: want ErrStatusConflict, got %v", err)
	}
}

func TestCompleteRequiresInProgress(t *testing.T) {
	p, _ := newTestProjects()
	ctx := context.Background()
	c := createCollab(t, p)
	if err := p.Complete(ctx, "alice", c.CollabID); !errors.Is(err, errs.ErrStatusConflict) {
		t.Fatalf("complete open: want ErrStatusConflict, got %v", err)
	}
}

func TestCancel(t *testing.T) {
	p, _ := newTestProjects()
	ctx := context.Background()
	c := createCollab(t, p)

	if err := p.Cancel(ctx, "bob", c.CollabID); !errors.Is(err, errs.ErrPermissionDenied) {
		t.Fatalf("outsider cancel: want ErrPermissionDenied, got %v", err)
	}
	if err := p.Cancel(ctx, "alice", c.CollabID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	got, _ := p.Get(ctx, c.CollabID)
	if got.Status != model.StatusCancelled {
		t.Fatalf("want cancelled, got %s", got.Status)
	}
}

func TestConcurrentApplySingleWinnerPerRole(t *testing.T) {
	p, _ := newTestProjects()
	ctx := context.Background()
	c := createCollab(t, p)

	const workers = 6
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			// 并发申请同一席位；乐观锁重试后都应成功入列
			_ = p.Apply(ctx, applicant(n), c.CollabID, "backend")
		}(i)
	}
	wg.Wait()

	got, _ := p.Get(ctx, c.CollabID)
	role := got.Role("backend")
	if len(role.Applicants) == 0 || len(role.Applicants) > workers {
		t.Fatalf("applicants after concurrent apply: %v", role.Applicants)
	}
	seen := map[string]bool{}
	for _, a := range role.Applicants {
		if seen[a] {
			t.Fatalf("duplicate applicant: %v", role.Applicants)
		}
		seen[a] = true
	}
}

func fill(t *testing.T, p *Projects, collabID, role, user string) {
	t.Helper()
	ctx := context.Background()
	if err := p.Apply(ctx, user, collabID, role); err != nil {
		t.Fatalf("apply %s: %v", role, err)
	}
	if err := p.AcceptApplicant(ctx, "alice", collabID, role, user); err != nil {
		t.Fatalf("accept %s: %v", role, err)
	}
}

func applicant(n int) string {
	return string(rune('a'+n)) + "-user"
}
