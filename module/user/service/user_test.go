package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"TradeYa/module/user/store"
	"TradeYa/tools/errs"
	jwtlib "TradeYa/tools/security"
)

func newTestAccounts() *Accounts {
	return NewAccounts(store.NewMemStore(), jwtlib.DefaultOptions([]byte("test-secret")))
}

func TestRegisterAndLogin(t *testing.T) {
	a := newTestAccounts()
	ctx := context.Background()

	u, err := a.Register(ctx, &RegisterReq{
		Email:         "Alice@Example.com",
		Password:      "correCthorse",
		DisplayName:   "Alice",
		SkillsOffered: []string{"Photography", " photography ", ""},
		SkillsWanted:  []string{"Go"},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.UserID == "" {
		t.Fatal("user id not assigned")
	}
	if strings.Contains(u.UserID, "_") {
		t.Fatalf("user id must not contain underscore: %s", u.UserID)
	}
	if u.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %s", u.Email)
	}
	// 技能去重小写化
	if len(u.SkillsOffered) != 1 || u.SkillsOffered[0] != "photography" {
		t.Fatalf("skills not normalized: %v", u.SkillsOffered)
	}

	res, err := a.Login(ctx, "ALICE@example.com", "correCthorse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.UserID != u.UserID || res.Token == "" {
		t.Fatalf("login result: %+v", res)
	}

	claims, err := jwtlib.Verify(jwtlib.DefaultOptions([]byte("test-secret")), res.Token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if claims.UserID() != u.UserID {
		t.Fatalf("token sub mismatch: %s vs %s", claims.UserID(), u.UserID)
	}
}

func TestRegisterValidation(t *testing.T) {
	a := newTestAccounts()
	ctx := context.Background()
	cases := []struct {
		name string
		req  RegisterReq
	}{
		{"bad email", RegisterReq{Email: "not-an-email", Password: "longenough", DisplayName: "x"}},
		{"short password", RegisterReq{Email: "a@b.com", Password: "short", DisplayName: "x"}},
		{"no display name", RegisterReq{Email: "a@b.com", Password: "longenough", DisplayName: "  "}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := a.Register(ctx, &tc.req); !errors.Is(err, errs.ErrArgs) {
				t.Fatalf("want ErrArgs, got %v", err)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	a := newTestAccounts()
	ctx := context.Background()
	req := RegisterReq{Email: "a@b.com", Password: "longenough", DisplayName: "x"}
	if _, err := a.Register(ctx, &req); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := a.Register(ctx, &req)
	if !errors.Is(err, errs.ErrDuplicateKey) {
		t.Fatalf("want ErrDuplicateKey, got %v", err)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	a := newTestAccounts()
	ctx := context.Background()
	if _, err := a.Register(ctx, &RegisterReq{Email: "a@b.com", Password: "longenough", DisplayName: "x"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	// 错口令与不存在的邮箱报同一个错
	_, errWrongPass := a.Login(ctx, "a@b.com", "wrongpassword")
	_, errNoUser := a.Login(ctx, "ghost@b.com", "whatever")
	if !errors.Is(errWrongPass, errs.ErrPermissionDenied) {
		t.Fatalf("wrong password: want ErrPermissionDenied, got %v", errWrongPass)
	}
	if !errors.Is(errNoUser, errs.ErrPermissionDenied) {
		t.Fatalf("no user: want ErrPermissionDenied, got %v", errNoUser)
	}
}

func TestUpdateProfileAndSearch(t *testing.T) {
	a := newTestAccounts()
	ctx := context.Background()
	u, err := a.Register(ctx, &RegisterReq{Email: "a@b.com", Password: "longenough", DisplayName: "Alice"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	updated, err := a.UpdateProfile(ctx, u.UserID, &UpdateProfileReq{
		Bio:           "trades photos for code",
		SkillsOffered: []string{"Photography"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Bio == "" || len(updated.SkillsOffered) != 1 {
		t.Fatalf("update not applied: %+v", updated)
	}
	// 未传 DisplayName 时保留旧值
	if updated.DisplayName != "Alice" {
		t.Fatalf("display name lost: %+v", updated)
	}

	found, err := a.SearchBySkill(ctx, "PHOTOGRAPHY", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 1 || found[0].UserID != u.UserID {
		t.Fatalf("search result: %+v", found)
	}

	_, err = a.Profile(ctx, "missing")
	if !errors.Is(err, errs.ErrUserNotFound) {
		t.Fatalf("missing profile: want ErrUserNotFound, got %v", err)
	}
}
