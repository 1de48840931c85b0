package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	"TradeYa/module/gamification/event"
	"TradeYa/module/gamification/store"
	"TradeYa/service/storage"
)

// memBoard 内存排行榜
type memBoard struct {
	mu     sync.Mutex
	scores map[string]int64
}

func newMemBoard() *memBoard { return &memBoard{scores: make(map[string]int64)} }

func (b *memBoard) Add(userID string, delta int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scores[userID] += delta
	return nil
}

func (b *memBoard) Top(n int64) ([]storage.LeaderboardEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]storage.LeaderboardEntry, 0, len(b.scores))
	for u, xp := range b.scores {
		out = append(out, storage.LeaderboardEntry{UserID: u, XP: xp})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].XP > out[j].XP })
	if int64(len(out)) > n {
		out = out[:n]
	}
	for i := range out {
		out[i].Rank = int64(i + 1)
	}
	return out, nil
}

func (b *memBoard) Rank(userID string) (storage.LeaderboardEntry, error) {
	top, _ := b.Top(int64(len(b.scores)))
	for _, e := range top {
		if e.UserID == userID {
			return e, nil
		}
	}
	return storage.LeaderboardEntry{UserID: userID}, nil
}

func newTestLedger() (*Ledger, *memBoard) {
	b := newMemBoard()
	return NewLedger(store.NewMemStore(), WithBoard(b)), b
}

func TestApplyRewards(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()

	events := []struct {
		typ  string
		want int64
	}{
		{event.TypeTradeCompleted, 100},
		{event.TypeCollabCompleted, 250},
		{event.TypeChallengeCompleted, 325},
		{event.TypeConnectionAccepted, 335},
	}
	for _, e := range events {
		if err := l.Apply(ctx, event.Activity{Type: e.typ, UserID: "alice", At: time.Now()}); err != nil {
			t.Fatalf("apply %s: %v", e.typ, err)
		}
		acc, err := l.Account(ctx, "alice")
		if err != nil {
			t.Fatalf("account: %v", err)
		}
		if acc.XP != e.want {
			t.Fatalf("after %s: want %d xp, got %d", e.typ, e.want, acc.XP)
		}
	}
}

func TestLevelCurve(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()

	// 4 笔交易 = 400 XP = 3 级
	for i := 0; i < 4; i++ {
		if err := l.Apply(ctx, event.Activity{Type: event.TypeTradeCompleted, UserID: "bob"}); err != nil {
			t.Fatalf("apply: %v", err)
		}
	}
	acc, _ := l.Account(ctx, "bob")
	if acc.XP != 400 || acc.Level != 3 {
		t.Fatalf("want 400xp level 3, got %dxp level %d", acc.XP, acc.Level)
	}
}

func TestUnknownTypeIgnored(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()
	if err := l.Apply(ctx, event.Activity{Type: "mystery", UserID: "alice"}); err != nil {
		t.Fatalf("unknown type should be dropped silently: %v", err)
	}
	acc, _ := l.Account(ctx, "alice")
	if acc.XP != 0 || acc.Level != 1 {
		t.Fatalf("zero account expected: %+v", acc)
	}
}

func TestHandleKafka(t *testing.T) {
	l, board := newTestLedger()

	payload, _ := json.Marshal(event.Activity{
		Type:   event.TypeTradeCompleted,
		UserID: "carol",
		RefID:  "trade-1",
		At:     time.Now(),
	})
	if err := l.HandleKafka(event.TopicActivity, []byte("carol"), payload); err != nil {
		t.Fatalf("handle: %v", err)
	}
	acc, _ := l.Account(context.Background(), "carol")
	if acc.XP != 100 {
		t.Fatalf("want 100xp from kafka event, got %d", acc.XP)
	}
	entry, _ := board.Rank("carol")
	if entry.XP != 100 || entry.Rank != 1 {
		t.Fatalf("board entry: %+v", entry)
	}

	// 烂报文不报错（推进 offset，不卡分区）
	if err := l.HandleKafka(event.TopicActivity, nil, []byte("{broken")); err != nil {
		t.Fatalf("malformed payload should not error: %v", err)
	}
}

func TestLeaderboardOrdering(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = l.Apply(ctx, event.Activity{Type: event.TypeTradeCompleted, UserID: "alice"})
	}
	_ = l.Apply(ctx, event.Activity{Type: event.TypeTradeCompleted, UserID: "bob"})

	top, err := l.Top(10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 || top[0].UserID != "alice" || top[0].Rank != 1 || top[1].UserID != "bob" {
		t.Fatalf("leaderboard: %+v", top)
	}
}
