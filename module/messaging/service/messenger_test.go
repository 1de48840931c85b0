package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"TradeYa/module/connections/model"
	"TradeYa/module/messaging/store"
	"TradeYa/tools/errs"
)

// fixedStatus 固定返回某个关系状态
type fixedStatus struct {
	status string
}

func (f fixedStatus) GetConnectionStatus(context.Context, string, string) (string, error) {
	return f.status, nil
}

type capturePusher struct {
	mu    sync.Mutex
	users []string
}

func (p *capturePusher) Publish(_ context.Context, _ string, _ []byte, hdr map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users = append(p.users, hdr["user_id"])
	return nil
}

func newConnectedMessenger() (*Messenger, *capturePusher) {
	p := &capturePusher{}
	m := NewMessenger(store.NewMemStore(), fixedStatus{model.StatusAccepted}, WithPusher(p))
	return m, p
}

func TestSendAssignsSequentialSeq(t *testing.T) {
	m, p := newConnectedMessenger()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		msg, err := m.Send(ctx, "alice", "bob", "hello")
		if err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
		if msg.Seq != int64(i) {
			t.Fatalf("want seq %d, got %d", i, msg.Seq)
		}
	}
	// 反方向也落同一会话，序号继续
	msg, err := m.Send(ctx, "bob", "alice", "hi back")
	if err != nil {
		t.Fatalf("reverse send: %v", err)
	}
	if msg.Seq != 4 {
		t.Fatalf("want seq 4 in shared conversation, got %d", msg.Seq)
	}
	if len(p.users) != 4 {
		t.Fatalf("want 4 pushes, got %v", p.users)
	}
	if p.users[3] != "alice" {
		t.Fatalf("push target should be recipient: %v", p.users)
	}
}

func TestSendRequiresAcceptedConnection(t *testing.T) {
	for _, status := range []string{model.StatusNone, model.StatusPending} {
		m := NewMessenger(store.NewMemStore(), fixedStatus{status}, WithPusher(&capturePusher{}))
		_, err := m.Send(context.Background(), "alice", "bob", "hello")
		if !errors.Is(err, errs.ErrPermissionDenied) {
			t.Fatalf("status %s: want ErrPermissionDenied, got %v", status, err)
		}
	}
}

func TestSendValidation(t *testing.T) {
	m, _ := newConnectedMessenger()
	ctx := context.Background()
	cases := []struct {
		name           string
		from, to, body string
	}{
		{"empty from", "", "bob", "hi"},
		{"self message", "alice", "alice", "hi"},
		{"blank body", "alice", "bob", "   "},
		{"oversize body", "alice", "bob", strings.Repeat("x", maxBodyLen+1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := m.Send(ctx, tc.from, tc.to, tc.body); !errors.Is(err, errs.ErrArgs) {
				t.Fatalf("want ErrArgs, got %v", err)
			}
		})
	}
}

func TestHistoryPagination(t *testing.T) {
	m, _ := newConnectedMessenger()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := m.Send(ctx, "alice", "bob", "msg"); err != nil {
			t.Fatalf("send: %v", err)
		}
	}

	page, err := m.History(ctx, "bob", "alice", 0, 3)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(page) != 3 || page[0].Seq != 1 || page[2].Seq != 3 {
		t.Fatalf("first page: %+v", page)
	}
	page, err = m.History(ctx, "bob", "alice", 3, 3)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(page) != 2 || page[0].Seq != 4 {
		t.Fatalf("second page: %+v", page)
	}
}

func TestConversations(t *testing.T) {
	m, _ := newConnectedMessenger()
	ctx := context.Background()
	if _, err := m.Send(ctx, "alice", "bob", "hi"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := m.Send(ctx, "alice", "carol", "hi"); err != nil {
		t.Fatalf("send: %v", err)
	}

	convs, err := m.Conversations(ctx, "alice", 0)
	if err != nil || len(convs) != 2 {
		t.Fatalf("alice conversations: %v %v", convs, err)
	}
	convs, err = m.Conversations(ctx, "bob", 0)
	if err != nil || len(convs) != 1 {
		t.Fatalf("bob conversations: %v %v", convs, err)
	}
}

func TestMarkReadMovesWatermark(t *testing.T) {
	m, _ := newConnectedMessenger()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := m.Send(ctx, "alice", "bob", "hi"); err != nil {
			t.Fatalf("send: %v", err)
		}
	}

	convs, _ := m.Conversations(ctx, "bob", 0)
	if got := convs[0].UnreadFor("bob"); got != 3 {
		t.Fatalf("unread before read: want 3, got %d", got)
	}
	if err := m.MarkRead(ctx, "bob", "alice", 2); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	convs, _ = m.Conversations(ctx, "bob", 0)
	if got := convs[0].UnreadFor("bob"); got != 1 {
		t.Fatalf("unread after read: want 1, got %d", got)
	}
	// 水位只前进
	if err := m.MarkRead(ctx, "bob", "alice", 1); err != nil {
		t.Fatalf("mark read back: %v", err)
	}
	convs, _ = m.Conversations(ctx, "bob", 0)
	if got := convs[0].UnreadFor("bob"); got != 1 {
		t.Fatalf("watermark regressed: want 1 unread, got %d", got)
	}
	// 发送方的水位随发送前进，自己发的不算未读
	if got := convs[0].UnreadFor("alice"); got != 0 {
		t.Fatalf("alice unread: want 0, got %d", got)
	}

	if err := m.MarkRead(ctx, "", "alice", 1); !errors.Is(err, errs.ErrArgs) {
		t.Fatalf("empty user: want ErrArgs, got %v", err)
	}
	if err := m.MarkRead(ctx, "bob", "alice", -1); !errors.Is(err, errs.ErrArgs) {
		t.Fatalf("negative seq: want ErrArgs, got %v", err)
	}
}

func TestConcurrentSendsGetDistinctSeq(t *testing.T) {
	m, _ := newConnectedMessenger()
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	seqs := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			msg, err := m.Send(ctx, "alice", "bob", "hello")
			if err == nil {
				seqs <- msg.Seq
			}
		}()
	}
	wg.Wait()
	close(seqs)

	seen := make(map[int64]bool)
	count := 0
	for s := range seqs {
		if seen[s] {
			t.Fatalf("duplicate seq %d", s)
		}
		seen[s] = true
		count++
	}
	if count != n {
		t.Fatalf("want %d sends, got %d", n, count)
	}
}
