package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"TradeYa/module/connections/model"
	"TradeYa/module/connections/store"
	"TradeYa/tools/errs"
)

type recordNotifier struct {
	mu      sync.Mutex
	success []string
	failure []string
}

func (n *recordNotifier) Success(_ context.Context, userID, title, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.success = append(n.success, userID+"/"+title)
}

func (n *recordNotifier) Failure(_ context.Context, userID, title, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failure = append(n.failure, userID+"/"+title)
}

type recordEmitter struct {
	mu       sync.Mutex
	accepted [][2]string
}

func (e *recordEmitter) ConnectionAccepted(_ context.Context, from, to string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.accepted = append(e.accepted, [2]string{from, to})
}

func newTestDirectory(t *testing.T, users ...string) (*Directory, *store.MemStore, *recordNotifier, *recordEmitter) {
	t.Helper()
	s := store.NewMemStore()
	for _, u := range users {
		s.AddUser(u)
	}
	n := &recordNotifier{}
	e := &recordEmitter{}
	d := NewDirectory(s, WithNotifier(n), WithEmitter(e))
	return d, s, n, e
}

func TestSendCreatesBothSides(t *testing.T) {
	d, s, n, _ := newTestDirectory(t, "alice", "bob")
	ctx := context.Background()

	if err := d.SendConnectionRequest(ctx, "alice", "bob"); err != nil {
		t.Fatalf("send: %v", err)
	}

	recv, err := s.GetConnection(ctx, "bob", "alice_bob")
	if err != nil || recv == nil {
		t.Fatalf("recipient doc missing: %v %v", recv, err)
	}
	sent, err := s.GetSentRequest(ctx, "alice", "alice_bob")
	if err != nil || sent == nil {
		t.Fatalf("sender doc missing: %v %v", sent, err)
	}
	if recv.Status != model.StatusPending || sent.Status != model.StatusPending {
		t.Fatalf("want pending/pending, got %s/%s", recv.Status, sent.Status)
	}
	if !recv.Timestamp.Equal(sent.Timestamp) {
		t.Fatalf("timestamps differ: %v vs %v", recv.Timestamp, sent.Timestamp)
	}
	if recv.FromUserID != "alice" || recv.ToUserID != "bob" {
		t.Fatalf("direction fields wrong: %+v", recv)
	}
	if len(n.success) != 2 {
		t.Fatalf("want 2 success notifications, got %v", n.success)
	}
}

func TestSendSelfConnectRejectedBeforeStore(t *testing.T) {
	d, s, _, _ := newTestDirectory(t, "alice")
	err := d.SendConnectionRequest(context.Background(), "alice", "alice")
	if !errors.Is(err, errs.ErrSelfConnect) {
		t.Fatalf("want ErrSelfConnect, got %v", err)
	}
	// 自连拒绝不应留下任何记录
	conns, _ := s.ListConnections(context.Background(), "alice")
	sent, _ := s.ListSentRequests(context.Background(), "alice")
	if len(conns) != 0 || len(sent) != 0 {
		t.Fatalf("store should stay empty, got %d conns %d sent", len(conns), len(sent))
	}
}

func TestSendValidation(t *testing.T) {
	d, _, n, _ := newTestDirectory(t, "alice", "bob")
	cases := []struct {
		name     string
		from, to string
	}{
		{"empty from", "", "bob"},
		{"empty to", "alice", ""},
		{"underscore in from", "a_lice", "bob"},
		{"underscore in to", "alice", "b_ob"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := d.SendConnectionRequest(context.Background(), tc.from, tc.to)
			if !errors.Is(err, errs.ErrArgs) {
				t.Fatalf("want ErrArgs, got %v", err)
			}
		})
	}
	if len(n.failure) != len(cases) {
		t.Fatalf("every failed send should notify, got %v", n.failure)
	}
}

func TestSendUnknownUser(t *testing.T) {
	d, _, _, _ := newTestDirectory(t, "alice")
	err := d.SendConnectionRequest(context.Background(), "alice", "ghost")
	if !errors.Is(err, errs.ErrUserNotFound) {
		t.Fatalf("want ErrUserNotFound, got %v", err)
	}
}

func TestSendDuplicateRejected(t *testing.T) {
	d, _, _, _ := newTestDirectory(t, "alice", "bob")
	ctx := context.Background()
	if err := d.SendConnectionRequest(ctx, "alice", "bob"); err != nil {
		t.Fatalf("first send: %v", err)
	}
	err := d.SendConnectionRequest(ctx, "alice", "bob")
	if !errors.Is(err, errs.ErrConnExists) {
		t.Fatalf("repeat send: want ErrConnExists, got %v", err)
	}
	// 反向同样视为已有请求
	err = d.SendConnectionRequest(ctx, "bob", "alice")
	if !errors.Is(err, errs.ErrConnExists) {
		t.Fatalf("reverse send: want ErrConnExists, got %v", err)
	}
}

func TestStatusLifecycle(t *testing.T) {
	d, _, _, _ := newTestDirectory(t, "alice", "bob")
	ctx := context.Background()

	status, err := d.GetConnectionStatus(ctx, "alice", "bob")
	if err != nil || status != model.StatusNone {
		t.Fatalf("initial status: want none, got %q err %v", status, err)
	}

	if err := d.SendConnectionRequest(ctx, "alice", "bob"); err != nil {
		t.Fatalf("send: %v", err)
	}
	for _, pair := range [][2]string{{"alice", "bob"}, {"bob", "alice"}} {
		status, err = d.GetConnectionStatus(ctx, pair[0], pair[1])
		if err != nil || status != model.StatusPending {
			t.Fatalf("%s->%s: want pending, got %q err %v", pair[0], pair[1], status, err)
		}
	}

	if err := d.AcceptConnectionRequest(ctx, "bob", "alice_bob"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	for _, pair := range [][2]string{{"alice", "bob"}, {"bob", "alice"}} {
		status, err = d.GetConnectionStatus(ctx, pair[0], pair[1])
		if err != nil || status != model.StatusAccepted {
			t.Fatalf("%s->%s: want accepted, got %q err %v", pair[0], pair[1], status, err)
		}
	}
}

func TestAcceptWritesShareTimestamp(t *testing.T) {
	d, s, _, e := newTestDirectory(t, "alice", "bob")
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := base
	d.clock = func() time.Time {
		now = now.Add(time.Second)
		return now
	}

	if err := d.SendConnectionRequest(ctx, "alice", "bob"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := d.AcceptConnectionRequest(ctx, "bob", "alice_bob"); err != nil {
		t.Fatalf("accept: %v", err)
	}

	forward, _ := s.GetConnection(ctx, "bob", "alice_bob")
	reverse, _ := s.GetConnection(ctx, "alice", "bob_alice")
	sent, _ := s.GetSentRequest(ctx, "alice", "alice_bob")
	if forward == nil || reverse == nil || sent == nil {
		t.Fatalf("missing docs after accept: %v %v %v", forward, reverse, sent)
	}
	if forward.Status != model.StatusAccepted || reverse.Status != model.StatusAccepted || sent.Status != model.StatusAccepted {
		t.Fatalf("statuses: %s %s %s", forward.Status, reverse.Status, sent.Status)
	}
	if !forward.Timestamp.Equal(reverse.Timestamp) || !forward.Timestamp.Equal(sent.Timestamp) {
		t.Fatalf("accept timestamps differ: %v %v %v", forward.Timestamp, reverse.Timestamp, sent.Timestamp)
	}
	// 反向边的方向字段要翻转
	if reverse.FromUserID != "bob" || reverse.ToUserID != "alice" {
		t.Fatalf("reverse edge direction wrong: %+v", reverse)
	}
	if len(e.accepted) != 1 || e.accepted[0] != [2]string{"alice", "bob"} {
		t.Fatalf("accepted event: %v", e.accepted)
	}
}

func TestAcceptRequiresPending(t *testing.T) {
	d, _, _, _ := newTestDirectory(t, "alice", "bob")
	ctx := context.Background()

	err := d.AcceptConnectionRequest(ctx, "bob", "alice_bob")
	if !errors.Is(err, errs.ErrRecordNotFound) {
		t.Fatalf("accept missing: want ErrRecordNotFound, got %v", err)
	}

	if err := d.SendConnectionRequest(ctx, "alice", "bob"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := d.AcceptConnectionRequest(ctx, "bob", "alice_bob"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	err = d.AcceptConnectionRequest(ctx, "bob", "alice_bob")
	if !errors.Is(err, errs.ErrConnNotPending) {
		t.Fatalf("re-accept: want ErrConnNotPending, got %v", err)
	}
}

func TestAcceptOnlyByRecipient(t *testing.T) {
	d, _, _, _ := newTestDirectory(t, "alice", "bob")
	ctx := context.Background()
	if err := d.SendConnectionRequest(ctx, "alice", "bob"); err != nil {
		t.Fatalf("send: %v", err)
	}
	// 发起人手里只有 sent_requests 记录，connections 里没有，表现为未找到
	err := d.AcceptConnectionRequest(ctx, "alice", "alice_bob")
	if !errors.Is(err, errs.ErrRecordNotFound) {
		t.Fatalf("sender accept: want ErrRecordNotFound, got %v", err)
	}
}

func TestDeclineRemovesBothSides(t *testing.T) {
	d, s, _, _ := newTestDirectory(t, "alice", "bob")
	ctx := context.Background()
	if err := d.SendConnectionRequest(ctx, "alice", "bob"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := d.DeclineConnectionRequest(ctx, "bob", "alice_bob"); err != nil {
		t.Fatalf("decline: %v", err)
	}

	if c, _ := s.GetConnection(ctx, "bob", "alice_bob"); c != nil {
		t.Fatalf("recipient doc survived decline: %+v", c)
	}
	if c, _ := s.GetSentRequest(ctx, "alice", "alice_bob"); c != nil {
		t.Fatalf("sender doc survived decline: %+v", c)
	}
	status, err := d.GetConnectionStatus(ctx, "alice", "bob")
	if err != nil || status != model.StatusNone {
		t.Fatalf("status after decline: want none, got %q err %v", status, err)
	}

	// 拒绝后可以重新发起
	if err := d.SendConnectionRequest(ctx, "alice", "bob"); err != nil {
		t.Fatalf("resend after decline: %v", err)
	}
}

func TestRemoveConnection(t *testing.T) {
	d, s, _, _ := newTestDirectory(t, "alice", "bob")
	ctx := context.Background()
	if err := d.SendConnectionRequest(ctx, "alice", "bob"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := d.AcceptConnectionRequest(ctx, "bob", "alice_bob"); err != nil {
		t.Fatalf("accept: %v", err)
	}

	if err := d.RemoveConnection(ctx, "alice", "bob_alice"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	for _, k := range [][2]string{
		{"bob", "alice_bob"},
		{"alice", "bob_alice"},
	} {
		if c, _ := s.GetConnection(ctx, k[0], k[1]); c != nil {
			t.Fatalf("connection %s/%s survived remove", k[0], k[1])
		}
	}
	if c, _ := s.GetSentRequest(ctx, "alice", "alice_bob"); c != nil {
		t.Fatalf("sent request survived remove: %+v", c)
	}

	status, err := d.GetConnectionStatus(ctx, "alice", "bob")
	if err != nil || status != model.StatusNone {
		t.Fatalf("status after remove: want none, got %q err %v", status, err)
	}

	// 幂等：再删一次不报错
	if err := d.RemoveConnection(ctx, "alice", "bob_alice"); err != nil {
		t.Fatalf("repeat remove: %v", err)
	}
}

func TestRemoveMalformedConnID(t *testing.T) {
	d, _, _, _ := newTestDirectory(t, "alice")
	err := d.RemoveConnection(context.Background(), "alice", "no-separator")
	if !errors.Is(err, errs.ErrArgs) {
		t.Fatalf("want ErrArgs, got %v", err)
	}
}

func TestListViews(t *testing.T) {
	d, _, _, _ := newTestDirectory(t, "alice", "bob", "carol")
	ctx := context.Background()
	if err := d.SendConnectionRequest(ctx, "alice", "bob"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := d.SendConnectionRequest(ctx, "carol", "alice"); err != nil {
		t.Fatalf("send: %v", err)
	}

	conns, err := d.ListConnections(ctx, "alice")
	if err != nil {
		t.Fatalf("list connections: %v", err)
	}
	if len(conns) != 1 || conns[0].UserID != "carol" {
		t.Fatalf("alice connections: %+v", conns)
	}
	sent, err := d.ListSentRequests(ctx, "alice")
	if err != nil {
		t.Fatalf("list sent: %v", err)
	}
	if len(sent) != 1 || sent[0].UserID != "bob" {
		t.Fatalf("alice sent: %+v", sent)
	}
}

func TestConcurrentDuplicateSends(t *testing.T) {
	d, s, _, _ := newTestDirectory(t, "alice", "bob")
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errsCh := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errsCh <- d.SendConnectionRequest(ctx, "alice", "bob")
		}()
	}
	wg.Wait()
	close(errsCh)

	okCount := 0
	for err := range errsCh {
		if err == nil {
			okCount++
		} else if !errors.Is(err, errs.ErrConnExists) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if okCount != 1 {
		t.Fatalf("exactly one send should win, got %d", okCount)
	}
	conns, _ := s.ListConnections(ctx, "bob")
	if len(conns) != 1 {
		t.Fatalf("bob should have one incoming request, got %d", len(conns))
	}
}
