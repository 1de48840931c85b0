package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"TradeYa/module/notify/model"
	"TradeYa/module/notify/store"
)

type capturePublisher struct {
	mu   sync.Mutex
	msgs []*model.Notification
	errs []error
	fail error
}

func (p *capturePublisher) Publish(_ context.Context, biz string, data []byte, hdr map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	var n model.Notification
	if err := json.Unmarshal(data, &n); err != nil {
		p.errs = append(p.errs, err)
		return err
	}
	p.msgs = append(p.msgs, &n)
	return nil
}

func TestDeliverPersistsAndPushes(t *testing.T) {
	s := store.NewMemStore()
	pub := &capturePublisher{}
	c := NewCenter(s, WithPublisher(pub))
	ctx := context.Background()

	c.Success(ctx, "alice", "Connection Accepted", "you are now connected")
	c.Failure(ctx, "alice", "Failed to Send Request", "user not found")

	items, err := c.List(ctx, "alice", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("want 2 notifications, got %d", len(items))
	}
	levels := map[string]bool{}
	for _, n := range items {
		levels[n.Level] = true
		if n.NotifyID == "" {
			t.Fatalf("notify id not assigned: %+v", n)
		}
		if n.Read {
			t.Fatalf("new notification should be unread: %+v", n)
		}
	}
	if !levels[model.LevelSuccess] || !levels[model.LevelError] {
		t.Fatalf("levels: %v", levels)
	}
	if len(pub.msgs) != 2 {
		t.Fatalf("want 2 pushed messages, got %d", len(pub.msgs))
	}
}

func TestDeliverSurvivesPushFailure(t *testing.T) {
	s := store.NewMemStore()
	pub := &capturePublisher{fail: context.DeadlineExceeded}
	c := NewCenter(s, WithPublisher(pub))
	ctx := context.Background()

	c.Success(ctx, "bob", "Request Sent", "connection request sent")

	// 推送失败时库里仍要有记录
	items, err := c.List(ctx, "bob", 0)
	if err != nil || len(items) != 1 {
		t.Fatalf("notification should persist despite push failure: %v %v", items, err)
	}
}

func TestUnreadCountAndMarkRead(t *testing.T) {
	s := store.NewMemStore()
	c := NewCenter(s, WithPublisher(&capturePublisher{}))
	ctx := context.Background()

	c.Success(ctx, "alice", "A", "a")
	c.Success(ctx, "alice", "B", "b")

	n, err := c.UnreadCount(ctx, "alice")
	if err != nil || n != 2 {
		t.Fatalf("unread: want 2, got %d err %v", n, err)
	}

	items, _ := c.List(ctx, "alice", 0)
	if err := c.MarkRead(ctx, "alice", items[0].NotifyID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	n, _ = c.UnreadCount(ctx, "alice")
	if n != 1 {
		t.Fatalf("unread after mark: want 1, got %d", n)
	}

	// 幂等：重复标记不报错
	if err := c.MarkRead(ctx, "alice", items[0].NotifyID); err != nil {
		t.Fatalf("repeat mark read: %v", err)
	}
}
