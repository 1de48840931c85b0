package gateway

import (
	"testing"
	"time"
)

func newTestClient(connID, userID string) *Client {
	now := time.Now()
	return &Client{
		ConnID:    connID,
		UserID:    userID,
		SendChan:  make(chan []byte, sendQueueSize),
		JoinedAt:  now,
		Heartbeat: now,
	}
}

func TestHubMultiConnDelivery(t *testing.T) {
	h := NewHub("gw_test", time.Minute)
	c1 := newTestClient("conn1", "alice")
	c2 := newTestClient("conn2", "alice")
	h.add(c1)
	h.add(c2)

	if !h.Online("alice") || h.Count() != 2 {
		t.Fatalf("online=%v count=%d", h.Online("alice"), h.Count())
	}
	if n := h.DeliverLocal("alice", []byte("hey")); n != 2 {
		t.Fatalf("deliver hits: want 2, got %d", n)
	}
	for _, c := range []*Client{c1, c2} {
		select {
		case got := <-c.SendChan:
			if string(got) != "hey" {
				t.Fatalf("payload: %q", got)
			}
		default:
			t.Fatalf("conn %s got nothing", c.ConnID)
		}
	}
	if n := h.DeliverLocal("bob", []byte("hey")); n != 0 {
		t.Fatalf("unknown user hits: %d", n)
	}

	h.remove(c1)
	if !h.Online("alice") {
		t.Fatal("still one conn left")
	}
	h.remove(c2)
	if h.Online("alice") || h.Count() != 0 {
		t.Fatal("all conns removed")
	}
	// remove 后 SendChan 已关，重复 remove 幂等
	h.remove(c2)
}

// 断连与投递同时发生时，投递只能丢帧，不能向已关队列写入
func TestHubDeliverDuringDisconnect(t *testing.T) {
	h := NewHub("gw_test", time.Minute)
	c := newTestClient("conn1", "alice")
	h.add(c)

	h.remove(c)
	if c.trySend([]byte("late")) {
		t.Fatal("send after close must be dropped")
	}
	if n := h.DeliverLocal("alice", []byte("late")); n != 0 {
		t.Fatalf("delivery after remove: want 0 hits, got %d", n)
	}

	// 并发竞争：一半投递一半断连，不能 panic
	for i := 0; i < 200; i++ {
		cc := newTestClient("conn", "bob")
		h.add(cc)
		done := make(chan struct{})
		go func() {
			h.remove(cc)
			close(done)
		}()
		h.DeliverLocal("bob", []byte("race"))
		<-done
	}
}

func TestHubDropsSlowConsumer(t *testing.T) {
	h := NewHub("gw_test", time.Minute)
	c := newTestClient("conn1", "alice")
	h.add(c)

	for i := 0; i < sendQueueSize; i++ {
		if !c.trySend([]byte("fill")) {
			t.Fatalf("queue filled early at %d", i)
		}
	}
	if n := h.DeliverLocal("alice", []byte("overflow")); n != 0 {
		t.Fatalf("full queue must drop, got %d hits", n)
	}
}
