package store

import (
	"context"
	"sort"
	"sync"

	"TradeYa/module/notify/model"
)

// MemStore 内存实现（单测用）
type MemStore struct {
	mu    sync.RWMutex
	items []*model.Notification
}

func NewMemStore() *MemStore { return &MemStore{} }

func (s *MemStore) Insert(ctx context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *n
	s.items = append(s.items, &cp)
	return nil
}

func (s *MemStore) List(ctx context.Context, userID string, limit int64) ([]*model.Notification, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Notification
	for _, n := range s.items {
		if n.UserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemStore) MarkRead(ctx context.Context, userID, notifyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.items {
		if n.UserID == userID && n.NotifyID == notifyID {
			n.Read = true
		}
	}
	return nil
}

func (s *MemStore) CountUnread(ctx context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var c int64
	for _, n := range s.items {
		if n.UserID == userID && !n.Read {
			c++
		}
	}
	return c, nil
}

var _ Store = (*MemStore)(nil)
