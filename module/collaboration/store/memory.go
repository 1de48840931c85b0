package store

import (
	"context"
	"sort"
	"sync"

	"TradeYa/module/collaboration/model"
)

// MemStore 内存实现（单测用）
type MemStore struct {
	mu      sync.RWMutex
	collabs map[string]*model.Collaboration
}

func NewMemStore() *MemStore {
	return &MemStore{collabs: make(map[string]*model.Collaboration)}
}

func (s *MemStore) Insert(ctx context.Context, c *model.Collaboration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collabs[c.CollabID] = cloneCollab(c)
	return nil
}

func (s *MemStore) Get(ctx context.Context, collabID string) (*model.Collaboration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collabs[collabID]
	if !ok {
		return nil, nil
	}
	return cloneCollab(c), nil
}

func (s *MemStore) ListOpen(ctx context.Context, limit int64) ([]*model.Collaboration, error) {
	return s.filter(func(c *model.Collaboration) bool {
		return c.Status == model.StatusOpen
	}, limit), nil
}

func (s *MemStore) ListByUser(ctx context.Context, userID string, limit int64) ([]*model.Collaboration, error) {
	return s.filter(func(c *model.Collaboration) bool {
		if c.CreatorID == userID {
			return true
		}
		for i := range c.Roles {
			if c.Roles[i].FilledBy == userID {
				return true
			}
		}
		return false
	}, limit), nil
}

func (s *MemStore) filter(keep func(*model.Collaboration) bool, limit int64) []*model.Collaboration {
	if limit <= 0 {
		limit = defaultListLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Collaboration
	for _, c := range s.collabs {
		if keep(c) {
			out = append(out, cloneCollab(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out
}

func (s *MemStore) Replace(ctx context.Context, c *model.Collaboration, expectVersion int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.collabs[c.CollabID]
	if !ok || cur.Version != expectVersion {
		return false, nil
	}
	next := cloneCollab(c)
	next.Version = expectVersion + 1
	s.collabs[c.CollabID] = next
	return true, nil
}

func cloneCollab(c *model.Collaboration) *model.Collaboration {
	cp := *c
	cp.Roles = make([]model.Role, len(c.Roles))
	for i, r := range c.Roles {
		r.Applicants = append([]string(nil), r.Applicants...)
		cp.Roles[i] = r
	}
	return &cp
}

var _ Store = (*MemStore)(nil)
