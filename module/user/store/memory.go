package store

import (
	"context"
	"sync"

	"TradeYa/module/user/model"
	"TradeYa/tools/errs"
)

// MemStore 内存实现（单测用）
type MemStore struct {
	mu      sync.RWMutex
	byID    map[string]*model.User
	byEmail map[string]*model.User
}

func NewMemStore() *MemStore {
	return &MemStore{
		byID:    make(map[string]*model.User),
		byEmail: make(map[string]*model.User),
	}
}

func (s *MemStore) Insert(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[u.Email]; ok {
		return errs.ErrDuplicateKey.WithDetail("email already registered").Wrap()
	}
	if _, ok := s.byID[u.UserID]; ok {
		return errs.ErrDuplicateKey.WithDetail("user id taken").Wrap()
	}
	cp := *u
	s.byID[u.UserID] = &cp
	s.byEmail[u.Email] = &cp
	return nil
}

func (s *MemStore) GetByID(ctx context.Context, userID string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneUser(s.byID[userID]), nil
}

func (s *MemStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneUser(s.byEmail[email]), nil
}

func (s *MemStore) Update(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[u.UserID]
	if !ok {
		return errs.ErrUserNotFound.Wrap()
	}
	cur.DisplayName = u.DisplayName
	cur.Bio = u.Bio
	cur.AvatarURL = u.AvatarURL
	cur.SkillsOffered = append([]string(nil), u.SkillsOffered...)
	cur.SkillsWanted = append([]string(nil), u.SkillsWanted...)
	cur.UpdatedAt = u.UpdatedAt
	return nil
}

func (s *MemStore) SearchBySkill(ctx context.Context, skill string, limit int64) ([]*model.User, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.User
	for _, u := range s.byID {
		for _, sk := range u.SkillsOffered {
			if sk == skill {
				out = append(out, cloneUser(u))
				break
			}
		}
		if int64(len(out)) >= limit {
			break
		}
	}
	return out, nil
}

func cloneUser(u *model.User) *model.User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.SkillsOffered = append([]string(nil), u.SkillsOffered...)
	cp.SkillsWanted = append([]string(nil), u.SkillsWanted...)
	return &cp
}

var _ Store = (*MemStore)(nil)
