package store

import (
	"context"
	"sync"
	"time"

	"TradeYa/module/gamification/model"
)

// MemStore 内存实现（单测用）
type MemStore struct {
	mu       sync.Mutex
	accounts map[string]*model.XPAccount
}

func NewMemStore() *MemStore {
	return &MemStore{accounts: make(map[string]*model.XPAccount)}
}

func (s *MemStore) AddXP(ctx context.Context, userID string, delta int64) (*model.XPAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[userID]
	if !ok {
		acc = &model.XPAccount{UserID: userID, Level: 1}
		s.accounts[userID] = acc
	}
	acc.XP += delta
	acc.Level = model.LevelFor(acc.XP)
	acc.UpdatedAt = time.Now()
	cp := *acc
	return &cp, nil
}

func (s *MemStore) Get(ctx context.Context, userID string) (*model.XPAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[userID]
	if !ok {
		return nil, nil
	}
	cp := *acc
	return &cp, nil
}

var _ Store = (*MemStore)(nil)
