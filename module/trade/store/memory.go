package store

import (
	"context"
	"sort"
	"sync"

	"TradeYa/module/trade/model"
)

// MemStore 内存实现（单测用）
type MemStore struct {
	mu     sync.RWMutex
	trades map[string]*model.Trade
}

func NewMemStore() *MemStore {
	return &MemStore{trades: make(map[string]*model.Trade)}
}

func (s *MemStore) Insert(ctx context.Context, t *model.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.trades[t.TradeID] = &cp
	return nil
}

func (s *MemStore) Get(ctx context.Context, tradeID string) (*model.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trades[tradeID]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (s *MemStore) ListOpen(ctx context.Context, skill string, limit int64) ([]*model.Trade, error) {
	return s.filter(func(t *model.Trade) bool {
		if t.Status != model.StatusOpen {
			return false
		}
		return skill == "" || t.OfferedSkill == skill
	}, limit), nil
}

func (s *MemStore) ListByUser(ctx context.Context, userID string, limit int64) ([]*model.Trade, error) {
	return s.filter(func(t *model.Trade) bool {
		return t.CreatorID == userID || t.ParticipantID == userID
	}, limit), nil
}

func (s *MemStore) filter(keep func(*model.Trade) bool, limit int64) []*model.Trade {
	if limit <= 0 {
		limit = defaultListLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Trade
	for _, t := range s.trades {
		if keep(t) {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out
}

func (s *MemStore) UpdateStatus(ctx context.Context, tradeID, fromStatus string, t *model.Trade) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.trades[tradeID]
	if !ok || cur.Status != fromStatus {
		return false, nil
	}
	cur.Status = t.Status
	cur.ParticipantID = t.ParticipantID
	cur.CreatorConfirmed = t.CreatorConfirmed
	cur.ParticipantConfirmed = t.ParticipantConfirmed
	cur.UpdatedAt = t.UpdatedAt
	return true, nil
}

var _ Store = (*MemStore)(nil)
