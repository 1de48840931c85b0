package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"TradeYa/module/messaging/model"
)

// MemStore 内存实现（单测用）
type MemStore struct {
	mu    sync.Mutex
	convs map[string]*model.Conversation
	msgs  map[string][]*model.Message // convID -> seq 升序
}

func NewMemStore() *MemStore {
	return &MemStore{
		convs: make(map[string]*model.Conversation),
		msgs:  make(map[string][]*model.Message),
	}
}

func (s *MemStore) NextSeq(ctx context.Context, convID string, members []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[convID]
	if !ok {
		c = &model.Conversation{
			ConvID:  convID,
			Members: append([]string(nil), members...),
		}
		s.convs[convID] = c
	}
	c.LastSeq++
	c.UpdatedAt = time.Now()
	return c.LastSeq, nil
}

func (s *MemStore) InsertMessage(ctx context.Context, m *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.msgs[m.ConvID] = append(s.msgs[m.ConvID], &cp)
	sort.Slice(s.msgs[m.ConvID], func(i, j int) bool {
		return s.msgs[m.ConvID][i].Seq < s.msgs[m.ConvID][j].Seq
	})
	return nil
}

func (s *MemStore) ListMessages(ctx context.Context, convID string, afterSeq int64, limit int64) ([]*model.Message, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Message
	for _, m := range s.msgs[convID] {
		if m.Seq > afterSeq {
			cp := *m
			out = append(out, &cp)
			if int64(len(out)) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (s *MemStore) ListConversations(ctx context.Context, userID string, limit int64) ([]*model.Conversation, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Conversation
	for _, c := range s.convs {
		for _, m := range c.Members {
			if m == userID {
				cp := *c
				cp.Members = append([]string(nil), c.Members...)
				out = append(out, &cp)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemStore) SetReadSeq(ctx context.Context, convID, userID string, seq int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[convID]
	if !ok {
		return nil
	}
	if c.ReadSeq == nil {
		c.ReadSeq = make(map[string]int64)
	}
	if seq > c.ReadSeq[userID] {
		c.ReadSeq[userID] = seq
	}
	return nil
}

var _ Store = (*MemStore)(nil)
