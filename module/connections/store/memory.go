package store

import (
	"context"
	"sync"

	"TradeYa/module/connections/model"
)

// MemStore 内存实现：单测与本地联调用。
// 普通读写走 mu；Transaction 用独立的 txMu 串行化并在失败时整体回滚快照。
type MemStore struct {
	mu    sync.RWMutex
	txMu  sync.Mutex
	users map[string]struct{}
	conns map[string]*model.Connection // owner|connID -> doc
	sent  map[string]*model.Connection
}

func NewMemStore() *MemStore {
	return &MemStore{
		users: make(map[string]struct{}),
		conns: make(map[string]*model.Connection),
		sent:  make(map[string]*model.Connection),
	}
}

func key(ownerID, connID string) string { return ownerID + "|" + connID }

// AddUser 预置用户（测试用）
func (s *MemStore) AddUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = struct{}{}
}

func (s *MemStore) UserExists(ctx context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[userID]
	return ok, nil
}

func (s *MemStore) GetConnection(ctx context.Context, ownerID, connID string) (*model.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneConn(s.conns[key(ownerID, connID)]), nil
}

func (s *MemStore) GetSentRequest(ctx context.Context, ownerID, connID string) (*model.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneConn(s.sent[key(ownerID, connID)]), nil
}

func (s *MemStore) FindConnectionWith(ctx context.Context, ownerID, otherUserID string) (*model.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findByOther(s.conns, ownerID, otherUserID), nil
}

func (s *MemStore) FindSentRequestTo(ctx context.Context, ownerID, otherUserID string) (*model.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findByOther(s.sent, ownerID, otherUserID), nil
}

func findByOther(m map[string]*model.Connection, ownerID, otherUserID string) *model.Connection {
	for _, c := range m {
		if c.OwnerID == ownerID && c.UserID == otherUserID {
			return cloneConn(c)
		}
	}
	return nil
}

func (s *MemStore) ListConnections(ctx context.Context, ownerID string) ([]*model.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listByOwner(s.conns, ownerID), nil
}

func (s *MemStore) ListSentRequests(ctx context.Context, ownerID string) ([]*model.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listByOwner(s.sent, ownerID), nil
}

func listByOwner(m map[string]*model.Connection, ownerID string) []*model.Connection {
	var out []*model.Connection
	for _, c := range m {
		if c.OwnerID == ownerID {
			out = append(out, cloneConn(c))
		}
	}
	return out
}

func (s *MemStore) PutConnection(ctx context.Context, c *model.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[key(c.OwnerID, c.ConnID)] = cloneConn(c)
	return nil
}

func (s *MemStore) PutSentRequest(ctx context.Context, c *model.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent[key(c.OwnerID, c.ConnID)] = cloneConn(c)
	return nil
}

func (s *MemStore) DeleteConnection(ctx context.Context, ownerID, connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, key(ownerID, connID))
	return nil
}

func (s *MemStore) DeleteSentRequest(ctx context.Context, ownerID, connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sent, key(ownerID, connID))
	return nil
}

func (s *MemStore) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snapConns, snapSent := s.snapshot()
	if err := fn(ctx); err != nil {
		s.restore(snapConns, snapSent)
		return err
	}
	return nil
}

func (s *MemStore) snapshot() (map[string]*model.Connection, map[string]*model.Connection) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conns := make(map[string]*model.Connection, len(s.conns))
	for k, v := range s.conns {
		conns[k] = cloneConn(v)
	}
	sent := make(map[string]*model.Connection, len(s.sent))
	for k, v := range s.sent {
		sent[k] = cloneConn(v)
	}
	return conns, sent
}

func (s *MemStore) restore(conns, sent map[string]*model.Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns = conns
	s.sent = sent
}

func cloneConn(c *model.Connection) *model.Connection {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}

var _ Store = (*MemStore)(nil)
