package gateway

import (
	"sync"
	"time"

	"TradeYa/logger"
	"TradeYa/service/storage"
)

// Hub 本节点的连接表：userID -> (connID -> client)。
// 同一用户允许多端在线；上下线同步 redis presence。
type Hub struct {
	mu     sync.RWMutex
	byUser map[string]map[string]*Client

	gatewayID   string
	presenceTTL time.Duration
}

func NewHub(gatewayID string, presenceTTL time.Duration) *Hub {
	if presenceTTL <= 0 {
		presenceTTL = 2 * time.Minute
	}
	return &Hub{
		byUser:      make(map[string]map[string]*Client),
		gatewayID:   gatewayID,
		presenceTTL: presenceTTL,
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	conns, ok := h.byUser[c.UserID]
	if !ok {
		conns = make(map[string]*Client)
		h.byUser[c.UserID] = conns
	}
	conns[c.ConnID] = c
	h.mu.Unlock()

	if err := storage.PresenceOnline(c.UserID, h.gatewayID, h.presenceTTL); err != nil {
		logger.Warnf("presence online skipped user=%s: %v", c.UserID, err)
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	lastConn := false
	if conns, ok := h.byUser[c.UserID]; ok {
		delete(conns, c.ConnID)
		if len(conns) == 0 {
			delete(h.byUser, c.UserID)
			lastConn = true
		}
	}
	h.mu.Unlock()
	c.close()

	if lastConn {
		if err := storage.PresenceOffline(c.UserID); err != nil {
			logger.Warnf("presence offline skipped user=%s: %v", c.UserID, err)
		}
	}
}

// touch 心跳时顺带续 presence TTL
func (h *Hub) touch(c *Client) {
	c.Heartbeat = time.Now()
	if err := storage.PresenceOnline(c.UserID, h.gatewayID, h.presenceTTL); err != nil {
		logger.Warnf("presence renew skipped user=%s: %v", c.UserID, err)
	}
}

// DeliverLocal 给本节点上该用户的所有连接投递；返回命中连接数
func (h *Hub) DeliverLocal(userID string, payload []byte) int {
	h.mu.RLock()
	conns := make([]*Client, 0, 2)
	for _, c := range h.byUser[userID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	n := 0
	for _, c := range conns {
		if c.trySend(payload) {
			n++
		} else {
			logger.Warnf("slow consumer, frame dropped user=%s conn=%s", userID, c.ConnID)
		}
	}
	return n
}

// Online 本节点视角该用户是否在线
func (h *Hub) Online(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID]) > 0
}

// Count 当前连接总数
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, conns := range h.byUser {
		n += len(conns)
	}
	return n
}
