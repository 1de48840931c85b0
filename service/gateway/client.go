package gateway

import (
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client 一条已认证的 websocket 连接。写统一走 SendChan，
// 由 writePump 串行落到底层连接上。
type Client struct {
	ConnID   string
	UserID   string
	Conn     *websocket.Conn
	Remote   net.Addr
	SendChan chan []byte

	JoinedAt  time.Time
	Heartbeat time.Time

	mu     sync.Mutex // 串行化 trySend 与 close，挡掉向已关队列写入
	closed bool
}

const sendQueueSize = 64

func newClient(connID, userID string, ws *websocket.Conn) *Client {
	now := time.Now()
	return &Client{
		ConnID:    connID,
		UserID:    userID,
		Conn:      ws,
		Remote:    ws.RemoteAddr(),
		SendChan:  make(chan []byte, sendQueueSize),
		JoinedAt:  now,
		Heartbeat: now,
	}
}

// trySend 非阻塞投递；队列满视为慢消费者，丢这一条。
// 连接已收尾时直接丢弃，投递与 close 不会同时碰 SendChan。
func (c *Client) trySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.SendChan <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.SendChan)
}
