package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"TradeYa/logger"
	"TradeYa/service/natsx"
	"TradeYa/tools/ids"
	jwtlib "TradeYa/tools/security"

	"github.com/emicklei/go-restful/v3/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
)

// Frame 下行帧：type 区分业务（chat / notify），data 是原始 JSON
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	FrameChat   = "chat"
	FrameNotify = "notify"
)

// Server websocket 网关：HTTP 侧升级连接，NATS 侧收业务推送。
type Server struct {
	hub *Hub
	jwt jwtlib.Options
}

func NewServer(gatewayID string, jwtOpts jwtlib.Options, presenceTTL time.Duration) *Server {
	return &Server{
		hub: NewHub(gatewayID, presenceTTL),
		jwt: jwtOpts,
	}
}

func (s *Server) Hub() *Hub { return s.hub }

// RegisterRoutes GET /ws?token=xxx
func (s *Server) RegisterRoutes(r gin.IRoutes) {
	r.GET("/ws", s.HandleWS)
}

// BindNats 订阅私信与通知两条业务路由，按 user_id 头投给本节点连接。
// 不在本节点的用户由别的网关实例消费（queue 组内只会有一个实例命中投递，
// 未命中的丢弃，离线消息靠落库补齐）。
func (s *Server) BindNats(chatBiz, notifyBiz string) error {
	if err := natsx.RegisterHandler(chatBiz, s.natsHandler(FrameChat)); err != nil {
		return err
	}
	return natsx.RegisterHandler(notifyBiz, s.natsHandler(FrameNotify))
}

func (s *Server) natsHandler(frameType string) natsx.NatsxHandler {
	return func(ctx context.Context, msg natsx.NatsxMessage) error {
		userID := msg.Header["user_id"]
		if userID == "" {
			return nil
		}
		frame, err := json.Marshal(Frame{Type: frameType, Data: msg.Data})
		if err != nil {
			return err
		}
		if n := s.hub.DeliverLocal(userID, frame); n > 0 {
			logger.Debugf("frame delivered type=%s user=%s conns=%d", frameType, userID, n)
		}
		return nil
	}
}

// HandleWS 升级连接并跑读写泵；token 无效直接拒绝
func (s *Server) HandleWS(c *gin.Context) {
	userID, ok := s.authenticate(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[gateway] upgrade failed user=%s err=%v", userID, err)
		return
	}

	client := newClient(ids.GenerateString(), userID, ws)
	s.hub.add(client)
	logger.Infof("ws connected user=%s conn=%s remote=%s", userID, client.ConnID, client.Remote)

	go s.writePump(client)
	s.readPump(client)
}

func (s *Server) authenticate(c *gin.Context) (string, bool) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		if authz := strings.TrimSpace(c.GetHeader("Authorization")); authz != "" {
			if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				token = strings.TrimSpace(authz[len("bearer "):])
			}
		}
	}
	if token == "" {
		return "", false
	}
	claims, err := jwtlib.Verify(s.jwt, token)
	if err != nil {
		return "", false
	}
	userID := claims.UserID()
	return userID, userID != ""
}

// readPump 只读；心跳续 presence，出错即收尾
func (s *Server) readPump(c *Client) {
	defer func() {
		s.hub.remove(c)
		_ = c.Conn.Close()
		logger.Infof("ws disconnected user=%s conn=%s", c.UserID, c.ConnID)
	}()

	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		s.hub.touch(c)
		return nil
	})

	for {
		mt, _, err := c.Conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Warnf("ws read user=%s: %v", c.UserID, err)
			}
			return
		}
		// 上行只接受心跳文本；业务写走 HTTP API
		if mt == websocket.TextMessage {
			s.hub.touch(c)
		}
	}
}

// writePump 串行写 + 周期 ping
func (s *Server) writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.SendChan:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Warnf("ws write user=%s: %v", c.UserID, err)
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
