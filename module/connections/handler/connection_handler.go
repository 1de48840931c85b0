package handler

import (
	"TradeYa/middleware"
	midsec "TradeYa/middleware/security"
	"TradeYa/module/connections/service"
	"TradeYa/tools"
	"TradeYa/tools/errs"

	"github.com/gin-gonic/gin"
)

type ConnectionHandler struct {
	dir *service.Directory
}

func NewConnectionHandler(dir *service.Directory) *ConnectionHandler {
	return &ConnectionHandler{dir: dir}
}

// RegisterRoutes 全部接口要求登录
func (h *ConnectionHandler) RegisterRoutes(r gin.IRoutes) {
	auth := middleware.RouteOpt{IsAuth: true}
	middleware.POST(r, "/api/connections/request", h.SendRequest, auth)
	middleware.GET(r, "/api/connections/status/:userId", h.Status, auth)
	middleware.POST(r, "/api/connections/:connId/accept", h.Accept, auth)
	middleware.POST(r, "/api/connections/:connId/decline", h.Decline, auth)
	middleware.DELETE(r, "/api/connections/:connId", h.Remove, auth)
	middleware.GET(r, "/api/connections", h.List, auth)
	middleware.GET(r, "/api/connections/sent", h.ListSent, auth)
}

type sendRequestReq struct {
	ToUserID string `json:"toUserId"`
}

// SendRequest 发起连接请求；发起人取自登录态
func (h *ConnectionHandler) SendRequest(c *gin.Context) {
	var req sendRequestReq
	if err := c.ShouldBindJSON(&req); err != nil {
		tools.Fail(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	if err := h.dir.SendConnectionRequest(c.Request.Context(), midsec.UserID(c), req.ToUserID); err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, nil)
}

// Status 查询与某用户的关系
func (h *ConnectionHandler) Status(c *gin.Context) {
	status, err := h.dir.GetConnectionStatus(c.Request.Context(), midsec.UserID(c), c.Param("userId"))
	if err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, gin.H{"status": status})
}

func (h *ConnectionHandler) Accept(c *gin.Context) {
	if err := h.dir.AcceptConnectionRequest(c.Request.Context(), midsec.UserID(c), c.Param("connId")); err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, nil)
}

func (h *ConnectionHandler) Decline(c *gin.Context) {
	if err := h.dir.DeclineConnectionRequest(c.Request.Context(), midsec.UserID(c), c.Param("connId")); err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, nil)
}

func (h *ConnectionHandler) Remove(c *gin.Context) {
	if err := h.dir.RemoveConnection(c.Request.Context(), midsec.UserID(c), c.Param("connId")); err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, nil)
}

func (h *ConnectionHandler) List(c *gin.Context) {
	conns, err := h.dir.ListConnections(c.Request.Context(), midsec.UserID(c))
	if err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, conns)
}

func (h *ConnectionHandler) ListSent(c *gin.Context) {
	sent, err := h.dir.ListSentRequests(c.Request.Context(), midsec.UserID(c))
	if err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, sent)
}
