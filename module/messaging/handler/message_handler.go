package handler

import (
	"strconv"

	"TradeYa/middleware"
	midsec "TradeYa/middleware/security"
	"TradeYa/module/messaging/service"
	"TradeYa/tools"
	"TradeYa/tools/errs"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	messenger *service.Messenger
}

func NewMessageHandler(messenger *service.Messenger) *MessageHandler {
	return &MessageHandler{messenger: messenger}
}

func (h *MessageHandler) RegisterRoutes(r gin.IRoutes) {
	auth := middleware.RouteOpt{IsAuth: true}
	middleware.POST(r, "/api/messages", h.Send, auth)
	middleware.GET(r, "/api/messages/:userId", h.History, auth)
	middleware.POST(r, "/api/messages/:userId/read", h.MarkRead, auth)
	middleware.GET(r, "/api/conversations", h.Conversations, auth)
}

type sendReq struct {
	ToUserID string `json:"toUserId"`
	Body     string `json:"body"`
}

func (h *MessageHandler) Send(c *gin.Context) {
	var req sendReq
	if err := c.ShouldBindJSON(&req); err != nil {
		tools.Fail(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	msg, err := h.messenger.Send(c.Request.Context(), midsec.UserID(c), req.ToUserID, req.Body)
	if err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, msg)
}

// History ?after=0&limit=50
func (h *MessageHandler) History(c *gin.Context) {
	after, _ := strconv.ParseInt(c.DefaultQuery("after", "0"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "0"), 10, 64)
	msgs, err := h.messenger.History(c.Request.Context(), midsec.UserID(c), c.Param("userId"), after, limit)
	if err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, msgs)
}

type markReadReq struct {
	Seq int64 `json:"seq"`
}

func (h *MessageHandler) MarkRead(c *gin.Context) {
	var req markReadReq
	if err := c.ShouldBindJSON(&req); err != nil {
		tools.Fail(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	if err := h.messenger.MarkRead(c.Request.Context(), midsec.UserID(c), c.Param("userId"), req.Seq); err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, nil)
}

func (h *MessageHandler) Conversations(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "0"), 10, 64)
	convs, err := h.messenger.Conversations(c.Request.Context(), midsec.UserID(c), limit)
	if err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, convs)
}
