package handler

import (
	"strconv"

	"TradeYa/middleware"
	midsec "TradeYa/middleware/security"
	"TradeYa/module/notify/service"
	"TradeYa/tools"

	"github.com/gin-gonic/gin"
)

type NotifyHandler struct {
	center *service.Center
}

func NewNotifyHandler(center *service.Center) *NotifyHandler {
	return &NotifyHandler{center: center}
}

func (h *NotifyHandler) RegisterRoutes(r gin.IRoutes) {
	auth := middleware.RouteOpt{IsAuth: true}
	middleware.GET(r, "/api/notifications", h.List, auth)
	middleware.GET(r, "/api/notifications/unread", h.Unread, auth)
	middleware.POST(r, "/api/notifications/:notifyId/read", h.MarkRead, auth)
}

func (h *NotifyHandler) List(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "0"), 10, 64)
	items, err := h.center.List(c.Request.Context(), midsec.UserID(c), limit)
	if err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, items)
}

func (h *NotifyHandler) Unread(c *gin.Context) {
	n, err := h.center.UnreadCount(c.Request.Context(), midsec.UserID(c))
	if err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, gin.H{"count": n})
}

func (h *NotifyHandler) MarkRead(c *gin.Context) {
	if err := h.center.MarkRead(c.Request.Context(), midsec.UserID(c), c.Param("notifyId")); err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, nil)
}
