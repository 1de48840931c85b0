package handler

import (
	"context"
	"strconv"

	"TradeYa/middleware"
	midsec "TradeYa/middleware/security"
	"TradeYa/module/trade/service"
	"TradeYa/tools"
	"TradeYa/tools/errs"

	"github.com/gin-gonic/gin"
)

type TradeHandler struct {
	exchange *service.Exchange
}

func NewTradeHandler(exchange *service.Exchange) *TradeHandler {
	return &TradeHandler{exchange: exchange}
}

func (h *TradeHandler) RegisterRoutes(r gin.IRoutes) {
	auth := middleware.RouteOpt{IsAuth: true}
	middleware.POST(r, "/api/trades", h.Create, auth)
	middleware.GET(r, "/api/trades/open", h.ListOpen, auth)
	middleware.GET(r, "/api/trades/mine", h.ListMine, auth)
	middleware.GET(r, "/api/trades/:tradeId", h.Get, auth)
	middleware.POST(r, "/api/trades/:tradeId/propose", h.Propose, auth)
	middleware.POST(r, "/api/trades/:tradeId/accept", h.Accept, auth)
	middleware.POST(r, "/api/trades/:tradeId/complete", h.Complete, auth)
	middleware.POST(r, "/api/trades/:tradeId/cancel", h.Cancel, auth)
}

func (h *TradeHandler) Create(c *gin.Context) {
	var req service.CreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		tools.Fail(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	t, err := h.exchange.Create(c.Request.Context(), midsec.UserID(c), &req)
	if err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, t)
}

func (h *TradeHandler) Get(c *gin.Context) {
	t, err := h.exchange.Get(c.Request.Context(), c.Param("tradeId"))
	if err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, t)
}

// ListOpen ?skill=xxx&limit=50
func (h *TradeHandler) ListOpen(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "0"), 10, 64)
	trades, err := h.exchange.ListOpen(c.Request.Context(), c.Query("skill"), limit)
	if err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, trades)
}

func (h *TradeHandler) ListMine(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "0"), 10, 64)
	trades, err := h.exchange.ListByUser(c.Request.Context(), midsec.UserID(c), limit)
	if err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, trades)
}

func (h *TradeHandler) Propose(c *gin.Context) {
	h.mutate(c, h.exchange.Propose)
}

func (h *TradeHandler) Accept(c *gin.Context) {
	h.mutate(c, h.exchange.AcceptProposal)
}

func (h *TradeHandler) Complete(c *gin.Context) {
	h.mutate(c, h.exchange.Complete)
}

func (h *TradeHandler) Cancel(c *gin.Context) {
	h.mutate(c, h.exchange.Cancel)
}

func (h *TradeHandler) mutate(c *gin.Context, op func(ctx context.Context, userID, tradeID string) error) {
	if err := op(c.Request.Context(), midsec.UserID(c), c.Param("tradeId")); err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, nil)
}
