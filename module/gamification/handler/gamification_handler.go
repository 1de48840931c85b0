package handler

import (
	"strconv"

	"TradeYa/middleware"
	midsec "TradeYa/middleware/security"
	"TradeYa/module/gamification/service"
	"TradeYa/tools"

	"github.com/gin-gonic/gin"
)

type GamificationHandler struct {
	ledger *service.Ledger
}

func NewGamificationHandler(ledger *service.Ledger) *GamificationHandler {
	return &GamificationHandler{ledger: ledger}
}

func (h *GamificationHandler) RegisterRoutes(r gin.IRoutes) {
	auth := middleware.RouteOpt{IsAuth: true}
	middleware.GET(r, "/api/gamification/me", h.Me, auth)
	middleware.GET(r, "/api/gamification/leaderboard", h.Leaderboard, auth)
	middleware.GET(r, "/api/gamification/rank", h.Rank, auth)
}

func (h *GamificationHandler) Me(c *gin.Context) {
	acc, err := h.ledger.Account(c.Request.Context(), midsec.UserID(c))
	if err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, acc)
}

// Leaderboard ?n=10
func (h *GamificationHandler) Leaderboard(c *gin.Context) {
	n, _ := strconv.ParseInt(c.DefaultQuery("n", "10"), 10, 64)
	top, err := h.ledger.Top(n)
	if err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, top)
}

func (h *GamificationHandler) Rank(c *gin.Context) {
	entry, err := h.ledger.Rank(midsec.UserID(c))
	if err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, entry)
}
