package handler

import (
	"strconv"

	"TradeYa/middleware"
	midsec "TradeYa/middleware/security"
	"TradeYa/module/challenge/service"
	"TradeYa/tools"
	"TradeYa/tools/errs"

	"github.com/gin-gonic/gin"
)

type ChallengeHandler struct {
	arena *service.Arena
}

func NewChallengeHandler(arena *service.Arena) *ChallengeHandler {
	return &ChallengeHandler{arena: arena}
}

func (h *ChallengeHandler) RegisterRoutes(r gin.IRoutes) {
	auth := middleware.RouteOpt{IsAuth: true}
	middleware.POST(r, "/api/challenges", h.Create, auth)
	middleware.GET(r, "/api/challenges/active", h.ListActive, auth)
	middleware.GET(r, "/api/challenges/:challengeId", h.Get, auth)
	middleware.POST(r, "/api/challenges/:challengeId/join", h.Join, auth)
	middleware.POST(r, "/api/challenges/:challengeId/submit", h.Submit, auth)
	middleware.POST(r, "/api/challenges/:challengeId/approve/:userId", h.Approve, auth)
	middleware.GET(r, "/api/challenges/:challengeId/participants", h.Participants, auth)
}

func (h *ChallengeHandler) Create(c *gin.Context) {
	var req service.CreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		tools.Fail(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	ch, err := h.arena.Create(c.Request.Context(), midsec.UserID(c), &req)
	if err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, ch)
}

func (h *ChallengeHandler) ListActive(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "0"), 10, 64)
	challenges, err := h.arena.ListActive(c.Request.Context(), limit)
	if err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, challenges)
}

func (h *ChallengeHandler) Get(c *gin.Context) {
	ch, err := h.arena.Get(c.Request.Context(), c.Param("challengeId"))
	if err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, ch)
}

func (h *ChallengeHandler) Join(c *gin.Context) {
	if err := h.arena.Join(c.Request.Context(), midsec.UserID(c), c.Param("challengeId")); err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, nil)
}

func (h *ChallengeHandler) Submit(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		tools.Fail(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	if err := h.arena.Submit(c.Request.Context(), midsec.UserID(c), c.Param("challengeId"), payload); err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, nil)
}

func (h *ChallengeHandler) Approve(c *gin.Context) {
	if err := h.arena.Approve(c.Request.Context(), midsec.UserID(c), c.Param("userId"), c.Param("challengeId")); err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, nil)
}

func (h *ChallengeHandler) Participants(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "0"), 10, 64)
	parts, err := h.arena.Participants(c.Request.Context(), c.Param("challengeId"), limit)
	if err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, parts)
}
