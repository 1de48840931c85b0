package handler

import (
	"strconv"

	"TradeYa/middleware"
	midsec "TradeYa/middleware/security"
	"TradeYa/module/collaboration/service"
	"TradeYa/tools"
	"TradeYa/tools/errs"

	"github.com/gin-gonic/gin"
)

type CollaborationHandler struct {
	projects *service.Projects
}

func NewCollaborationHandler(projects *service.Projects) *CollaborationHandler {
	return &CollaborationHandler{projects: projects}
}

func (h *CollaborationHandler) RegisterRoutes(r gin.IRoutes) {
	auth := middleware.RouteOpt{IsAuth: true}
	middleware.POST(r, "/api/collaborations", h.Create, auth)
	middleware.GET(r, "/api/collaborations/open", h.ListOpen, auth)
	middleware.GET(r, "/api/collaborations/mine", h.ListMine, auth)
	middleware.GET(r, "/api/collaborations/:collabId", h.Get, auth)
	middleware.POST(r, "/api/collaborations/:collabId/apply", h.Apply, auth)
	middleware.POST(r, "/api/collaborations/:collabId/roles/accept", h.AcceptApplicant, auth)
	middleware.POST(r, "/api/collaborations/:collabId/complete", h.Complete, auth)
	middleware.POST(r, "/api/collaborations/:collabId/cancel", h.Cancel, auth)
}

func (h *CollaborationHandler) Create(c *gin.Context) {
	var req service.CreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		tools.Fail(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	collab, err := h.projects.Create(c.Request.Context(), midsec.UserID(c), &req)
	if err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, collab)
}

func (h *CollaborationHandler) Get(c *gin.Context) {
	collab, err := h.projects.Get(c.Request.Context(), c.Param("collabId"))
	if err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, collab)
}

func (h *CollaborationHandler) ListOpen(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "0"), 10, 64)
	collabs, err := h.projects.ListOpen(c.Request.Context(), limit)
	if err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, collabs)
}

func (h *CollaborationHandler) ListMine(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "0"), 10, 64)
	collabs, err := h.projects.ListByUser(c.Request.Context(), midsec.UserID(c), limit)
	if err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, collabs)
}

type applyReq struct {
	Role string `json:"role"`
}

func (h *CollaborationHandler) Apply(c *gin.Context) {
	var req applyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		tools.Fail(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	if err := h.projects.Apply(c.Request.Context(), midsec.UserID(c), c.Param("collabId"), req.Role); err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, nil)
}

type acceptApplicantReq struct {
	Role      string `json:"role"`
	Applicant string `json:"applicant"`
}

func (h *CollaborationHandler) AcceptApplicant(c *gin.Context) {
	var req acceptApplicantReq
	if err := c.ShouldBindJSON(&req); err != nil {
		tools.Fail(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	err := h.projects.AcceptApplicant(c.Request.Context(), midsec.UserID(c), c.Param("collabId"), req.Role, req.Applicant)
	if err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, nil)
}

func (h *CollaborationHandler) Complete(c *gin.Context) {
	if err := h.projects.Complete(c.Request.Context(), midsec.UserID(c), c.Param("collabId")); err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, nil)
}

func (h *CollaborationHandler) Cancel(c *gin.Context) {
	if err := h.projects.Cancel(c.Request.Context(), midsec.UserID(c), c.Param("collabId")); err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, nil)
}
