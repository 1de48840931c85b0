package handler

import (
	"strconv"

	"TradeYa/middleware"
	midsec "TradeYa/middleware/security"
	"TradeYa/module/user/service"
	"TradeYa/tools"
	"TradeYa/tools/errs"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	accounts *service.Accounts
}

func NewUserHandler(accounts *service.Accounts) *UserHandler {
	return &UserHandler{accounts: accounts}
}

func (h *UserHandler) RegisterRoutes(r gin.IRoutes) {
	open := middleware.RouteOpt{}
	auth := middleware.RouteOpt{IsAuth: true}
	middleware.POST(r, "/api/users/register", h.Register, open)
	middleware.POST(r, "/api/users/login", h.Login, open)
	middleware.GET(r, "/api/users/me", h.Me, auth)
	middleware.POST(r, "/api/users/me", h.UpdateMe, auth)
	middleware.GET(r, "/api/users/:userId", h.Profile, auth)
	middleware.GET(r, "/api/users", h.Search, auth)
}

func (h *UserHandler) Register(c *gin.Context) {
	var req service.RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		tools.Fail(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	u, err := h.accounts.Register(c.Request.Context(), &req)
	if err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, gin.H{"userId": u.UserID})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		tools.Fail(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	res, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, res)
}

// Me 本人全量资料
func (h *UserHandler) Me(c *gin.Context) {
	u, err := h.accounts.Profile(c.Request.Context(), midsec.UserID(c))
	if err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, u)
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req service.UpdateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		tools.Fail(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	u, err := h.accounts.UpdateProfile(c.Request.Context(), midsec.UserID(c), &req)
	if err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, u)
}

// Profile 他人资料（脱敏）
func (h *UserHandler) Profile(c *gin.Context) {
	u, err := h.accounts.Profile(c.Request.Context(), c.Param("userId"))
	if err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, u.ToPublic())
}

// Search ?skill=xxx&limit=20
func (h *UserHandler) Search(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "0"), 10, 64)
	users, err := h.accounts.SearchBySkill(c.Request.Context(), c.Query("skill"), limit)
	if err != nil {
		tools.Fail(c, err)
		return
	}
	tools.OK(c, users)
}
