package tools

import (
	"net/http"

	"TradeYa/tools/errs"

	"github.com/gin-gonic/gin"
)

// OK 统一成功应答：{code:0, msg:"ok", data:...}
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"code": errs.NoError,
		"msg":  "ok",
		"data": data,
	})
}

// Fail 统一失败应答：HTTP 状态按错误码映射，body 带 code/msg/detail
func Fail(c *gin.Context, err error) {
	code := errs.CodeOf(err)
	c.JSON(httpStatus(code), gin.H{
		"code": code,
		"msg":  errs.MsgOf(err),
	})
}

func httpStatus(code int) int {
	switch code {
	case errs.ArgsError, errs.SelfConnectError:
		return http.StatusBadRequest
	case errs.TokenExpiredError, errs.TokenInvalidError:
		return http.StatusUnauthorized
	case errs.PermissionDenied, errs.NotParticipantError:
		return http.StatusForbidden
	case errs.RecordNotFoundErr, errs.UserNotFoundError:
		return http.StatusNotFound
	case errs.DuplicateKeyError, errs.ConnExistsError, errs.AlreadyJoinedError,
		errs.StatusConflictErr, errs.ConnNotPendingError, errs.TradeClosedError,
		errs.RoleFilledError, errs.ChallengeClosedError:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
