package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"campus-hub/backend/internal/api/middleware"
	"campus-hub/backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// JWT 中间件未注入时写入 401 响应并返回 false，调用方应直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	s := c.GetString(middleware.ContextUserID)
	if s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	s := c.GetString(middleware.ContextRole)
	if s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// bindJSON 绑定并校验请求体；失败时写入响应并返回 false
// 请求体超过 BodyLimit 时返回 413，其余校验错误返回 code
func bindJSON(c *gin.Context, obj interface{}, code int) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			return false
		}
		response.BadRequest(c, code, "参数校验失败")
		return false
	}
	return true
}

// bindQuery 绑定并校验查询参数
func bindQuery(c *gin.Context, obj interface{}, code int) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		response.BadRequest(c, code, "参数校验失败")
		return false
	}
	return true
}
