package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"attend-ease/backend/internal/service"
	"attend-ease/backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	v, exists := c.Get("role")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// GetEmail 提取 token 中的邮箱，可能为空
func GetEmail(c *gin.Context) string {
	return c.GetString("email")
}

// handleProfileRequired 学生档案缺失时写入 404 并返回 true
func handleProfileRequired(c *gin.Context, err error) bool {
	if errors.Is(err, service.ErrProfileNotFound) {
		response.NotFound(c, 23001, "学生档案不存在，请先完善个人信息")
		return true
	}
	return false
}
