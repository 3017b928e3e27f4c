package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medimate-go/internal/model"
)

// AdminRole 是管理员的角色名。
const AdminRole = "ADMIN"

// AdminAuthMiddleware 检查用户是否具有管理员权限。
// 此中间件必须在 AuthMiddleware 之后使用。
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := c.Get("user")
		if !exists {
			abort(c, http.StatusInternalServerError, "user missing from context")
			return
		}
		currentUser, ok := user.(*model.User)
		if !ok {
			abort(c, http.StatusInternalServerError, "user missing from context")
			return
		}
		if currentUser.Role != AdminRole {
			abort(c, http.StatusForbidden, "admin role required")
			return
		}
		c.Next()
	}
}
