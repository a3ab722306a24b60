// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"net/http"
	"salescoach-go/internal/model"

	"github.com/gin-gonic/gin"
)

// AdminAuthMiddleware 检查当前用户是否具有管理员角色。
// 必须挂在 AuthMiddleware 之后，依赖其写入上下文的 user 对象。
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := c.Get("user")
		if !exists {
			// user 缺失说明认证中间件没有先执行，属于路由装配错误
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "impossible de récupérer l'utilisateur"})
			return
		}

		currentUser, ok := user.(*model.User)
		if !ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "type d'utilisateur invalide"})
			return
		}

		if currentUser.Role != "ADMIN" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "accès réservé aux administrateurs"})
			return
		}

		c.Next()
	}
}
