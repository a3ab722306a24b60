// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"
	"salescoach-go/internal/apperr"
	"salescoach-go/internal/model"

	"github.com/gin-gonic/gin"
)

// currentUser 从上下文中取出 AuthMiddleware 注入的 User 对象。
// 取不到说明路由没挂认证中间件，按未授权处理。
func currentUser(c *gin.Context) (*model.User, bool) {
	userValue, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "non authentifié"})
		return nil, false
	}
	user, ok := userValue.(*model.User)
	if !ok || user == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "用户数据类型错误"})
		return nil, false
	}
	return user, true
}

// respondError 把业务错误映射为 HTTP 状态码。
// 未识别的错误（包括服务商调用失败）统一按 500 返回。
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": err.Error()})
	case errors.Is(err, apperr.ErrConflict):
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": err.Error()})
	case errors.Is(err, apperr.ErrPrecondition):
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": err.Error()})
	case apperr.IsUpstream(err):
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "échec de l'appel au fournisseur"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "erreur interne"})
	}
}
