package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextKeyAccessToken 访问令牌在 gin 上下文中的键
const ContextKeyAccessToken = "access_token"

// TokenAuth 提取 Bearer 令牌
// 本服务不解析令牌内容，只做透传：所有远端调用都带上用户自己的令牌，
// 鉴权判定交给开放平台
func TokenAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "缺少访问令牌",
			})
			return
		}

		c.Set(ContextKeyAccessToken, token)
		c.Next()
	}
}
