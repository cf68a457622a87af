// Package middleware gin 中间件
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// BearerAuth 校验 "Authorization: Bearer <secret>"，失败直接 401，不读取请求体。
// secret 为空时拒绝全部请求（未配置密钥视为关闭入口）
func BearerAuth(secret string, logger *logrus.Logger) gin.HandlerFunc {
	want := []byte(secret)
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if len(want) == 0 || token == "" || subtle.ConstantTimeCompare([]byte(token), want) != 1 {
			logger.WithFields(logrus.Fields{
				"path":      c.Request.URL.Path,
				"client_ip": c.ClientIP(),
			}).Warn("鉴权失败")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// extractBearerToken Bearer 前缀大小写不敏感
func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
