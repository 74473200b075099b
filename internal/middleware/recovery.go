package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// RecoveryMiddleware 恢复中间件
// 响应结构与 handler 的错误响应保持一致
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				userID := "-"
				if id, ok := GetUserID(c); ok {
					userID = id
				}
				log.Printf("panic recovered: %s %s user=%s: %v\n%s",
					c.Request.Method, c.Request.URL.Path, userID, err, debug.Stack())
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"code": 500,
					"msg":  "internal server error",
				})
			}
		}()
		c.Next()
	}
}
