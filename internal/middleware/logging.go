package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// LoggingMiddleware 日志中间件
// 记录身份、上传体积和慢请求，文件上传和模型调用可能耗时数十秒
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)

		userID := "-"
		if id, ok := GetUserID(c); ok {
			userID = id
		}

		log.Printf("%s %s | status=%d user=%s size=%d latency=%v",
			c.Request.Method,
			path,
			c.Writer.Status(),
			userID,
			c.Request.ContentLength,
			latency,
		)

		if latency > 10*time.Second {
			log.Printf("Warning: slow request %s %s took %v", c.Request.Method, path, latency)
		}
	}
}
