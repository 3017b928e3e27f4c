package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"medimate-go/pkg/log"
)

// RequestLogger 是一个 Gin 中间件，记录每个请求的方法、路径、状态码与耗时。
// 请求体和响应体包含健康信息，不写入日志。
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()

		// 使用路由模板而不是原始路径，避免把 WebSocket 票据等路径参数写进日志
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		fields := []interface{}{
			"statusCode", c.Writer.Status(),
			"latency", time.Since(startTime).String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", path,
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}
		if c.Writer.Status() >= 500 {
			log.Warnw("HTTP Request Log", fields...)
			return
		}
		log.Infow("HTTP Request Log", fields...)
	}
}
