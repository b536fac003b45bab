package middleware

import (
	"people_api/pkg/log"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLogger 记录每个请求的耗时、状态码和查询参数。
// 只记录 query，不读取请求体和响应体：人员列表响应可能很大。
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		fields := []interface{}{
			"latency", time.Since(startTime),
			"status", c.Writer.Status(),
			"client_ip", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"size", c.Writer.Size(),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}
		if c.Writer.Status() >= 500 {
			log.Warnw("HTTP request", fields...)
			return
		}
		log.Infow("HTTP request", fields...)
	}
}
