package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/d60-Lab/castgraph/pkg/logger"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogger 为每个请求生成 request_id，挂到请求 context 的 logger 上，
// 并在请求结束时记录一条访问日志。
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		rid := c.GetHeader(RequestIDHeader)
		if rid == "" || len(rid) > 64 {
			rid = uuid.New().String()
		}
		c.Header(RequestIDHeader, rid)
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), zap.String("request_id", rid)))

		c.Next()

		log := logger.Ctx(c.Request.Context())
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			log.Error("request failed", append(fields, zap.String("errors", c.Errors.String()))...)
			return
		}
		log.Info("request", fields...)
	}
}
