package logging

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AccessLog is a gin middleware that logs one entry per request.
func AccessLog(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		path := ctx.Request.URL.Path

		ctx.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":   ctx.Request.Method,
			"path":     path,
			"status":   ctx.Writer.Status(),
			"latency":  time.Since(start).String(),
			"clientIP": ctx.ClientIP(),
		})

		if len(ctx.Errors) > 0 {
			entry.Error(ctx.Errors.String())
			return
		}

		switch status := ctx.Writer.Status(); {
		case status >= 500:
			entry.Error("request failed")
		case status >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request handled")
		}
	}
}
