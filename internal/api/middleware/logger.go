package middleware

import (
	"time"

	"neighborgrid/internal/logger"

	"github.com/gin-gonic/gin"
)

// Logger logs one line per request
func Logger(log logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.NopLogger{}
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		line := "%s %s -> %d (%s)"
		args := []any{c.Request.Method, c.Request.URL.Path, status, time.Since(start)}
		switch {
		case status >= 500:
			log.Errorf(line, args...)
		case status >= 400:
			log.Warnf(line, args...)
		default:
			log.Infof(line, args...)
		}
	}
}
