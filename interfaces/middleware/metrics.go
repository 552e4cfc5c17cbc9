package middleware

import (
	"strconv"
	"time"

	"brand-publisher/infrastructure/metrics"

	"github.com/gin-gonic/gin"
)

// Instrument records request counts and latencies per route template.
func Instrument(m *metrics.Metrics) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		handler := ctx.FullPath()
		if handler == "" {
			handler = "unmatched"
		}
		m.HTTPRequestDuration.WithLabelValues(handler, ctx.Request.Method).Observe(time.Since(start).Seconds())
		m.HTTPRequestsTotal.WithLabelValues(handler, ctx.Request.Method, strconv.Itoa(ctx.Writer.Status())).Inc()
	}
}
