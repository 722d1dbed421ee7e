package middleware

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/muzz-match/internal/logger"
)

var sensitiveKeys = map[string]struct{}{
	"password": {}, "token": {}, "authorization": {},
	"pagination_token": {}, "secret": {},
}

func maskQuery(kv map[string][]string) map[string][]string {
	out := make(map[string][]string, len(kv))
	for k, v := range kv {
		if _, ok := sensitiveKeys[strings.ToLower(k)]; ok {
			out[k] = []string{"****"}
			continue
		}
		out[k] = v
	}
	return out
}

// AccessLog writes one summary line per request.
func AccessLog(l *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= 500 {
			level = slog.LevelError
		}
		logger.FromContext(c.Request.Context(), l).Log(c.Request.Context(), level, "HTTP",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			logger.Since(start),
			"ip", c.ClientIP(),
			"query", maskQuery(c.Request.URL.Query()),
			"size", c.Writer.Size(),
		)
	}
}
