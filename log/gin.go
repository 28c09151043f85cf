package log

import (
	"time"

	"github.com/gin-gonic/gin"
)

// hijackedKey marks a request whose connection left HTTP (WebSocket upgrade)
const hijackedKey = "connection_hijacked"

// MarkHijacked flags the request as upgraded. Room connection handlers call
// this before accepting the WebSocket so the request logger stays off the
// hijacked connection; net/http offers no way to detect hijacking after the
// fact, and touching gin's writer then would emit a spurious WriteHeader.
func MarkHijacked(c *gin.Context) {
	c.Set(hijackedKey, true)
}

// IsHijacked reports whether MarkHijacked was called for this request
func IsHijacked(c *gin.Context) bool {
	v, ok := c.Get(hijackedKey)
	return ok && v.(bool)
}

// GinLogger logs one structured line per completed request, leveled by
// status class. Upgraded connections are skipped entirely.
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		if IsHijacked(c) {
			return
		}

		status := c.Writer.Status()
		event := Info()
		switch {
		case status >= 500:
			event = Error()
		case status >= 400:
			event = Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP())

		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			event.Str("error", errs)
		}

		event.Msg("request")
	}
}
