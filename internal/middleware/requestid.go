package middleware

import (
	"time"

	"github.com/fox-gonic/fox"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-Id"

// RequestID reuses the caller's request id or assigns a new one, and echoes
// it in the response.
func RequestID(c *fox.Context) {
	id := c.Request.Header.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set("request_id", id)
	c.Writer.Header().Set(RequestIDHeader, id)
	c.Next()
}

// AccessLog writes one zerolog line per request.
func AccessLog(c *fox.Context) {
	start := time.Now()
	c.Next()

	status := c.Writer.Status()
	evt := log.Info()
	if status >= 500 {
		evt = log.Error()
	} else if status >= 400 {
		evt = log.Warn()
	}
	evt.
		Str("request_id", c.GetString("request_id")).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Int("status", status).
		Dur("elapsed", time.Since(start)).
		Msg("http request")
}
