package logger

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const headerRequestID = "X-Request-ID"

// EchoMiddleware tags every request with a request id, stores a child
// logger in the request context and logs the completed request.
func EchoMiddleware(base zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			reqID := req.Header.Get(headerRequestID)
			if reqID == "" {
				reqID = uuid.New().String()
			}

			child := base.With().
				Str(FieldRequestID, reqID).
				Str(FieldMethod, req.Method).
				Str(FieldPath, c.Path()).
				Str(FieldClientIP, c.RealIP()).
				Logger()

			c.Response().Header().Set(headerRequestID, reqID)
			c.SetRequest(req.WithContext(WithLogger(req.Context(), child)))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			evt := child.Info()
			if c.Response().Status >= 500 {
				evt = child.Error().Err(err)
			}
			evt = evt.
				Int(FieldStatus, c.Response().Status).
				Float64(FieldLatency, float64(time.Since(start).Microseconds())/1000)
			if uid, ok := c.Get(FieldUserID).(uint); ok {
				evt = evt.Uint(FieldUserID, uid)
			}
			evt.Msg("request completed")

			return nil
		}
	}
}
