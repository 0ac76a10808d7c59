package server

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"gettip/internal/core"
)

// RequestIDMiddleware makes sure every request carries an X-Request-ID.
// A client-supplied ID is kept; otherwise a UUID is generated. The ID is
// echoed in the response and stored in the request context.
func RequestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
				req.Header.Set(echo.HeaderXRequestID, requestID)
			}
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			c.SetRequest(req.WithContext(core.WithRequestID(req.Context(), requestID)))
			return next(c)
		}
	}
}
