// Package server provides HTTP handlers and server setup for the tip relay.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"gettip/internal/core"
)

// TipRelay turns one get-tip invocation into one response
type TipRelay interface {
	Handle(ctx context.Context, req core.TipRequest) core.TipResponse
}

// Handler holds the HTTP handlers
type Handler struct {
	relay TipRelay
}

// NewHandler creates a new handler with the given relay
func NewHandler(relay TipRelay) *Handler {
	return &Handler{
		relay: relay,
	}
}

// GetTip handles any method on the get-tip route
func (h *Handler) GetTip(c echo.Context) error {
	req := c.Request()

	body, err := io.ReadAll(req.Body)
	if err != nil {
		// Body limit violations are reported by echo as 413
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return err
		}
		return writeTipResponse(c, core.NewErrorResponse(
			core.NewUpstreamError(fmt.Errorf("failed to read request body: %w", err)),
		))
	}

	resp := h.relay.Handle(req.Context(), core.TipRequest{
		Method: req.Method,
		Body:   body,
	})
	return writeTipResponse(c, resp)
}

// Health handles GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func writeTipResponse(c echo.Context, resp core.TipResponse) error {
	body, err := resp.MarshalBody()
	if err != nil {
		return err
	}

	contentType := core.ContentTypeJSON
	for key, value := range resp.Headers {
		if key == echo.HeaderContentType {
			contentType = value
			continue
		}
		c.Response().Header().Set(key, value)
	}

	return c.Blob(resp.StatusCode, contentType, body)
}
