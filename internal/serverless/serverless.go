// Package serverless adapts the tip relay to the AWS Lambda API Gateway
// proxy protocol, which Netlify Go functions also use.
package serverless

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"gettip/internal/core"
)

// TipRelay turns one get-tip invocation into one response
type TipRelay interface {
	Handle(ctx context.Context, req core.TipRequest) core.TipResponse
}

// Handler serves API Gateway proxy events
type Handler struct {
	relay TipRelay
}

// NewHandler creates a Lambda handler around relay
func NewHandler(relay TipRelay) *Handler {
	return &Handler{relay: relay}
}

// Handle converts the event, runs the relay and converts the response back.
// The returned error is always nil: failures are JSON error responses.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	ctx = core.WithRequestID(ctx, requestID(event))

	body, err := eventBody(event)
	if err != nil {
		return toProxyResponse(core.NewErrorResponse(core.NewUpstreamError(err))), nil
	}

	resp := h.relay.Handle(ctx, core.TipRequest{
		Method: strings.ToUpper(event.HTTPMethod),
		Body:   body,
	})
	return toProxyResponse(resp), nil
}

// requestID prefers the gateway's ID, then a client X-Request-ID header
func requestID(event events.APIGatewayProxyRequest) string {
	if event.RequestContext.RequestID != "" {
		return event.RequestContext.RequestID
	}
	for key, value := range event.Headers {
		if strings.EqualFold(key, "X-Request-ID") && value != "" {
			return value
		}
	}
	return uuid.NewString()
}

func eventBody(event events.APIGatewayProxyRequest) ([]byte, error) {
	if !event.IsBase64Encoded {
		return []byte(event.Body), nil
	}
	body, err := base64.StdEncoding.DecodeString(event.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 request body: %w", err)
	}
	return body, nil
}

func toProxyResponse(resp core.TipResponse) events.APIGatewayProxyResponse {
	body, err := resp.MarshalBody()
	if err != nil {
		resp = core.NewErrorResponse(core.NewUpstreamError(err))
		body, _ = resp.MarshalBody()
	}

	headers := make(map[string]string, len(resp.Headers))
	for k, v := range resp.Headers {
		headers[k] = v
	}
	if _, ok := headers["Content-Type"]; !ok {
		headers["Content-Type"] = core.ContentTypeJSON
	}

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    headers,
		Body:       string(body),
	}
}
