package core

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// ContentTypeJSON is set on every relay response
const ContentTypeJSON = "application/json"

// TipRequest is the transport-independent view of one invocation
type TipRequest struct {
	Method string
	Body   []byte
}

// TipResponse is the transport-independent response produced for a TipRequest
type TipResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       map[string]string
}

// NewTipResponse returns a 200 response carrying the generated text
func NewTipResponse(text string) TipResponse {
	return newJSONResponse(http.StatusOK, map[string]string{"tip": text})
}

// NewErrorResponse returns the response describing err
func NewErrorResponse(err *RelayError) TipResponse {
	return newJSONResponse(err.HTTPStatusCode(), err.ToJSON())
}

func newJSONResponse(status int, body map[string]string) TipResponse {
	return TipResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": ContentTypeJSON},
		Body:       body,
	}
}

// MarshalBody encodes the response body as compact JSON.
// HTML characters in generated text are kept as-is.
func (r TipResponse) MarshalBody() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r.Body); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
