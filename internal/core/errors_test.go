package core

import (
	"errors"
	"net/http"
	"testing"
)

func TestRelayError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *RelayError
		expected string
	}{
		{
			name:     "error with details",
			err:      NewUpstreamError(errors.New("boom")),
			expected: "upstream_error: Failed to generate tip: boom",
		},
		{
			name:     "error without details",
			err:      NewValidationError(nil),
			expected: "validation_error: Prompt is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRelayError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	relayErr := NewUpstreamError(originalErr)

	if unwrapped := relayErr.Unwrap(); unwrapped != originalErr {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, originalErr)
	}
	if !errors.Is(relayErr, originalErr) {
		t.Error("errors.Is should find the original error")
	}
}

func TestRelayError_HTTPStatusCode(t *testing.T) {
	tests := []struct {
		name     string
		err      *RelayError
		expected int
	}{
		{"method", NewMethodNotAllowedError(http.MethodGet), http.StatusMethodNotAllowed},
		{"validation", NewValidationError(nil), http.StatusBadRequest},
		{"configuration", NewConfigurationError(nil), http.StatusInternalServerError},
		{"upstream", NewUpstreamError(errors.New("x")), http.StatusInternalServerError},
		{"unknown kind", &RelayError{Kind: "mystery"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.HTTPStatusCode(); got != tt.expected {
				t.Errorf("HTTPStatusCode() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestRelayError_ToJSON(t *testing.T) {
	tests := []struct {
		name     string
		err      *RelayError
		expected map[string]string
	}{
		{
			name:     "method",
			err:      NewMethodNotAllowedError(http.MethodPut),
			expected: map[string]string{"error": "Method Not Allowed"},
		},
		{
			name:     "validation",
			err:      NewValidationError(nil),
			expected: map[string]string{"error": "Prompt is required"},
		},
		{
			name:     "configuration hides internal detail",
			err:      NewConfigurationError(errors.New("GEMINI_API_KEY is not set")),
			expected: map[string]string{"error": "Server configuration error: Gemini API Key is missing. Please contact support."},
		},
		{
			name:     "upstream exposes fault message",
			err:      NewUpstreamError(errors.New("quota exceeded")),
			expected: map[string]string{"error": "Failed to generate tip", "details": "quota exceeded"},
		},
		{
			name:     "upstream with nil fault keeps details key",
			err:      NewUpstreamError(nil),
			expected: map[string]string{"error": "Failed to generate tip", "details": ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.ToJSON()
			if len(got) != len(tt.expected) {
				t.Fatalf("ToJSON() = %v, want %v", got, tt.expected)
			}
			for k, v := range tt.expected {
				if got[k] != v {
					t.Errorf("ToJSON()[%q] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestAsRelayError(t *testing.T) {
	t.Run("keeps relay errors", func(t *testing.T) {
		original := NewValidationError(nil)
		wrapped := errors.Join(errors.New("context"), original)

		if got := AsRelayError(wrapped); got != original {
			t.Errorf("AsRelayError() = %v, want %v", got, original)
		}
	})

	t.Run("plain errors become upstream errors", func(t *testing.T) {
		got := AsRelayError(errors.New("connection reset"))
		if got.Kind != ErrorKindUpstream {
			t.Errorf("Kind = %q, want %q", got.Kind, ErrorKindUpstream)
		}
		if got.Details != "connection reset" {
			t.Errorf("Details = %q, want %q", got.Details, "connection reset")
		}
	})
}
