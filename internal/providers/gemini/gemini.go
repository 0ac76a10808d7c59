// Package gemini provides Google Gemini API integration for the tip relay.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/tidwall/gjson"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"gettip/internal/core"
)

// DefaultModel is the model used when none is configured.
// "gemini-1.5-flash" is a cheaper alternative.
const DefaultModel = "gemini-pro"

// invalidKeyReason is the google.rpc.ErrorInfo reason returned for a rejected API key
const invalidKeyReason = "API_KEY_INVALID"

// Provider implements core.Generator using the Gemini API
type Provider struct {
	client *genai.Client
}

// New creates a Gemini client authorized by apiKey.
// Extra client options are appended after the key (e.g. a test endpoint).
func New(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is empty")
	}

	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Provider{client: client}, nil
}

// Connect is a core.Connector backed by New
func Connect(ctx context.Context, apiKey string) (core.Generator, error) {
	return New(ctx, apiKey)
}

// GenerateText sends prompt to model and returns the text of the first candidate
func (p *Provider) GenerateText(ctx context.Context, model, prompt string) (string, error) {
	if model == "" {
		model = DefaultModel
	}

	resp, err := p.client.GenerativeModel(model).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	return responseText(resp)
}

// Close releases the underlying client
func (p *Provider) Close() error {
	return p.client.Close()
}

// responseText concatenates the text parts of the first candidate.
// A response without text is an error.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", errors.New("empty response from Gemini API")
	}
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
			return "", fmt.Errorf("prompt was blocked: %s", resp.PromptFeedback.BlockReason)
		}
		return "", errors.New("response contained no candidates")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return "", fmt.Errorf("candidate has no content (finish reason: %s)", candidate.FinishReason)
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("candidate has no text parts (finish reason: %s)", candidate.FinishReason)
	}

	return text.String(), nil
}

// IsInvalidAPIKey reports whether err says the API key was rejected by Gemini
func IsInvalidAPIKey(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Body != "" {
		reason := gjson.Get(apiErr.Body, `error.details.#(reason=="`+invalidKeyReason+`").reason`)
		if reason.Exists() {
			return true
		}
	}

	return strings.Contains(err.Error(), "API key not valid")
}
