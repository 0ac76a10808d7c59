// Package relay implements the get-tip handler: it validates a prompt,
// forwards it to the Gemini API and turns the outcome into a JSON response.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"gettip/internal/core"
	"gettip/internal/providers/gemini"
)

// Config holds the values the relay needs at call time
type Config struct {
	// APIKey authorizes Gemini API calls. An empty key is reported per request
	// as a configuration error.
	APIKey string
	// Model is the Gemini model identifier (default: gemini.DefaultModel)
	Model string
}

// Hooks observes relay events. Implementations must be safe for concurrent use.
type Hooks interface {
	RequestCompleted(outcome string)
	UpstreamCompleted(model string, elapsed time.Duration, err error, invalidKey bool)
}

// Outcome labels reported to Hooks.RequestCompleted
const (
	OutcomeSuccess = "success"
)

// Relay handles get-tip invocations. It holds no per-request state and is
// safe for concurrent use.
type Relay struct {
	cfg     Config
	connect core.Connector
	logger  *slog.Logger
	hooks   Hooks
	now     func() time.Time
}

// Option configures a Relay
type Option func(*Relay)

// WithLogger sets the logger (default: slog.Default())
func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithHooks sets the metrics hooks
func WithHooks(hooks Hooks) Option {
	return func(r *Relay) {
		r.hooks = hooks
	}
}

// New creates a relay that opens upstream generators with connect
func New(cfg Config, connect core.Connector, opts ...Option) *Relay {
	if cfg.Model == "" {
		cfg.Model = gemini.DefaultModel
	}
	r := &Relay{
		cfg:     cfg,
		connect: connect,
		logger:  slog.Default(),
		hooks:   noopHooks{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Model returns the configured model identifier
func (r *Relay) Model() string {
	return r.cfg.Model
}

// Handle produces exactly one response for req. Failures, including panics,
// are converted into JSON error responses.
func (r *Relay) Handle(ctx context.Context, req core.TipRequest) (resp core.TipResponse) {
	logger := r.logger
	if requestID := core.GetRequestID(ctx); requestID != "" {
		logger = logger.With("request_id", requestID)
	}
	logger.Info("get-tip invocation started", "started_at", r.now().UTC().Format(time.RFC3339Nano))

	defer func() {
		if p := recover(); p != nil {
			relayErr := core.NewUpstreamError(fmt.Errorf("panic: %v", p))
			logger.Error("get-tip invocation panicked", "panic", p)
			resp = r.fail(relayErr)
		}
	}()

	text, err := r.generate(ctx, logger, req)
	if err != nil {
		return r.fail(core.AsRelayError(err))
	}

	r.hooks.RequestCompleted(OutcomeSuccess)
	return core.NewTipResponse(text)
}

func (r *Relay) fail(err *core.RelayError) core.TipResponse {
	r.hooks.RequestCompleted(string(err.Kind))
	return core.NewErrorResponse(err)
}

// generate runs the pipeline up to the upstream call. Every returned error is
// a *core.RelayError.
func (r *Relay) generate(ctx context.Context, logger *slog.Logger, req core.TipRequest) (string, error) {
	if req.Method != http.MethodPost {
		logger.Info("method not allowed", "method", req.Method)
		return "", core.NewMethodNotAllowedError(req.Method)
	}

	value, err := parsePrompt(req.Body)
	if err != nil {
		var relayErr *core.RelayError
		if errors.As(err, &relayErr) {
			logger.Info("prompt is required")
		} else {
			logger.Error("failed to parse request body", "error", err)
		}
		return "", core.AsRelayError(err)
	}
	logger.Info("received prompt", "prompt", promptLogValue(value))

	keyPresent := r.cfg.APIKey != ""
	logger.Info("resolving Gemini API key", "key_present", keyPresent)
	if !keyPresent {
		logger.Error("GEMINI_API_KEY is not set; the relay cannot call the Gemini API")
		return "", core.NewConfigurationError(errors.New("GEMINI_API_KEY is not set"))
	}

	prompt, err := promptText(value)
	if err != nil {
		logger.Error("unsupported prompt", "error", err)
		return "", core.NewUpstreamError(err)
	}

	text, err := r.callUpstream(ctx, logger, prompt)
	if err != nil {
		logger.Error("failed to generate tip", "error", err)
		if gemini.IsInvalidAPIKey(err) {
			logger.Error("Gemini API rejected the API key; check GEMINI_API_KEY")
		}
		return "", core.NewUpstreamError(err)
	}

	logger.Info("Gemini API call successful", "model", r.cfg.Model, "text_length", len(text))
	return text, nil
}

func (r *Relay) callUpstream(ctx context.Context, logger *slog.Logger, prompt string) (text string, err error) {
	generator, err := r.connect(ctx, r.cfg.APIKey)
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := generator.Close(); closeErr != nil {
			logger.Warn("failed to close Gemini client", "error", closeErr)
		}
	}()

	logger.Info("calling Gemini API", "model", r.cfg.Model)
	start := r.now()
	text, err = generator.GenerateText(ctx, r.cfg.Model, prompt)
	r.hooks.UpstreamCompleted(r.cfg.Model, r.now().Sub(start), err, err != nil && gemini.IsInvalidAPIKey(err))
	return text, err
}

// parsePrompt returns the "prompt" member of a JSON body. Syntax errors and
// a null body are returned as plain errors (upstream faults). A prompt that is
// missing or falsy (null, false, 0, "") is a validation error. When the key
// repeats, the last occurrence wins.
func parsePrompt(body []byte) (gjson.Result, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return gjson.Result{}, err
	}
	if doc == nil {
		return gjson.Result{}, errors.New("cannot read property 'prompt' of null request body")
	}

	var prompt gjson.Result
	root := gjson.ParseBytes(body)
	if root.IsObject() {
		root.ForEach(func(key, value gjson.Result) bool {
			if key.Str == "prompt" {
				prompt = value
			}
			return true
		})
	}

	if !truthy(prompt) {
		return gjson.Result{}, core.NewValidationError(fmt.Errorf("prompt is %s", describe(prompt)))
	}
	return prompt, nil
}

// truthy follows JavaScript truthiness for JSON values
func truthy(v gjson.Result) bool {
	switch v.Type {
	case gjson.String:
		return v.Str != ""
	case gjson.Number:
		return v.Num != 0
	case gjson.True, gjson.JSON:
		return true
	default:
		return false
	}
}

func describe(v gjson.Result) string {
	if !v.Exists() {
		return "missing"
	}
	return "falsy (" + v.Raw + ")"
}

// promptText converts a present prompt into the text sent upstream. Arrays of
// strings are joined with newlines; any other non-string value is rejected.
func promptText(v gjson.Result) (string, error) {
	if v.Type == gjson.String {
		return v.Str, nil
	}
	if v.IsArray() {
		items := v.Array()
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if item.Type != gjson.String {
				break
			}
			parts = append(parts, item.Str)
		}
		if len(items) > 0 && len(parts) == len(items) {
			return strings.Join(parts, "\n"), nil
		}
	}
	return "", fmt.Errorf("prompt must be a string or an array of strings, got %s", v.Raw)
}

func promptLogValue(v gjson.Result) string {
	if v.Type == gjson.String {
		return v.Str
	}
	return v.Raw
}

type noopHooks struct{}

func (noopHooks) RequestCompleted(string) {}

func (noopHooks) UpstreamCompleted(string, time.Duration, error, bool) {}
