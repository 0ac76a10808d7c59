package app

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gettip/config"
	"gettip/internal/core"
)

type stubGenerator struct{ text string }

func (s *stubGenerator) GenerateText(context.Context, string, string) (string, error) {
	return s.text, nil
}

func (s *stubGenerator) Close() error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:          "0",
			RoutePath:     config.DefaultRoutePath,
			BodySizeLimit: config.DefaultBodySizeLimit,
		},
		Gemini: config.GeminiConfig{APIKey: "AIza-app-test", Model: "gemini-pro"},
		Metrics: config.MetricsConfig{
			Enabled:  true,
			Endpoint: "/metrics",
		},
	}
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestNew_ServesGetTip(t *testing.T) {
	var gotKey string
	connect := func(_ context.Context, apiKey string) (core.Generator, error) {
		gotKey = apiKey
		return &stubGenerator{text: "Take a 5-minute break every hour."}, nil
	}

	a, err := New(Config{
		AppConfig: testConfig(),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Connector: connect,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, config.DefaultRoutePath, strings.NewReader(`{"prompt":"Give me a productivity tip"}`))
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tip":"Take a 5-minute break every hour."}`, rec.Body.String())
	assert.Equal(t, "AIza-app-test", gotKey)

	// Metrics are exposed and record the request
	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `gettip_requests_total{outcome="success"}`)
}

func TestNew_WarnsWithoutAPIKey(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig()
	cfg.Gemini.APIKey = ""

	_, err := New(Config{
		AppConfig: cfg,
		Logger:    slog.New(slog.NewJSONHandler(&buf, nil)),
	})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "GEMINI_API_KEY not set")
}

func TestShutdown_Idempotent(t *testing.T) {
	a, err := New(Config{
		AppConfig: testConfig(),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	require.NoError(t, a.Shutdown(context.Background()))
	require.NoError(t, a.Shutdown(context.Background()))
}
