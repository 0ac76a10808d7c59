package config

import (
	"os"
	"path/filepath"
	"testing"

	"gettip/internal/providers/gemini"
)

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Gemini.Model != gemini.DefaultModel {
		t.Errorf("expected default model gemini-pro, got %s", cfg.Gemini.Model)
	}
	if cfg.Gemini.Model != "gemini-pro" {
		t.Errorf("expected default model gemini-pro, got %s", cfg.Gemini.Model)
	}
}

func TestLoad_MissingAPIKeyIsNotAnError(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Gemini.APIKey != "" {
		t.Errorf("expected empty API key, got %q", cfg.Gemini.APIKey)
	}
}

func TestLoad_APIKeyFromEnv(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())
	t.Setenv("GEMINI_API_KEY", "AIza-from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Gemini.APIKey != "AIza-from-env" {
		t.Errorf("expected API key from env, got %q", cfg.Gemini.APIKey)
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	chdir(t, dir)
	// godotenv never overrides a variable that exists, even when empty.
	// clearEnv registered a restore, so unsetting here is undone after the test.
	_ = os.Unsetenv("GEMINI_MODEL")

	writeFile(t, filepath.Join(dir, ".env"), "GEMINI_MODEL=gemini-1.5-flash\n")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Gemini.Model != "gemini-1.5-flash" {
		t.Errorf("expected model from .env, got %q", cfg.Gemini.Model)
	}
}

func TestLoad_ConfigFileWithDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	chdir(t, dir)

	writeFile(t, filepath.Join(dir, "config.yaml"), `
server:
  port: "${TEST_PORT_DEFAULTS:-9999}"
  route_path: /api/get-tip
gemini:
  model: "${TEST_MODEL_DEFAULTS:-gemini-1.5-flash}"
metrics:
  enabled: true
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != "9999" {
		t.Errorf("expected port 9999 (default), got %s", cfg.Server.Port)
	}
	if cfg.Server.RoutePath != "/api/get-tip" {
		t.Errorf("expected route /api/get-tip, got %s", cfg.Server.RoutePath)
	}
	if cfg.Gemini.Model != "gemini-1.5-flash" {
		t.Errorf("expected model gemini-1.5-flash, got %s", cfg.Gemini.Model)
	}
	if !cfg.Metrics.Enabled {
		t.Error("expected metrics enabled from config file")
	}
	// Unset keys keep their defaults
	if cfg.Server.BodySizeLimit != DefaultBodySizeLimit {
		t.Errorf("expected default body size limit, got %d", cfg.Server.BodySizeLimit)
	}
}

func TestLoad_EnvOverridesConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("PORT", "1111")

	writeFile(t, filepath.Join(dir, "config.yaml"), "server:\n  port: \"9999\"\n")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Server.Port != "1111" {
		t.Errorf("expected port 1111 (env override), got %s", cfg.Server.Port)
	}
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	chdir(t, t.TempDir())

	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, "gemini:\n  model: gemini-custom\n")
	t.Setenv("GETTIP_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Gemini.Model != "gemini-custom" {
		t.Errorf("expected model from custom config, got %s", cfg.Gemini.Model)
	}
}

func TestLoad_InvalidConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	chdir(t, dir)

	writeFile(t, filepath.Join(dir, "config.yaml"), "server: [unclosed\n")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty port", func(c *Config) { c.Server.Port = "" }, true},
		{"relative route", func(c *Config) { c.Server.RoutePath = "get-tip" }, true},
		{"zero body limit", func(c *Config) { c.Server.BodySizeLimit = 0 }, true},
		{"empty model", func(c *Config) { c.Gemini.Model = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := buildDefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
