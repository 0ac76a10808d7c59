// Package config provides configuration management for the application.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"gettip/internal/providers/gemini"
)

// DefaultBodySizeLimit is the default maximum request body size (1MB)
const DefaultBodySizeLimit int64 = 1 << 20

// DefaultRoutePath is the path the get-tip function is served on
const DefaultRoutePath = "/.netlify/functions/get-tip"

// Config holds the application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Gemini  GeminiConfig  `yaml:"gemini"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port          string `yaml:"port"`
	RoutePath     string `yaml:"route_path"`
	BodySizeLimit int64  `yaml:"body_size_limit"`
}

// GeminiConfig holds Google Gemini-specific configuration
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// MetricsConfig holds Prometheus metrics configuration
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	// Format is auto, text or json
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

// configPath returns the YAML config file location (GETTIP_CONFIG overrides it)
func configPath() string {
	if p := os.Getenv("GETTIP_CONFIG"); p != "" {
		return p
	}
	return "config.yaml"
}

// Load reads configuration from defaults, an optional .env file, an optional
// config.yaml and the environment, in increasing order of precedence.
// A missing Gemini API key is not an error here; requests report it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := buildDefaultConfig()

	if err := applyConfigFile(cfg, configPath()); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func buildDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          "8080",
			RoutePath:     DefaultRoutePath,
			BodySizeLimit: DefaultBodySizeLimit,
		},
		Gemini: GeminiConfig{
			Model: gemini.DefaultModel,
		},
		Metrics: MetricsConfig{
			Enabled:  false,
			Endpoint: "/metrics",
		},
		Log: LogConfig{
			Format: "auto",
			Level:  "info",
		},
	}
}

// applyConfigFile merges the YAML file at path into cfg. A missing file is ignored.
func applyConfigFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expanded := expandString(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

var envPlaceholder = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// expandString replaces ${VAR} and ${VAR:-default} placeholders.
// ${VAR} without a default is left untouched when VAR is unset or empty.
func expandString(s string) string {
	if s == "" {
		return s
	}
	return envPlaceholder.ReplaceAllStringFunc(s, func(match string) string {
		parts := envPlaceholder.FindStringSubmatch(match)
		name, hasDefault, def := parts[1], parts[2] != "", parts[3]

		if val := os.Getenv(name); val != "" {
			return val
		}
		if hasDefault {
			return def
		}
		return match
	})
}

// applyEnvOverrides applies environment variables on top of cfg
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("ROUTE_PATH"); v != "" {
		cfg.Server.RoutePath = v
	}
	if v := os.Getenv("BODY_SIZE_LIMIT"); v != "" {
		limit, err := parseBodySizeLimit(v)
		if err != nil {
			return fmt.Errorf("invalid BODY_SIZE_LIMIT: %w", err)
		}
		cfg.Server.BodySizeLimit = limit
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		cfg.Gemini.Model = v
	}
	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid METRICS_ENABLED: %w", err)
		}
		cfg.Metrics.Enabled = enabled
	}
	if v := os.Getenv("METRICS_ENDPOINT"); v != "" {
		cfg.Metrics.Endpoint = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// parseBodySizeLimit accepts a byte count or a number with a K, M or G suffix
func parseBodySizeLimit(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	multiplier := int64(1)
	switch {
	case strings.HasSuffix(s, "K"):
		multiplier, s = 1<<10, strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		multiplier, s = 1<<20, strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "G"):
		multiplier, s = 1<<30, strings.TrimSuffix(s, "G")
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n * multiplier, nil
}

// Validate checks values that would otherwise fail late at startup
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server port is required")
	}
	if !strings.HasPrefix(c.Server.RoutePath, "/") {
		return fmt.Errorf("route path must start with '/': %q", c.Server.RoutePath)
	}
	if c.Server.BodySizeLimit <= 0 {
		return fmt.Errorf("body size limit must be positive: %d", c.Server.BodySizeLimit)
	}
	if c.Gemini.Model == "" {
		return errors.New("gemini model is required")
	}
	return nil
}
