// Package main runs the get-tip relay as an AWS Lambda compatible function,
// the runtime used by Netlify Go functions.
package main

import (
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"gettip/config"
	"gettip/internal/app"
	"gettip/internal/logging"
	"gettip/internal/serverless"
	"gettip/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		slog.Error("invalid log level", "error", err)
		os.Exit(1)
	}
	// Function runtimes capture stdout; auto resolves to JSON there.
	logger, err := logging.New(os.Stdout, cfg.Log.Format, level)
	if err != nil {
		slog.Error("failed to configure logging", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	slog.Info("starting gettip function", "version", version.Version, "commit", version.Commit)
	if cfg.Gemini.APIKey == "" {
		slog.Warn("GEMINI_API_KEY not set - every invocation will fail with a configuration error")
	}

	r := app.NewRelay(cfg, logger, nil)
	lambda.Start(serverless.NewHandler(r).Handle)
}
