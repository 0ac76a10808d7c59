// Package core defines the core interfaces and types for the tip relay.
package core

import "context"

// Generator produces text from a prompt using an upstream generative model
type Generator interface {
	// GenerateText sends prompt as the sole input to model and returns the generated text
	GenerateText(ctx context.Context, model, prompt string) (string, error)

	// Close releases the underlying client
	Close() error
}

// Connector opens a Generator authorized by apiKey.
// A Generator is opened per invocation and closed when it completes.
type Connector func(ctx context.Context, apiKey string) (Generator, error)
