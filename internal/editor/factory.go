package editor

import (
	"context"

	"pixed/internal/ai"
	"pixed/internal/ai/gemini"
	"pixed/internal/config"
)

// ServiceFactory builds the AI services for an editor.
// This allows for dependency injection in tests
type ServiceFactory func(ctx context.Context, cfg config.AI) (ai.BackgroundRemover, ai.Generator, error)

// DefaultServiceFactory connects to Gemini using the configured API key.
var DefaultServiceFactory ServiceFactory = func(ctx context.Context, cfg config.AI) (ai.BackgroundRemover, ai.Generator, error) {
	client, err := gemini.New(ctx, "", cfg)
	if err != nil {
		return nil, nil, err
	}
	return client, client, nil
}

// CurrentServiceFactory is the currently active factory
// This can be swapped in tests
var CurrentServiceFactory = DefaultServiceFactory

// SetServiceFactory sets a custom service factory for dependency injection
func SetServiceFactory(factory ServiceFactory) {
	CurrentServiceFactory = factory
}

// ResetServiceFactory resets to the default service factory
func ResetServiceFactory() {
	CurrentServiceFactory = DefaultServiceFactory
}
