// Package model wraps the LLM provider behind the single call the engine
// needs: system instruction plus user utterance in, free-form text out.
// Providers are wired through Genkit; the engine never sees provider
// types, only the Completer contract.
package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"golang.org/x/time/rate"

	"github.com/storeforge/storeforge/internal/config"
)

// ErrModelUnavailable wraps hard completion failures after retries are
// exhausted. Callers check it with errors.Is().
var ErrModelUnavailable = errors.New("extraction model unavailable")

// callsPerSecond bounds outbound model calls. Retries consume tokens too,
// so a burst of transient failures cannot hammer the provider.
const callsPerSecond = 2

// Client calls the configured LLM provider through Genkit.
type Client struct {
	g         *genkit.Genkit
	modelName string
	genConfig map[string]any
	retry     RetryConfig
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// New initializes Genkit with the configured provider and returns a
// Client. For gemini the GEMINI_API_KEY environment variable is read by
// the plugin itself; ollama needs explicit model registration.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		g         *genkit.Genkit
		modelName string
	)

	switch cfg.Provider {
	case config.ProviderOllama:
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g = genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)
		modelName = "ollama/" + cfg.ModelName
		logger.Info("initialized ollama provider", "model", cfg.ModelName, "host", cfg.OllamaHost)

	default: // gemini
		g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with gemini provider")
		}
		modelName = "googleai/" + cfg.ModelName
		logger.Info("initialized gemini provider", "model", cfg.ModelName)
	}

	return &Client{
		g:         g,
		modelName: modelName,
		genConfig: map[string]any{
			"temperature":     cfg.Temperature,
			"maxOutputTokens": cfg.MaxTokens,
		},
		retry:   DefaultRetryConfig(),
		limiter: rate.NewLimiter(rate.Limit(callsPerSecond), callsPerSecond),
		logger:  logger,
	}, nil
}

// Complete sends one generation request and returns the response text.
// Transient provider errors are retried with exponential backoff; hard
// failures are wrapped in ErrModelUnavailable.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.generateWithRetry(ctx, []ai.GenerateOption{
		ai.WithModelName(c.modelName),
		ai.WithSystem(system),
		ai.WithPrompt(user),
		ai.WithConfig(c.genConfig),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	return resp.Text(), nil
}
