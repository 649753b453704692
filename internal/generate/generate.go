// Package generate calls the external test-generation capability. The
// pipeline depends only on the Generator interface; the OpenAI-backed
// implementation lives here.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/testsmith/testsmith/internal/config"
	"github.com/testsmith/testsmith/internal/model"
)

// Generator produces test source text for a generation request.
type Generator interface {
	Generate(ctx context.Context, req *model.GenerationRequest) (string, error)
}

// CapabilityError reports that no generation capability is available, as
// opposed to a capability that was available and failed.
type CapabilityError struct {
	Reason string
}

func (e *CapabilityError) Error() string {
	return "generation capability unavailable: " + e.Reason
}

const systemPrompt = "You are an expert software engineer who writes idiomatic, " +
	"runnable unit tests. Reply with test source code only, no commentary."

// OpenAIGenerator calls an OpenAI-compatible chat completion endpoint.
type OpenAIGenerator struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewOpenAIGenerator builds a generator from resolved configuration. A
// missing API key is a CapabilityError so callers can distinguish "not
// configured" from "failed".
func NewOpenAIGenerator(cfg *config.Config, logger *slog.Logger) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, &CapabilityError{Reason: "OPENAI_API_KEY not set"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &OpenAIGenerator{
		client:  openai.NewClientWithConfig(oc),
		model:   cfg.Model,
		timeout: cfg.GenerationTimeout(),
		logger:  logger,
	}, nil
}

// Generate renders the request into a prompt and calls the endpoint. One
// retry on transient failure (rate limit, server error, network error).
func (g *OpenAIGenerator) Generate(ctx context.Context, req *model.GenerationRequest) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(req)},
		},
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			g.logger.Warn("retrying generation after transient failure", "error", lastErr)
		}
		resp, err := g.client.CreateChatCompletion(cctx, chatReq)
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", fmt.Errorf("generation returned no choices")
			}
			return StripFences(resp.Choices[0].Message.Content), nil
		}
		lastErr = err
		if !transient(err) || cctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("generation failed: %w", lastErr)
}

// transient reports whether err is worth one retry: rate limiting, server
// errors, or transport failures. Client errors are not retried.
func transient(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
