package ai

import (
	"context"

	"jdoptim/internal/types"
)

// AIProvider interface for different AI implementations
// All methods return token usage information - callers can ignore it if not needed
type AIProvider interface {
	EnhanceJob(ctx context.Context, input types.EnhanceJobInput) (types.EnhanceJobOutput, *TokenUsage, error)
	RefineJob(ctx context.Context, input types.RefineJobInput) (types.RefineJobOutput, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	GetCircuitBreakerStats() map[string]any
	Close() error
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// completion is the provider-neutral result of one model call: the raw text
// payload plus token accounting. Providers convert their SDK responses into
// this so the retry and circuit breaker layers stay provider-agnostic.
type completion struct {
	text  string
	usage *TokenUsage
}
