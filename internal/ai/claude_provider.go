package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"jdoptim/internal/config"
	jdoptimErrors "jdoptim/internal/errors"
	"jdoptim/internal/types"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ClaudeProvider implements AIProvider for Anthropic Claude
type ClaudeProvider struct {
	client         anthropic.Client
	config         *config.OperationAIConfig
	circuitBreaker *AICircuitBreaker
	modelBreaker   *ModelCircuitBreaker
	logger         *jdoptimErrors.Logger
}

// Ensure ClaudeProvider implements AIProvider
var _ AIProvider = (*ClaudeProvider)(nil)

// NewClaudeProvider creates a new Claude provider instance for a specific operation
func NewClaudeProvider(cfg *config.OperationAIConfig, operationType string, logger *jdoptimErrors.Logger) (*ClaudeProvider, error) {
	if cfg.APIKey == "" {
		return nil, jdoptimErrors.NewConfigError(jdoptimErrors.ErrCodeMissingAPIKey,
			"Anthropic API key is required for the claude provider", nil)
	}

	client := anthropic.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(*cfg.Timeout),
	)

	return &ClaudeProvider{
		client:         client,
		config:         cfg,
		circuitBreaker: NewAICircuitBreaker(operationType, cfg, logger),
		modelBreaker:   NewModelCircuitBreaker(operationType, cfg, logger),
		logger:         logger,
	}, nil
}

// GetModelInfo checks the readiness and availability of the configured model
func (c *ClaudeProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	info, err := c.modelBreaker.ExecuteModel(func() (*ModelInfo, error) {
		model, err := c.client.Models.Get(checkCtx, c.config.Model, anthropic.ModelGetParams{})
		if err != nil {
			return nil, err
		}
		return &ModelInfo{
			Name:        c.config.Model,
			DisplayName: model.DisplayName,
			Available:   true,
		}, nil
	})
	if err != nil {
		c.logger.Warn("Model availability check failed",
			"model", c.config.Model,
			"provider", c.config.Provider,
			"error", err.Error())
		return &ModelInfo{
			Name:  c.config.Model,
			Error: fmt.Sprintf("Failed to get model info: %v", err),
		}
	}

	c.logger.Debug("Model availability check successful",
		"model", c.config.Model,
		"provider", c.config.Provider,
		"display_name", info.DisplayName)

	return info
}

// isRetryableError determines if an error should trigger a retry
func (c *ClaudeProvider) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	return false
}

// complete issues one message call and converts the response to the
// provider-neutral completion.
func (c *ClaudeProvider) complete(ctx context.Context, userPrompt, systemPrompt string) (*completion, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		MaxTokens: *c.config.MaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}
	if *c.config.UseSystemPrompts && systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemPrompt},
		}
	}
	if *c.config.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(*c.config.Temperature))
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	for _, block := range message.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(b.Text)
		}
	}

	return &completion{
		text: text.String(),
		usage: &TokenUsage{
			InputTokens:  message.Usage.InputTokens,
			OutputTokens: message.Usage.OutputTokens,
			TotalTokens:  message.Usage.InputTokens + message.Usage.OutputTokens,
		},
	}, nil
}

// executeClaudeOperation runs one Claude operation with common tracing, circuit breaker, and parsing logic.
func executeClaudeOperation[Out any](
	c *ClaudeProvider,
	ctx context.Context,
	operationName string,
	userPrompt string,
	systemPrompt string,
	spanAttributes ...attribute.KeyValue,
) (Out, *TokenUsage, error) {
	var output Out
	tracer := otel.Tracer("jdoptim.ai.claude")
	ctx, span := tracer.Start(ctx, "claude."+operationName)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "claude"),
		attribute.String("ai.model", c.config.Model),
		attribute.Float64("ai.temperature", float64(*c.config.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	result, err := c.circuitBreaker.Execute(func() (*completion, error) {
		return executeWithRetry(ctx, c.logger, *c.config.MaxRetries, operationName, c.isRetryableError, func() (*completion, error) {
			return c.complete(ctx, userPrompt, systemPrompt)
		})
	})

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, jdoptimErrors.NewAIError(jdoptimErrors.ErrCodeAIServiceFailed, "Failed to generate content for "+operationName, err)
	}

	output, err = parseCompletion[Out](result)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, jdoptimErrors.NewAIError("AI_RESPONSE_PARSE_FAILED", "Failed to parse AI response for "+operationName, err)
	}

	if result.usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", result.usage.InputTokens),
			attribute.Int64("ai.tokens.output", result.usage.OutputTokens),
			attribute.Int64("ai.tokens.total", result.usage.TotalTokens),
		)
	}

	span.SetAttributes(attribute.Bool("success", true))
	return output, result.usage, nil
}

// EnhanceJob implements AIProvider interface for job description enhancement
func (c *ClaudeProvider) EnhanceJob(ctx context.Context, input types.EnhanceJobInput) (types.EnhanceJobOutput, *TokenUsage, error) {
	systemPrompt, userPrompt := buildEnhancePrompts(c.config, input.JobDescription)

	// Claude has no server-side response schema; the user prompt pins the
	// JSON shape instead.
	userPrompt += "\n\nRespond with a JSON object only: {\"enhancedVersions\": [\"...\", \"...\", \"...\"], \"summary\": \"...\"}"

	output, tokenUsage, err := executeClaudeOperation[types.EnhanceJobOutput](
		c,
		ctx,
		"enhance_job",
		userPrompt,
		systemPrompt,
		attribute.Int("input.job_length", len(input.JobDescription)),
	)

	if err != nil {
		return types.EnhanceJobOutput{}, nil, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Int("output.version_count", len(output.EnhancedVersions)),
		)
	}

	return output, tokenUsage, nil
}

// RefineJob implements AIProvider interface for final version refinement
func (c *ClaudeProvider) RefineJob(ctx context.Context, input types.RefineJobInput) (types.RefineJobOutput, *TokenUsage, error) {
	systemPrompt, userPrompt := buildRefinePrompts(c.config, input)
	userPrompt += "\n\nRespond with a JSON object only: {\"finalVersion\": \"...\", \"changesSummary\": \"...\"}"

	output, tokenUsage, err := executeClaudeOperation[types.RefineJobOutput](
		c,
		ctx,
		"refine_job",
		userPrompt,
		systemPrompt,
		attribute.Int("input.job_length", len(input.JobDescription)),
		attribute.Int("input.base_length", len(input.BaseVersion)),
		attribute.Int("input.feedback_count", len(input.Feedback)),
	)

	if err != nil {
		return types.RefineJobOutput{}, nil, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Int("output.final_length", len(output.FinalVersion)),
		)
	}

	return output, tokenUsage, nil
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (c *ClaudeProvider) GetCircuitBreakerStats() map[string]any {
	stats := map[string]any{
		"ai_operations":    c.circuitBreaker.GetStats(),
		"model_operations": c.modelBreaker.GetModelStats(),
	}

	stats["overall_healthy"] = c.circuitBreaker.IsHealthy() && c.modelBreaker.IsModelHealthy()

	return stats
}

// Close implements AIProvider interface
func (c *ClaudeProvider) Close() error {
	return nil
}
