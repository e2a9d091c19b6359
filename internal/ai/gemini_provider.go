package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"jdoptim/internal/config"
	jdoptimErrors "jdoptim/internal/errors"
	"jdoptim/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// GeminiProvider implements AIProvider for Google Gemini
type GeminiProvider struct {
	client         *genai.Client
	httpClient     *http.Client
	config         *config.OperationAIConfig
	circuitBreaker *AICircuitBreaker
	modelBreaker   *ModelCircuitBreaker
	logger         *jdoptimErrors.Logger
}

// Ensure GeminiProvider implements AIProvider
var _ AIProvider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance for a specific operation
func NewGeminiProvider(cfg *config.OperationAIConfig, operationType string, logger *jdoptimErrors.Logger) (*GeminiProvider, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, jdoptimErrors.NewAIError(jdoptimErrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	// Initialize circuit breaker with operation-specific configuration
	circuitBreaker := NewAICircuitBreaker(operationType, cfg, logger)
	modelBreaker := NewModelCircuitBreaker(operationType, cfg, logger)

	return &GeminiProvider{
		client: client,
		httpClient: &http.Client{
			Timeout: *cfg.Timeout,
		},
		config:         cfg,
		circuitBreaker: circuitBreaker,
		modelBreaker:   modelBreaker,
		logger:         logger,
	}, nil
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	// Create a timeout context for the model check
	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	info, err := g.modelBreaker.ExecuteModel(func() (*ModelInfo, error) {
		model, err := g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
		if err != nil {
			return nil, err
		}
		return &ModelInfo{
			Name:        g.config.Model,
			DisplayName: model.DisplayName,
			Version:     model.Version,
			Available:   true,
		}, nil
	})
	if err != nil {
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"provider", g.config.Provider,
			"error", err.Error())
		return &ModelInfo{
			Name:  g.config.Model,
			Error: fmt.Sprintf("Failed to get model info: %v", err),
		}
	}

	g.logger.Debug("Model availability check successful",
		"model", g.config.Model,
		"provider", g.config.Provider,
		"display_name", info.DisplayName,
		"version", info.Version)

	return info
}

// isRetryableError determines if an error should trigger a retry
func (g *GeminiProvider) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Check for network errors (timeouts, connection issues)
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	// Check for Google API errors (HTTP status codes)
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
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

// executeGeminiOperation is a generic helper to run Gemini operations with common tracing, circuit breaker, and parsing logic.
func executeGeminiOperation[Out any](
	g *GeminiProvider,
	ctx context.Context,
	operationName string,
	userPrompt string,
	systemPrompt string,
	genaiConfig *genai.GenerateContentConfig,
	spanAttributes ...attribute.KeyValue,
) (Out, *TokenUsage, error) {
	var output Out
	tracer := otel.Tracer("jdoptim.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+operationName)
	defer span.End()

	// Set base attributes
	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	if *g.config.UseSystemPrompts && systemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	result, err := g.circuitBreaker.Execute(func() (*completion, error) {
		return executeWithRetry(ctx, g.logger, *g.config.MaxRetries, operationName, g.isRetryableError, func() (*completion, error) {
			resp, err := g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(userPrompt), genaiConfig)
			if err != nil {
				return nil, err
			}
			return &completion{text: resp.Text(), usage: extractGeminiTokenUsage(resp)}, nil
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
func (g *GeminiProvider) EnhanceJob(ctx context.Context, input types.EnhanceJobInput) (types.EnhanceJobOutput, *TokenUsage, error) {
	systemPrompt, userPrompt := buildEnhancePrompts(g.config, input.JobDescription)
	genaiConfig := g.buildEnhanceSchema()

	output, tokenUsage, err := executeGeminiOperation[types.EnhanceJobOutput](
		g,
		ctx,
		"enhance_job",
		userPrompt,
		systemPrompt,
		genaiConfig,
		attribute.Int("input.job_length", len(input.JobDescription)),
	)

	if err != nil {
		return types.EnhanceJobOutput{}, nil, err
	}

	// Add operation-specific success metrics to the span created by the helper
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Int("output.version_count", len(output.EnhancedVersions)),
		)
	}

	return output, tokenUsage, nil
}

// RefineJob implements AIProvider interface for final version refinement
func (g *GeminiProvider) RefineJob(ctx context.Context, input types.RefineJobInput) (types.RefineJobOutput, *TokenUsage, error) {
	systemPrompt, userPrompt := buildRefinePrompts(g.config, input)
	genaiConfig := g.buildRefineSchema()

	output, tokenUsage, err := executeGeminiOperation[types.RefineJobOutput](
		g,
		ctx,
		"refine_job",
		userPrompt,
		systemPrompt,
		genaiConfig,
		attribute.Int("input.job_length", len(input.JobDescription)),
		attribute.Int("input.base_length", len(input.BaseVersion)),
		attribute.Int("input.feedback_count", len(input.Feedback)),
	)

	if err != nil {
		return types.RefineJobOutput{}, nil, err
	}

	// Add operation-specific success metrics to the span created by the helper
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Int("output.final_length", len(output.FinalVersion)),
		)
	}

	return output, tokenUsage, nil
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	stats := map[string]any{
		"ai_operations":    g.circuitBreaker.GetStats(),
		"model_operations": g.modelBreaker.GetModelStats(),
	}

	// Overall health - both breakers must be healthy
	aiHealthy := g.circuitBreaker.IsHealthy()
	modelHealthy := g.modelBreaker.IsModelHealthy()
	stats["overall_healthy"] = aiHealthy && modelHealthy

	return stats
}

// Close implements AIProvider interface
func (g *GeminiProvider) Close() error {
	// Gemini client doesn't have a Close method in current single-shot usage
	return nil
}

// buildEnhanceSchema creates the schema for enhancement requests
func (g *GeminiProvider) buildEnhanceSchema() *genai.GenerateContentConfig {
	genaiConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"enhancedVersions": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString},
				},
				"summary": {Type: genai.TypeString},
			},
			Required: []string{"enhancedVersions", "summary"},
		},
	}

	// Apply temperature configuration if set
	if *g.config.Temperature > 0 {
		genaiConfig.Temperature = g.config.Temperature
	}

	return genaiConfig
}

// buildRefineSchema creates the schema for refinement requests
func (g *GeminiProvider) buildRefineSchema() *genai.GenerateContentConfig {
	genaiConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"finalVersion":   {Type: genai.TypeString},
				"changesSummary": {Type: genai.TypeString},
			},
			Required: []string{"finalVersion", "changesSummary"},
		},
	}

	// Apply temperature configuration if set
	if *g.config.Temperature > 0 {
		genaiConfig.Temperature = g.config.Temperature
	}

	return genaiConfig
}

// modelCheckTimeout bounds health-check calls to the model metadata API.
const modelCheckTimeout = 10 * time.Second

// extractGeminiTokenUsage extracts token usage information from Gemini API response
func extractGeminiTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
