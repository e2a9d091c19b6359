package ai

import (
	"fmt"
	"strings"

	"jdoptim/internal/config"
	"jdoptim/internal/types"
)

// systemPromptFor returns the system prompt for an operation, preferring
// file-loaded content, then config, then the built-in default.
func systemPromptFor(cfg *config.OperationAIConfig, operationType string) string {
	loadedPrompts := config.GetPromptsForOperation(operationType)
	configPrompts := cfg.CustomPrompts.SystemPrompts

	switch operationType {
	case "enhance":
		return resolvePrompt(
			loadedPrompts.SystemPrompts.EnhanceJob,
			configPrompts.EnhanceJob,
			DefaultSystemPrompts.EnhanceJob,
		)
	case "refine":
		return resolvePrompt(
			loadedPrompts.SystemPrompts.RefineJob,
			configPrompts.RefineJob,
			DefaultSystemPrompts.RefineJob,
		)
	default:
		return ""
	}
}

// userPromptFor returns the user prompt template for an operation with the
// same priority order as systemPromptFor.
func userPromptFor(cfg *config.OperationAIConfig, operationType string) string {
	loadedPrompts := config.GetPromptsForOperation(operationType)
	configPrompts := cfg.CustomPrompts.UserPrompts

	switch operationType {
	case "enhance":
		return resolvePrompt(
			loadedPrompts.UserPrompts.EnhanceJob,
			configPrompts.EnhanceJob,
			DefaultUserPrompts.EnhanceJob,
		)
	case "refine":
		return resolvePrompt(
			loadedPrompts.UserPrompts.RefineJob,
			configPrompts.RefineJob,
			DefaultUserPrompts.RefineJob,
		)
	default:
		return ""
	}
}

// resolvePrompt selects the correct prompt string based on a clear priority order:
// 1. A prompt loaded from a file.
// 2. A prompt defined directly in the configuration.
// 3. A hardcoded default prompt.
func resolvePrompt(loadedFromFile, fromConfig, fromDefault string) string {
	if loadedFromFile != "" {
		return loadedFromFile
	}
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}

// buildEnhancePrompts returns system and user prompts for enhancement
func buildEnhancePrompts(cfg *config.OperationAIConfig, jobDescription string) (string, string) {
	systemPrompt := systemPromptFor(cfg, "enhance")
	userPrompt := fmt.Sprintf(userPromptFor(cfg, "enhance"), jobDescription)
	return systemPrompt, userPrompt
}

// buildRefinePrompts returns system and user prompts for refinement
func buildRefinePrompts(cfg *config.OperationAIConfig, input types.RefineJobInput) (string, string) {
	systemPrompt := systemPromptFor(cfg, "refine")
	userPrompt := fmt.Sprintf(userPromptFor(cfg, "refine"),
		input.JobDescription, input.BaseVersion, formatFeedback(input.Feedback))
	return systemPrompt, userPrompt
}

// formatFeedback renders feedback items as a numbered list for the prompt.
func formatFeedback(items []types.FeedbackItem) string {
	if len(items) == 0 {
		return "No specific feedback provided. Polish the selected draft for publication."
	}

	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "%d. [%s]", i+1, item.Type)
		if item.Role != "" {
			fmt.Fprintf(&b, " (from %s)", item.Role)
		}
		fmt.Fprintf(&b, " %s\n", item.Feedback)
	}
	return strings.TrimRight(b.String(), "\n")
}
