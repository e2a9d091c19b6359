package cli

import (
	"fmt"

	"jdoptim/internal/ai"
	"jdoptim/internal/common"
	"jdoptim/internal/session"
	"jdoptim/internal/types"

	"github.com/spf13/cobra"
)

var refineCmd = &cobra.Command{
	Use:   "refine",
	Short: "Refine the selected version using collected feedback",
	Long: `Refine the selected enhanced version of a job description into a final
text, applying all feedback recorded in the session. The session must already
contain enhanced versions produced by the enhance command.

Use --base to pick which enhanced version to refine (this also records the
selection in the session); without it the previously selected version is used.
Refined results are cached per base version, so repeating the command without
new feedback returns the cached text. Pass --refresh to force regeneration.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if refineConfig.OutputFormat == "" {
			refineConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(refineConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runRefine,
}

var (
	refineConfig    common.CommandConfig
	refineSessionID string
	refineBase      int
	refineFinal     bool
	refineRefresh   bool
)

func init() {
	refineCmd.Flags().StringVarP(&refineConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	refineCmd.Flags().StringVar(&refineConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	refineCmd.Flags().StringVar(&refineSessionID, "session", "", "Session ID to refine (required)")
	refineCmd.Flags().IntVarP(&refineBase, "base", "b", 0, "Index of the enhanced version to refine (default: previous selection)")
	refineCmd.Flags().BoolVar(&refineFinal, "final", false, "Mark the refined version as final")
	refineCmd.Flags().BoolVar(&refineRefresh, "refresh", false, "Bypass the refinement cache and regenerate")
	_ = refineCmd.MarkFlagRequired("session")

	_ = refineCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runRefine(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	store := session.NewStore(cfg.Session.LogsDir, logger)
	mgr, err := session.Load(store, logger, refineSessionID)
	if err != nil {
		return fmt.Errorf("failed to load session %s: %w", refineSessionID, err)
	}
	doc := mgr.Session()

	if len(doc.EnhancedVersions) == 0 {
		return fmt.Errorf("session %s has no enhanced versions; run 'jdoptim enhance' first", refineSessionID)
	}

	baseIndex := -1
	if cmd.Flags().Changed("base") {
		if refineBase < 0 || refineBase >= len(doc.EnhancedVersions) {
			return fmt.Errorf("base version index %d out of range (session has %d versions)",
				refineBase, len(doc.EnhancedVersions))
		}
		mgr.Events().LogVersionSelection(refineBase)
		baseIndex = refineBase
	} else if doc.SelectedVersion != nil {
		baseIndex = *doc.SelectedVersion
	}
	if baseIndex < 0 || baseIndex >= len(doc.EnhancedVersions) {
		return fmt.Errorf("no version selected in session %s; pass --base to pick one", refineSessionID)
	}

	logger.Info("Starting job description refinement",
		"session_id", mgr.ID(),
		"base_version", baseIndex,
		"feedback_count", len(doc.FeedbackHistory),
		"final", refineFinal)

	jobID := session.DeriveJobID(doc.SelectedFile, doc.OriginalContent)

	var result types.RefineJobOutput
	var usage *ai.TokenUsage
	if cached, hit := mgr.Cache().GetFinal(jobID, baseIndex); hit && !refineRefresh {
		logger.Info("Using cached refined version", "job_id", jobID, "base_version", baseIndex)
		result = types.RefineJobOutput{FinalVersion: cached}
	} else {
		refineAIConfig := cfg.GetRefineConfig()
		aiService, err := ai.NewService(&refineAIConfig, "refine", logger)
		if err != nil {
			return fmt.Errorf("failed to create AI service: %w", err)
		}

		input := types.RefineJobInput{
			JobDescription: doc.OriginalContent,
			BaseVersion:    doc.EnhancedVersions[baseIndex],
			Feedback:       feedbackItems(doc.FeedbackHistory),
		}
		result, usage, err = aiService.Provider.RefineJob(cmd.Context(), input)
		if err != nil {
			return fmt.Errorf("failed to refine job description: %w", err)
		}
		mgr.Cache().PutFinal(jobID, baseIndex, result.FinalVersion)
	}
	mgr.Events().LogEnhancedVersion(result.FinalVersion, refineFinal)

	if usage != nil {
		logger.Info("AI token usage",
			"input_tokens", usage.InputTokens,
			"output_tokens", usage.OutputTokens,
			"total_tokens", usage.TotalTokens)
	}

	if err := common.NewOutputHandler(logger).HandleOutput(result, refineConfig); err != nil {
		return err
	}
	if refineConfig.OutputFile != "" {
		mgr.Events().LogDownload(refineConfig.OutputFormat, refineConfig.OutputFile)
	}
	logger.Info("Job description refinement completed successfully", "session_id", mgr.ID())
	return nil
}

// feedbackItems converts stored session feedback into the AI input shape.
func feedbackItems(history []session.FeedbackEntry) []types.FeedbackItem {
	items := make([]types.FeedbackItem, 0, len(history))
	for _, f := range history {
		items = append(items, types.FeedbackItem{
			Feedback: f.Feedback,
			Type:     f.Type,
			Role:     f.Role,
		})
	}
	return items
}
