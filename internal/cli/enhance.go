package cli

import (
	"context"
	"fmt"

	"jdoptim/internal/ai"
	"jdoptim/internal/common"
	"jdoptim/internal/session"
	"jdoptim/internal/types"
	"jdoptim/internal/utils"

	"github.com/spf13/cobra"
)

var enhanceCmd = &cobra.Command{
	Use:   "enhance [jd-file]",
	Short: "Generate enhanced versions of a job description",
	Long: `Generate multiple enhanced candidate versions of a job description using AI.
The command takes one argument: the path to the job description file in plain
text or markdown format. Results are cached per job description, so running
the command again on unchanged content returns the same versions without
another AI call. Pass --refresh to force regeneration.

The command records every step in a session. Use --session to continue an
existing session, otherwise a new one is created and its ID printed.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if enhanceConfig.OutputFormat == "" {
			enhanceConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(enhanceConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runEnhance,
}

var (
	enhanceConfig    common.CommandConfig
	enhanceSessionID string
	enhanceUsername  string
	enhanceRefresh   bool
)

func init() {
	enhanceCmd.Flags().StringVarP(&enhanceConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	enhanceCmd.Flags().StringVar(&enhanceConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	enhanceCmd.Flags().StringVar(&enhanceSessionID, "session", "", "Session ID to continue (default: start a new session)")
	enhanceCmd.Flags().StringVar(&enhanceUsername, "username", "", "Username recorded in the session (default from config)")
	enhanceCmd.Flags().BoolVar(&enhanceRefresh, "refresh", false, "Bypass the version cache and regenerate")

	// Add completion for format flag
	_ = enhanceCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runEnhance(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	username := enhanceUsername
	if username == "" {
		username = cfg.App.DefaultUsername
	}

	store := session.NewStore(cfg.Session.LogsDir, logger)
	mgr, err := session.LoadOrNew(store, logger, enhanceSessionID, username)
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	if enhanceSessionID == "" {
		logger.Info("Started new session", "session_id", mgr.ID())
	}

	// Create AI service for enhance operation
	enhanceAIConfig := cfg.GetEnhanceConfig()
	aiService, err := ai.NewService(&enhanceAIConfig, "enhance", logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}

	fileName := args[0]
	if err := utils.ValidateFileSize(fileName, cfg.App.MaxFileSize); err != nil {
		return err
	}

	createInput := func(contents []string) (types.EnhanceJobInput, error) {
		if len(contents) != 1 {
			return types.EnhanceJobInput{}, fmt.Errorf("expected 1 file path, got %d", len(contents))
		}
		return types.EnhanceJobInput{
			JobDescription: contents[0],
			FileName:       fileName,
		}, nil
	}

	logDetails := func(input types.EnhanceJobInput, cfg common.CommandConfig) {
		logger.Info("Starting job description enhancement",
			"file", input.FileName,
			"job_chars", len(input.JobDescription),
			"output_format", cfg.OutputFormat)
	}

	// The operation consults the session's version cache before calling the
	// AI provider and records the result in the audit trail either way.
	enhanceOperation := func(ctx context.Context, input types.EnhanceJobInput) (types.EnhanceJobOutput, *ai.TokenUsage, error) {
		mgr.Events().LogFileSelection(input.FileName, input.JobDescription)
		jobID := session.DeriveJobID(input.FileName, input.JobDescription)

		if !enhanceRefresh {
			if versions, hit := mgr.Cache().GetVersions(jobID); hit {
				logger.Info("Using cached enhanced versions", "job_id", jobID, "version_count", len(versions))
				mgr.Events().LogVersionsGenerated(versions)
				return types.EnhanceJobOutput{EnhancedVersions: versions}, nil, nil
			}
		}

		result, usage, err := aiService.Provider.EnhanceJob(ctx, input)
		if err != nil {
			return result, usage, err
		}
		mgr.Cache().PutVersions(jobID, result.EnhancedVersions)
		mgr.Events().LogVersionsGenerated(result.EnhancedVersions)
		return result, usage, nil
	}

	err = common.RunAICommand(
		cmd.Context(),
		logger,
		enhanceConfig,
		args,
		createInput,
		enhanceOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to enhance job description: %w", err)
	}
	if enhanceConfig.OutputFile != "" {
		mgr.Events().LogDownload(enhanceConfig.OutputFormat, enhanceConfig.OutputFile)
	}
	logger.Info("Job description enhancement completed successfully", "session_id", mgr.ID())
	return nil
}
