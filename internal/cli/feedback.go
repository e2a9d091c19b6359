package cli

import (
	"fmt"
	"strings"
	"time"

	"jdoptim/internal/session"

	"github.com/spf13/cobra"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback [feedback-text]",
	Short: "Record reviewer feedback in a session",
	Long: `Record a piece of reviewer feedback in an optimization session. The
feedback is applied the next time the refine command runs. Identical feedback
text is only recorded once per session.

Accepted feedback types:
  ` + strings.Join(session.FeedbackCategories, "\n  "),
	Args: cobra.ExactArgs(1),
	RunE: runFeedback,
}

var (
	feedbackSessionID string
	feedbackType      string
	feedbackRole      string
)

func init() {
	feedbackCmd.Flags().StringVar(&feedbackSessionID, "session", "", "Session ID to record feedback in (required)")
	feedbackCmd.Flags().StringVar(&feedbackType, "type", session.FeedbackGeneral, "Feedback type")
	feedbackCmd.Flags().StringVar(&feedbackRole, "role", "", "Role of the candidate or reviewer the feedback relates to")
	_ = feedbackCmd.MarkFlagRequired("session")

	_ = feedbackCmd.RegisterFlagCompletionFunc("type", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return session.FeedbackCategories, cobra.ShellCompDirectiveNoFileComp
	})
}

func runFeedback(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	text := strings.TrimSpace(args[0])
	if text == "" {
		return fmt.Errorf("feedback text must not be empty")
	}
	if !session.ValidFeedbackCategory(feedbackType) {
		return fmt.Errorf("invalid feedback type %q (accepted: %s)",
			feedbackType, strings.Join(session.FeedbackCategories, ", "))
	}

	store := session.NewStore(cfg.Session.LogsDir, logger)
	mgr, err := session.Load(store, logger, feedbackSessionID)
	if err != nil {
		return fmt.Errorf("failed to load session %s: %w", feedbackSessionID, err)
	}

	recorded := mgr.Events().LogFeedback(session.FeedbackEntry{
		Feedback:  text,
		Type:      feedbackType,
		Role:      feedbackRole,
		Timestamp: time.Now().UTC(),
	})
	if !recorded {
		fmt.Println("Feedback already recorded in this session, skipping")
		return nil
	}

	logger.Info("Feedback recorded",
		"session_id", mgr.ID(),
		"type", feedbackType,
		"feedback_count", len(mgr.Session().FeedbackHistory))
	fmt.Printf("Feedback recorded (%d total in session %s)\n",
		len(mgr.Session().FeedbackHistory), mgr.ID())
	return nil
}
