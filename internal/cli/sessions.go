package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"jdoptim/internal/session"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect and manage optimization sessions",
	Long: `Inspect and manage stored optimization sessions. Sessions are JSON
documents under the configured logs directory, one file per session.`,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sessions, newest first",
	Args:  cobra.NoArgs,
	RunE:  runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Print the full session document as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

var sessionsReportCmd = &cobra.Command{
	Use:   "report [session-id]",
	Short: "Print a plain-text audit report of a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsReport,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete [session-id]",
	Short: "Delete a stored session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

var sessionsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove sessions beyond the retention limits",
	Long: `Remove the oldest sessions over the maximum session count, then any
sessions older than the maximum age. Limits default to the configured
retention settings; a zero limit disables that check.`,
	Args: cobra.NoArgs,
	RunE: runSessionsPrune,
}

var (
	sessionsReportOutput string
	pruneMaxSessions     int
	pruneMaxAge          time.Duration
)

func init() {
	sessionsReportCmd.Flags().StringVarP(&sessionsReportOutput, "output", "o", "", "Write the report to a file (default: stdout)")
	sessionsPruneCmd.Flags().IntVar(&pruneMaxSessions, "max-sessions", 0, "Maximum number of sessions to keep (default from config)")
	sessionsPruneCmd.Flags().DurationVar(&pruneMaxAge, "max-age", 0, "Maximum session age, e.g. 720h (default from config)")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsReportCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	sessionsCmd.AddCommand(sessionsPruneCmd)
}

func newSessionStore(cmd *cobra.Command) *session.Store {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())
	return session.NewStore(cfg.Session.LogsDir, logger)
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	store := newSessionStore(cmd)
	summaries, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(summaries) == 0 {
		fmt.Printf("No sessions found in %s\n", store.Dir())
		return nil
	}

	fmt.Printf("%-36s  %-16s  %-20s  %7s  %s\n", "SESSION ID", "USERNAME", "STARTED", "ACTIONS", "FILE")
	for _, s := range summaries {
		fmt.Printf("%-36s  %-16s  %-20s  %7d  %s\n",
			s.SessionID,
			s.Username,
			s.SessionStartTime.Local().Format("2006-01-02 15:04:05"),
			s.ActionCount,
			s.SelectedFile)
	}
	fmt.Printf("\n%d session(s) in %s\n", len(summaries), store.Dir())
	return nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	store := newSessionStore(cmd)
	doc, err := store.Read(args[0])
	if err != nil {
		return fmt.Errorf("failed to load session %s: %w", args[0], err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func runSessionsReport(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())
	store := newSessionStore(cmd)
	mgr, err := session.Load(store, logger, args[0])
	if err != nil {
		return fmt.Errorf("failed to load session %s: %w", args[0], err)
	}

	report := mgr.ExportReport()
	if sessionsReportOutput == "" {
		fmt.Print(report)
		return nil
	}
	if err := os.WriteFile(sessionsReportOutput, []byte(report), 0o600); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	mgr.Events().LogDownload("text", sessionsReportOutput)
	fmt.Printf("Report written to %s\n", sessionsReportOutput)
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	store := newSessionStore(cmd)
	if err := store.Delete(args[0]); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", args[0], err)
	}
	fmt.Printf("Session %s deleted\n", args[0])
	return nil
}

func runSessionsPrune(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	store := newSessionStore(cmd)

	maxSessions := pruneMaxSessions
	if !cmd.Flags().Changed("max-sessions") {
		maxSessions = cfg.Session.MaxSessions
	}
	maxAge := pruneMaxAge
	if !cmd.Flags().Changed("max-age") {
		maxAge = cfg.Session.MaxAge
	}

	removed, err := store.Prune(maxSessions, maxAge)
	if err != nil {
		return fmt.Errorf("failed to prune sessions: %w", err)
	}
	fmt.Printf("Pruned %d session(s)\n", removed)
	return nil
}
