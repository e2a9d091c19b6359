package session

import (
	"fmt"
	"strings"
)

const reportTimeFormat = "2006-01-02 15:04:05 MST"

// ExportReport renders the session as a plain-text report: header, feedback
// history, then the full action timeline in chronological order.
func (m *Manager) ExportReport() string {
	s := m.session
	var b strings.Builder

	b.WriteString("Session Report\n")
	b.WriteString("==============\n\n")
	fmt.Fprintf(&b, "Session ID: %s\n", s.SessionID)
	fmt.Fprintf(&b, "User: %s\n", s.Username)
	fmt.Fprintf(&b, "Started: %s\n", s.SessionStartTime.Format(reportTimeFormat))
	if s.SelectedFile != "" {
		fmt.Fprintf(&b, "Selected File: %s\n", s.SelectedFile)
	}
	fmt.Fprintf(&b, "Actions: %d\n", len(s.Actions))

	if len(s.FeedbackHistory) > 0 {
		b.WriteString("\nFeedback History\n")
		b.WriteString("----------------\n")
		for i, entry := range s.FeedbackHistory {
			fmt.Fprintf(&b, "%d. [%s]", i+1, entry.Type)
			if entry.Role != "" {
				fmt.Fprintf(&b, " (%s)", entry.Role)
			}
			fmt.Fprintf(&b, " %s\n", entry.Feedback)
			fmt.Fprintf(&b, "   at %s\n", entry.Timestamp.Format(reportTimeFormat))
		}
	}

	b.WriteString("\nTimeline\n")
	b.WriteString("--------\n")
	if len(s.Actions) == 0 {
		b.WriteString("No actions recorded.\n")
	}
	for _, a := range s.Actions {
		fmt.Fprintf(&b, "%s  %s\n",
			a.Timestamp.Format(reportTimeFormat), describeAction(a))
	}

	if s.FinalEnhancedVersion != "" {
		b.WriteString("\nFinal Version\n")
		b.WriteString("-------------\n")
		b.WriteString(s.FinalEnhancedVersion)
		if !strings.HasSuffix(s.FinalEnhancedVersion, "\n") {
			b.WriteString("\n")
		}
	}

	return b.String()
}

func describeAction(a Action) string {
	switch a.Action {
	case ActionFileSelected:
		return fmt.Sprintf("selected file %q", a.FileName)
	case ActionVersionsGenerated:
		return fmt.Sprintf("generated %d candidate versions", a.VersionCount)
	case ActionVersionSelected:
		if a.SelectedVersion != nil {
			return fmt.Sprintf("selected version %d", *a.SelectedVersion)
		}
		return "selected a version"
	case ActionFeedback:
		if a.FeedbackIndex != nil {
			return fmt.Sprintf("recorded feedback #%d (%s)", *a.FeedbackIndex+1, a.FeedbackType)
		}
		return fmt.Sprintf("recorded feedback (%s)", a.FeedbackType)
	case ActionEnhancedGenerated:
		if a.IsFinal != nil && *a.IsFinal {
			return "generated final version"
		}
		return "generated enhanced draft"
	case ActionFileDownloaded:
		return fmt.Sprintf("downloaded %s to %s", a.Format, a.Path)
	default:
		return a.Action
	}
}
