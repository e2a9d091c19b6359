package session

import (
	"time"

	apperrors "jdoptim/internal/errors"
)

// EventLog appends actions and feedback to a session and persists after
// every accepted mutation. Persistence failures are logged and swallowed:
// an audit write must never abort the interaction that produced it.
type EventLog struct {
	session *Session
	store   *Store
	logger  *apperrors.Logger
}

func newEventLog(s *Session, store *Store, logger *apperrors.Logger) *EventLog {
	return &EventLog{session: s, store: store, logger: logger}
}

func (l *EventLog) persist() {
	if err := l.store.Write(l.session); err != nil && l.logger != nil {
		l.logger.LogError(err, "Failed to persist session after mutation",
			"session_id", l.session.SessionID)
	}
}

func (l *EventLog) append(a Action) {
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}
	l.session.Actions = append(l.session.Actions, a)
}

// LogFileSelection records selection of a new source file. Selecting the
// file that is already active is a no-op. Selecting a different file resets
// all state derived from the previous file: generated versions, feedback
// history, the current draft and the final version.
func (l *EventLog) LogFileSelection(fileName, content string) bool {
	if fileName == l.session.SelectedFile {
		return false
	}

	l.session.SelectedFile = fileName
	l.session.OriginalContent = content
	l.session.EnhancedVersions = []string{}
	l.session.SelectedVersion = nil
	l.session.FeedbackHistory = []FeedbackEntry{}
	l.session.CurrentEnhancedVersion = ""
	l.session.FinalEnhancedVersion = ""

	l.append(Action{Action: ActionFileSelected, FileName: fileName})
	l.persist()
	return true
}

// LogVersionsGenerated records a batch of candidate versions. A batch that
// is value-equal to the one already stored is a duplicate and ignored.
func (l *EventLog) LogVersionsGenerated(versions []string) bool {
	if equalStrings(l.session.EnhancedVersions, versions) {
		return false
	}

	l.session.EnhancedVersions = append([]string(nil), versions...)
	l.append(Action{Action: ActionVersionsGenerated, VersionCount: len(versions)})
	l.persist()
	return true
}

// LogVersionSelection records the reviewer picking a base version. Picking
// the version that is already selected is ignored; re-picking after an
// intervening change is recorded again.
func (l *EventLog) LogVersionSelection(index int) bool {
	if l.session.SelectedVersion != nil && *l.session.SelectedVersion == index {
		return false
	}

	idx := index
	l.session.SelectedVersion = &idx
	l.append(Action{Action: ActionVersionSelected, SelectedVersion: &idx})
	l.persist()
	return true
}

// LogFeedback appends feedback entries. An entry whose text exactly matches
// an existing entry is dropped. Every accepted entry also records a
// correlated feedback action carrying the entry's index, so the audit trail
// alone reconstructs the feedback timeline.
func (l *EventLog) LogFeedback(entries ...FeedbackEntry) bool {
	appended := false

	for _, entry := range entries {
		if l.hasFeedbackText(entry.Feedback) {
			continue
		}
		if !ValidFeedbackCategory(entry.Type) {
			entry.Type = FeedbackGeneral
		}
		if entry.Timestamp.IsZero() {
			entry.Timestamp = time.Now().UTC()
		}

		l.session.FeedbackHistory = append(l.session.FeedbackHistory, entry)
		idx := len(l.session.FeedbackHistory) - 1
		l.append(Action{
			Action:        ActionFeedback,
			FeedbackIndex: &idx,
			FeedbackType:  entry.Type,
		})
		appended = true
	}

	if appended {
		l.persist()
	}
	return appended
}

// LogEnhancedVersion records a newly generated draft, or the final version
// when isFinal is set. The duplicate check runs against the current draft, so
// re-finalizing a text the draft has since diverged from is recorded again
// and brings the draft back in step. Marking the unchanged current draft as
// final is still recorded once, to capture the promotion.
func (l *EventLog) LogEnhancedVersion(text string, isFinal bool) bool {
	if text == l.session.CurrentEnhancedVersion &&
		(!isFinal || l.session.FinalEnhancedVersion == text) {
		return false
	}

	l.session.CurrentEnhancedVersion = text
	if isFinal {
		l.session.FinalEnhancedVersion = text
	}

	final := isFinal
	l.append(Action{Action: ActionEnhancedGenerated, IsFinal: &final})
	l.persist()
	return true
}

// LogDownload records an export of the final version. Downloads are never
// de-duplicated; each export is its own audit event.
func (l *EventLog) LogDownload(format, path string) {
	l.append(Action{Action: ActionFileDownloaded, Format: format, Path: path})
	l.persist()
}

func (l *EventLog) hasFeedbackText(text string) bool {
	for _, existing := range l.session.FeedbackHistory {
		if existing.Feedback == text {
			return true
		}
	}
	return false
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
