package session

import (
	"testing"
	"time"
)

func newTestManager(t *testing.T) (*Manager, *Store) {
	t.Helper()
	store := newTestStore(t)
	m, err := New(store, nil, "recruiter")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return m, store
}

func TestLogFileSelection(t *testing.T) {
	m, _ := newTestManager(t)
	log := m.Events()

	if !log.LogFileSelection("backend.txt", "backend JD content") {
		t.Fatal("first file selection should be recorded")
	}
	if m.Session().SelectedFile != "backend.txt" {
		t.Errorf("SelectedFile = %q, want backend.txt", m.Session().SelectedFile)
	}
	if m.Session().OriginalContent != "backend JD content" {
		t.Errorf("OriginalContent = %q", m.Session().OriginalContent)
	}

	// Re-selecting the active file is a no-op.
	if log.LogFileSelection("backend.txt", "backend JD content") {
		t.Error("re-selecting the active file should not be recorded")
	}
	if n := len(m.Session().Actions); n != 1 {
		t.Errorf("action count = %d, want 1", n)
	}
}

func TestLogFileSelectionResetsDerivedState(t *testing.T) {
	m, _ := newTestManager(t)
	log := m.Events()

	log.LogFileSelection("backend.txt", "backend JD")
	log.LogVersionsGenerated([]string{"v1", "v2", "v3"})
	log.LogVersionSelection(2)
	log.LogFeedback(FeedbackEntry{Feedback: "needs salary range", Type: FeedbackHiringManager})
	log.LogEnhancedVersion("draft text", false)
	log.LogEnhancedVersion("final text", true)

	if !log.LogFileSelection("frontend.txt", "frontend JD") {
		t.Fatal("selecting a different file should be recorded")
	}

	s := m.Session()
	if len(s.EnhancedVersions) != 0 {
		t.Errorf("EnhancedVersions = %v, want empty after file switch", s.EnhancedVersions)
	}
	if s.SelectedVersion != nil {
		t.Errorf("SelectedVersion = %v, want nil after file switch", *s.SelectedVersion)
	}
	if len(s.FeedbackHistory) != 0 {
		t.Errorf("FeedbackHistory = %v, want empty after file switch", s.FeedbackHistory)
	}
	if s.CurrentEnhancedVersion != "" || s.FinalEnhancedVersion != "" {
		t.Error("enhanced versions should be cleared after file switch")
	}

	// The audit trail keeps all prior actions.
	if n := len(s.Actions); n != 7 {
		t.Errorf("action count = %d, want 7", n)
	}
}

func TestLogVersionsGeneratedDeDup(t *testing.T) {
	m, _ := newTestManager(t)
	log := m.Events()

	versions := []string{"v1", "v2", "v3"}
	if !log.LogVersionsGenerated(versions) {
		t.Fatal("first batch should be recorded")
	}
	if log.LogVersionsGenerated([]string{"v1", "v2", "v3"}) {
		t.Error("value-equal batch should be ignored")
	}
	if !log.LogVersionsGenerated([]string{"v1", "v2", "v4"}) {
		t.Error("changed batch should be recorded")
	}

	// The stored slice is a copy, not an alias of the caller's slice.
	versions[0] = "mutated"
	if m.Session().EnhancedVersions[0] == "mutated" {
		t.Error("stored versions alias the caller's slice")
	}
}

func TestLogVersionSelection(t *testing.T) {
	m, _ := newTestManager(t)
	log := m.Events()

	if !log.LogVersionSelection(1) {
		t.Fatal("first selection should be recorded")
	}
	if log.LogVersionSelection(1) {
		t.Error("repeating the current selection should be ignored")
	}
	if !log.LogVersionSelection(2) {
		t.Error("changing the selection should be recorded")
	}
	if !log.LogVersionSelection(1) {
		t.Error("re-selecting after an intervening change should be recorded")
	}

	if got := *m.Session().SelectedVersion; got != 1 {
		t.Errorf("SelectedVersion = %d, want 1", got)
	}
}

func TestLogFeedback(t *testing.T) {
	m, _ := newTestManager(t)
	log := m.Events()

	if !log.LogFeedback(FeedbackEntry{Feedback: "too long", Type: FeedbackClient}) {
		t.Fatal("first feedback should be recorded")
	}
	if log.LogFeedback(FeedbackEntry{Feedback: "too long", Type: FeedbackGeneral}) {
		t.Error("feedback with identical text should be dropped")
	}
	if !log.LogFeedback(FeedbackEntry{Feedback: "too short", Type: "Nonsense Category"}) {
		t.Fatal("feedback with new text should be recorded")
	}

	s := m.Session()
	if len(s.FeedbackHistory) != 2 {
		t.Fatalf("feedback count = %d, want 2", len(s.FeedbackHistory))
	}
	if s.FeedbackHistory[1].Type != FeedbackGeneral {
		t.Errorf("unknown category normalized to %q, want %q",
			s.FeedbackHistory[1].Type, FeedbackGeneral)
	}
	if s.FeedbackHistory[0].Timestamp.IsZero() {
		t.Error("feedback timestamp should be defaulted")
	}
}

func TestLogFeedbackRecordsCorrelatedAction(t *testing.T) {
	m, _ := newTestManager(t)
	log := m.Events()

	log.LogFeedback(FeedbackEntry{Feedback: "first", Type: FeedbackInterview})
	log.LogFeedback(FeedbackEntry{Feedback: "second", Type: FeedbackSelected})

	s := m.Session()
	if len(s.Actions) != 2 {
		t.Fatalf("action count = %d, want 2", len(s.Actions))
	}

	for i, a := range s.Actions {
		if a.Action != ActionFeedback {
			t.Fatalf("Actions[%d].Action = %q, want %q", i, a.Action, ActionFeedback)
		}
		if a.FeedbackIndex == nil || *a.FeedbackIndex != i {
			t.Errorf("Actions[%d].FeedbackIndex = %v, want %d", i, a.FeedbackIndex, i)
		}
		if a.FeedbackType != s.FeedbackHistory[i].Type {
			t.Errorf("Actions[%d].FeedbackType = %q, want %q",
				i, a.FeedbackType, s.FeedbackHistory[i].Type)
		}
	}
}

func TestLogEnhancedVersion(t *testing.T) {
	m, _ := newTestManager(t)
	log := m.Events()

	if !log.LogEnhancedVersion("draft one", false) {
		t.Fatal("first draft should be recorded")
	}
	if log.LogEnhancedVersion("draft one", false) {
		t.Error("identical draft should be ignored")
	}
	if !log.LogEnhancedVersion("draft one", true) {
		t.Error("marking the current draft final should be recorded")
	}
	if log.LogEnhancedVersion("draft one", true) {
		t.Error("repeating the final version should be ignored")
	}

	s := m.Session()
	if s.CurrentEnhancedVersion != "draft one" {
		t.Errorf("CurrentEnhancedVersion = %q", s.CurrentEnhancedVersion)
	}
	if s.FinalEnhancedVersion != "draft one" {
		t.Errorf("FinalEnhancedVersion = %q", s.FinalEnhancedVersion)
	}
}

func TestLogEnhancedVersionAfterDraftDiverges(t *testing.T) {
	m, _ := newTestManager(t)
	log := m.Events()

	if !log.LogEnhancedVersion("final text", true) {
		t.Fatal("final version should be recorded")
	}
	if !log.LogEnhancedVersion("newer draft", false) {
		t.Fatal("diverging draft should be recorded")
	}

	// The draft moved on, so re-finalizing the earlier text is new
	// information and must update the current draft too.
	if !log.LogEnhancedVersion("final text", true) {
		t.Error("re-finalizing after the draft diverged should be recorded")
	}

	s := m.Session()
	if s.CurrentEnhancedVersion != "final text" {
		t.Errorf("CurrentEnhancedVersion = %q, want %q", s.CurrentEnhancedVersion, "final text")
	}
	if s.FinalEnhancedVersion != "final text" {
		t.Errorf("FinalEnhancedVersion = %q, want %q", s.FinalEnhancedVersion, "final text")
	}
}

func TestLogDownloadNeverDeDuplicated(t *testing.T) {
	m, _ := newTestManager(t)
	log := m.Events()

	log.LogDownload("txt", "/tmp/out.txt")
	log.LogDownload("txt", "/tmp/out.txt")

	if n := len(m.Session().Actions); n != 2 {
		t.Errorf("action count = %d, want 2 (downloads are not de-duplicated)", n)
	}
}

func TestEventLogPersistsAfterEachMutation(t *testing.T) {
	m, store := newTestManager(t)
	log := m.Events()

	log.LogFileSelection("backend.txt", "content")
	log.LogVersionsGenerated([]string{"a", "b"})

	reloaded, err := store.Read(m.ID())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if reloaded.SelectedFile != "backend.txt" {
		t.Errorf("reloaded SelectedFile = %q", reloaded.SelectedFile)
	}
	if len(reloaded.EnhancedVersions) != 2 {
		t.Errorf("reloaded EnhancedVersions = %v", reloaded.EnhancedVersions)
	}
	if len(reloaded.Actions) != 2 {
		t.Errorf("reloaded action count = %d, want 2", len(reloaded.Actions))
	}
}

func TestEventLogDeDupSurvivesReload(t *testing.T) {
	m, store := newTestManager(t)
	m.Events().LogFeedback(FeedbackEntry{Feedback: "cut the buzzwords", Type: FeedbackGeneral})

	reloaded, err := Load(store, nil, m.ID())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if reloaded.Events().LogFeedback(FeedbackEntry{Feedback: "cut the buzzwords", Type: FeedbackGeneral}) {
		t.Error("duplicate feedback should still be dropped after reload")
	}
}

func TestActionTimestampDefaulted(t *testing.T) {
	m, _ := newTestManager(t)

	before := time.Now().UTC().Add(-time.Second)
	m.Events().LogDownload("md", "/tmp/out.md")
	after := time.Now().UTC().Add(time.Second)

	ts := m.Session().Actions[0].Timestamp
	if ts.Before(before) || ts.After(after) {
		t.Errorf("action timestamp %v outside [%v, %v]", ts, before, after)
	}
}
