package session

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func TestNewPersistsImmediately(t *testing.T) {
	store := newTestStore(t)

	m, err := New(store, nil, "recruiter")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if m.ID() == "" {
		t.Fatal("expected a generated session ID")
	}

	loaded, err := store.Read(m.ID())
	if err != nil {
		t.Fatalf("fresh session not on disk: %v", err)
	}
	if loaded.Username != "recruiter" {
		t.Errorf("Username = %q, want recruiter", loaded.Username)
	}
	if loaded.SessionStartTime.IsZero() {
		t.Error("SessionStartTime should be set")
	}
}

func TestLoadMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := Load(store, nil, "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load missing: err = %v, want ErrNotFound", err)
	}
}

func TestLoadOrNew(t *testing.T) {
	store := newTestStore(t)

	existing, err := New(store, nil, "recruiter")
	if err != nil {
		t.Fatal(err)
	}

	// Known ID resumes the existing session.
	m, err := LoadOrNew(store, nil, existing.ID(), "other")
	if err != nil {
		t.Fatalf("LoadOrNew failed: %v", err)
	}
	if m.ID() != existing.ID() {
		t.Errorf("resumed ID = %q, want %q", m.ID(), existing.ID())
	}

	// Unknown ID falls back to a fresh session.
	fresh, err := LoadOrNew(store, nil, "unknown-id", "recruiter")
	if err != nil {
		t.Fatalf("LoadOrNew fallback failed: %v", err)
	}
	if fresh.ID() == "unknown-id" || fresh.ID() == existing.ID() {
		t.Errorf("fallback produced unexpected ID %q", fresh.ID())
	}

	// Empty ID always starts fresh.
	blank, err := LoadOrNew(store, nil, "", "recruiter")
	if err != nil {
		t.Fatalf("LoadOrNew with empty ID failed: %v", err)
	}
	if blank.ID() == existing.ID() {
		t.Error("empty ID should not resume an existing session")
	}
}

func TestUpdateUsername(t *testing.T) {
	m, store := newTestManager(t)

	m.UpdateUsername("hiring-manager")
	reloaded, err := store.Read(m.ID())
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Username != "hiring-manager" {
		t.Errorf("Username = %q, want hiring-manager", reloaded.Username)
	}
}

func TestPruneCountLimit(t *testing.T) {
	store := newTestStore(t)

	var ids []string
	for i := 0; i < 5; i++ {
		m, err := New(store, nil, "recruiter")
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, m.ID())
		// Distinct mtimes so the oldest-first ordering is deterministic.
		mtime := time.Now().Add(time.Duration(i-10) * time.Minute)
		if err := os.Chtimes(store.path(m.ID()), mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := store.Prune(3, 0)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	for _, id := range ids[:2] {
		if _, err := store.Read(id); !errors.Is(err, ErrNotFound) {
			t.Errorf("oldest session %s should be pruned", id)
		}
	}
	for _, id := range ids[2:] {
		if _, err := store.Read(id); err != nil {
			t.Errorf("newer session %s should survive: %v", id, err)
		}
	}
}

func TestPruneAgeLimit(t *testing.T) {
	store := newTestStore(t)

	oldSession, err := New(store, nil, "recruiter")
	if err != nil {
		t.Fatal(err)
	}
	stale := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(store.path(oldSession.ID()), stale, stale); err != nil {
		t.Fatal(err)
	}

	freshSession, err := New(store, nil, "recruiter")
	if err != nil {
		t.Fatal(err)
	}

	removed, err := store.Prune(0, 24*time.Hour)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := store.Read(oldSession.ID()); !errors.Is(err, ErrNotFound) {
		t.Error("stale session should be pruned")
	}
	if _, err := store.Read(freshSession.ID()); err != nil {
		t.Errorf("fresh session should survive: %v", err)
	}
}

func TestPruneDisabledLimits(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 3; i++ {
		if _, err := New(store, nil, "recruiter"); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := store.Prune(0, 0)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0 with both limits disabled", removed)
	}
}

func TestPruneEmptyDirectory(t *testing.T) {
	store := newTestStore(t)

	removed, err := store.Prune(10, time.Hour)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}
}

func TestExportReport(t *testing.T) {
	m, _ := newTestManager(t)
	log := m.Events()

	log.LogFileSelection("backend.txt", "backend JD")
	log.LogVersionsGenerated([]string{"v1", "v2", "v3"})
	log.LogVersionSelection(1)
	log.LogFeedback(FeedbackEntry{Feedback: "mention remote policy", Type: FeedbackHiringManager, Role: "EM"})
	log.LogEnhancedVersion("the final JD text", true)
	log.LogDownload("txt", "/tmp/jd.txt")

	report := m.ExportReport()

	for _, want := range []string{
		"Session Report",
		m.ID(),
		"recruiter",
		"Selected File: backend.txt",
		"Actions: 6",
		"Feedback History",
		"[Hiring Manager Feedback] (EM) mention remote policy",
		"generated 3 candidate versions",
		"selected version 1",
		"recorded feedback #1 (Hiring Manager Feedback)",
		"generated final version",
		"downloaded txt to /tmp/jd.txt",
		"Final Version",
		"the final JD text",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q\n---\n%s", want, report)
		}
	}
}

func TestExportReportEmptySession(t *testing.T) {
	m, _ := newTestManager(t)

	report := m.ExportReport()
	if !strings.Contains(report, "No actions recorded.") {
		t.Errorf("empty session report should note the empty timeline\n%s", report)
	}
	if strings.Contains(report, "Feedback History") {
		t.Error("empty session report should omit the feedback section")
	}
}

func TestPrunerStartStop(t *testing.T) {
	store := newTestStore(t)

	oldSession, err := New(store, nil, "recruiter")
	if err != nil {
		t.Fatal(err)
	}
	stale := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(store.path(oldSession.ID()), stale, stale); err != nil {
		t.Fatal(err)
	}

	p := NewPruner(store, nil, 0, 24*time.Hour, time.Hour)
	p.Start()
	defer p.Stop()

	// The first prune runs immediately on Start.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := store.Read(oldSession.ID()); errors.Is(err, ErrNotFound) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("stale session was not pruned by the background pruner")
}
