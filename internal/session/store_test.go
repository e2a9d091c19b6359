package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), nil)
}

func TestStoreWriteRead(t *testing.T) {
	store := newTestStore(t)

	idx := 1
	original := &Session{
		SessionID:        "abc-123",
		Username:         "recruiter",
		SessionStartTime: time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC),
		SelectedFile:     "backend_engineer.txt",
		OriginalContent:  "We need a backend engineer.",
		EnhancedVersions: []string{"v1", "v2", "v3"},
		SelectedVersion:  &idx,
		FeedbackHistory: []FeedbackEntry{
			{Feedback: "too vague", Type: FeedbackHiringManager, Timestamp: time.Now().UTC()},
		},
		Actions: []Action{
			{Action: ActionFileSelected, FileName: "backend_engineer.txt", Timestamp: time.Now().UTC()},
		},
	}
	original.normalize()

	if err := store.Write(original); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	loaded, err := store.Read("abc-123")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if loaded.SessionID != original.SessionID {
		t.Errorf("SessionID = %q, want %q", loaded.SessionID, original.SessionID)
	}
	if loaded.Username != original.Username {
		t.Errorf("Username = %q, want %q", loaded.Username, original.Username)
	}
	if loaded.SelectedFile != original.SelectedFile {
		t.Errorf("SelectedFile = %q, want %q", loaded.SelectedFile, original.SelectedFile)
	}
	if len(loaded.EnhancedVersions) != 3 {
		t.Errorf("EnhancedVersions length = %d, want 3", len(loaded.EnhancedVersions))
	}
	if loaded.SelectedVersion == nil || *loaded.SelectedVersion != 1 {
		t.Errorf("SelectedVersion = %v, want 1", loaded.SelectedVersion)
	}
	if len(loaded.FeedbackHistory) != 1 || loaded.FeedbackHistory[0].Feedback != "too vague" {
		t.Errorf("FeedbackHistory = %+v, want one entry 'too vague'", loaded.FeedbackHistory)
	}
	if len(loaded.Actions) != 1 || loaded.Actions[0].Action != ActionFileSelected {
		t.Errorf("Actions = %+v, want one file_selected action", loaded.Actions)
	}
}

func TestStoreWriteRequiresSessionID(t *testing.T) {
	store := newTestStore(t)

	err := store.Write(&Session{Username: "recruiter"})
	if err == nil {
		t.Fatal("expected error for empty session ID, got nil")
	}
}

func TestStoreReadMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Read("does-not-exist")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Read missing session: err = %v, want ErrNotFound", err)
	}
}

func TestStoreReadCorrupt(t *testing.T) {
	store := newTestStore(t)

	path := filepath.Join(store.Dir(), "session_broken.json")
	if err := os.MkdirAll(store.Dir(), 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := store.Read("broken")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Read corrupt session: err = %v, want ErrNotFound", err)
	}
}

func TestStoreReadNormalizesNilCollections(t *testing.T) {
	store := newTestStore(t)

	if err := os.MkdirAll(store.Dir(), 0750); err != nil {
		t.Fatal(err)
	}
	minimal := []byte(`{"session_id":"min","username":"u","session_start_time":"2026-03-10T09:30:00Z"}`)
	if err := os.WriteFile(filepath.Join(store.Dir(), "session_min.json"), minimal, 0600); err != nil {
		t.Fatal(err)
	}

	s, err := store.Read("min")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if s.EnhancedVersions == nil || s.FeedbackHistory == nil || s.Actions == nil || s.Cache == nil {
		t.Error("expected collections to be non-nil after load")
	}
}

func TestStoreListSortsNewestFirst(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"oldest", "middle", "newest"} {
		s := &Session{
			SessionID:        id,
			Username:         "recruiter",
			SessionStartTime: base.Add(time.Duration(i) * time.Hour),
		}
		s.normalize()
		if err := store.Write(s); err != nil {
			t.Fatalf("Write %s failed: %v", id, err)
		}
	}

	summaries, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("List returned %d summaries, want 3", len(summaries))
	}

	want := []string{"newest", "middle", "oldest"}
	for i, w := range want {
		if summaries[i].SessionID != w {
			t.Errorf("summaries[%d].SessionID = %q, want %q", i, summaries[i].SessionID, w)
		}
	}
}

func TestStoreListSkipsCorrupt(t *testing.T) {
	store := newTestStore(t)

	good := &Session{
		SessionID:        "good",
		Username:         "recruiter",
		SessionStartTime: time.Now().UTC(),
	}
	good.normalize()
	if err := store.Write(good); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(store.Dir(), "session_bad.json"), []byte("garbage"), 0600); err != nil {
		t.Fatal(err)
	}

	summaries, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(summaries) != 1 || summaries[0].SessionID != "good" {
		t.Errorf("List = %+v, want only the readable session", summaries)
	}
}

func TestStoreListMissingDirectory(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "never-created"), nil)

	summaries, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(summaries) != 0 {
		t.Errorf("List = %+v, want empty", summaries)
	}
}

func TestStoreDelete(t *testing.T) {
	store := newTestStore(t)

	s := &Session{SessionID: "gone", Username: "u", SessionStartTime: time.Now().UTC()}
	s.normalize()
	if err := store.Write(s); err != nil {
		t.Fatal(err)
	}

	if err := store.Delete("gone"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Read("gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Read after Delete: err = %v, want ErrNotFound", err)
	}

	// Deleting again is a no-op.
	if err := store.Delete("gone"); err != nil {
		t.Errorf("Delete of missing session: err = %v, want nil", err)
	}
}

func TestSessionIDFromFileName(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		wantID   string
		wantOK   bool
	}{
		{name: "valid", fileName: "session_abc-123.json", wantID: "abc-123", wantOK: true},
		{name: "missing prefix", fileName: "abc-123.json", wantOK: false},
		{name: "missing suffix", fileName: "session_abc-123.txt", wantOK: false},
		{name: "empty id", fileName: "session_.json", wantOK: false},
		{name: "unrelated file", fileName: "README.md", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := sessionIDFromFileName(tt.fileName)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && id != tt.wantID {
				t.Errorf("id = %q, want %q", id, tt.wantID)
			}
		})
	}
}
