package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	apperrors "jdoptim/internal/errors"
)

// ErrNotFound is returned when a session document does not exist or cannot
// be decoded. Callers treat both the same way: there is no usable session.
var ErrNotFound = errors.New("session not found")

const (
	filePrefix = "session_"
	fileSuffix = ".json"
)

// Store persists one JSON document per session under a single directory.
// Every write replaces the whole document; there is no partial update.
type Store struct {
	dir    string
	logger *apperrors.Logger
}

// NewStore creates a store rooted at dir. The directory is created lazily
// on the first write.
func NewStore(dir string, logger *apperrors.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

// Dir returns the directory session documents are written to.
func (st *Store) Dir() string {
	return st.dir
}

func (st *Store) path(sessionID string) string {
	return filepath.Join(st.dir, filePrefix+sessionID+fileSuffix)
}

// Write serializes the session and replaces its document on disk.
func (st *Store) Write(s *Session) error {
	if s.SessionID == "" {
		return apperrors.NewValidationError(apperrors.ErrCodeInvalidRequest,
			"Session ID is required for persistence", nil)
	}

	if err := os.MkdirAll(st.dir, 0750); err != nil {
		return apperrors.NewIOError(apperrors.ErrCodeSessionWriteFailed,
			fmt.Sprintf("Cannot create session log directory: %s", st.dir), err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return apperrors.NewInternalError(apperrors.ErrCodeSessionWriteFailed,
			"Failed to serialize session", err)
	}

	if err := os.WriteFile(st.path(s.SessionID), data, 0600); err != nil {
		return apperrors.NewIOError(apperrors.ErrCodeSessionWriteFailed,
			fmt.Sprintf("Cannot write session document: %s", s.SessionID), err)
	}

	return nil
}

// Read loads a session document. A missing file and a corrupt file both
// yield ErrNotFound; corruption is additionally logged so the operator can
// find the bad document.
func (st *Store) Read(sessionID string) (*Session, error) {
	data, err := os.ReadFile(st.path(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, apperrors.NewIOError(apperrors.ErrCodeSessionCorrupt,
			fmt.Sprintf("Cannot read session document: %s", sessionID), err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		if st.logger != nil {
			st.logger.Warn("Skipping corrupt session document",
				"session_id", sessionID,
				"error", err.Error())
		}
		return nil, ErrNotFound
	}

	s.normalize()
	return &s, nil
}

// List returns summaries for all readable sessions, newest first. Corrupt
// documents are skipped with a warning rather than failing the whole list.
func (st *Store) List() ([]Summary, error) {
	entries, err := os.ReadDir(st.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Summary{}, nil
		}
		return nil, apperrors.NewIOError(apperrors.ErrCodeSessionCorrupt,
			fmt.Sprintf("Cannot read session log directory: %s", st.dir), err)
	}

	summaries := make([]Summary, 0, len(entries))
	for _, entry := range entries {
		id, ok := sessionIDFromFileName(entry.Name())
		if !ok || entry.IsDir() {
			continue
		}

		s, err := st.Read(id)
		if err != nil {
			// Read already logged the corruption; keep listing.
			continue
		}

		summaries = append(summaries, Summary{
			SessionID:        s.SessionID,
			Username:         s.Username,
			SessionStartTime: s.SessionStartTime,
			SelectedFile:     s.SelectedFile,
			ActionCount:      len(s.Actions),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].SessionStartTime.After(summaries[j].SessionStartTime)
	})

	return summaries, nil
}

// Delete removes a session document. Deleting a session that does not
// exist is not an error.
func (st *Store) Delete(sessionID string) error {
	err := os.Remove(st.path(sessionID))
	if err != nil && !os.IsNotExist(err) {
		return apperrors.NewIOError(apperrors.ErrCodeSessionWriteFailed,
			fmt.Sprintf("Cannot delete session document: %s", sessionID), err)
	}
	return nil
}

// fileEntry pairs a stored session with its document's modification time.
// Pruning by age keys off the file mtime, not the logical start time, so a
// session that is still being appended to never ages out.
type fileEntry struct {
	sessionID string
	modTime   time.Time
}

func (st *Store) entries() ([]fileEntry, error) {
	dirEntries, err := os.ReadDir(st.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.NewIOError(apperrors.ErrCodeSessionCorrupt,
			fmt.Sprintf("Cannot read session log directory: %s", st.dir), err)
	}

	files := make([]fileEntry, 0, len(dirEntries))
	for _, entry := range dirEntries {
		id, ok := sessionIDFromFileName(entry.Name())
		if !ok || entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, fileEntry{sessionID: id, modTime: info.ModTime()})
	}

	return files, nil
}

func sessionIDFromFileName(name string) (string, bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
	if id == "" {
		return "", false
	}
	return id, true
}
