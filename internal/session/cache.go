package session

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	apperrors "jdoptim/internal/errors"
)

// VersionCache stores generated versions per job description so that
// re-processing the same content within a session skips the model call.
// Entries live inside the session document and share its persistence.
type VersionCache struct {
	session *Session
	store   *Store
	logger  *apperrors.Logger
}

func newVersionCache(s *Session, store *Store, logger *apperrors.Logger) *VersionCache {
	return &VersionCache{session: s, store: store, logger: logger}
}

// DeriveJobID builds a cache key from a file name and its content. The
// content hash prefix keeps two same-named files with different content
// from sharing an entry. Callers with their own stable identifier can use
// it directly instead.
func DeriveJobID(fileName, content string) string {
	sum := sha256.Sum256([]byte(content))
	return fileName + "@" + hex.EncodeToString(sum[:])[:12]
}

func (c *VersionCache) persist() {
	if err := c.store.Write(c.session); err != nil && c.logger != nil {
		c.logger.LogError(err, "Failed to persist session after cache update",
			"session_id", c.session.SessionID)
	}
}

func (c *VersionCache) entry(jobID string) *CacheEntry {
	if c.session.Cache == nil {
		c.session.Cache = make(map[string]*CacheEntry)
	}
	e, ok := c.session.Cache[jobID]
	if !ok {
		e = &CacheEntry{}
		c.session.Cache[jobID] = e
	}
	return e
}

// PutVersions stores the candidate versions for jobID, replacing any
// previous batch. Only the latest generation is kept.
func (c *VersionCache) PutVersions(jobID string, versions []string) {
	e := c.entry(jobID)
	e.EnhancedVersions = append([]string(nil), versions...)
	e.GeneratedAt = time.Now().UTC()
	c.persist()
}

// GetVersions returns the cached candidate versions for jobID.
func (c *VersionCache) GetVersions(jobID string) ([]string, bool) {
	e, ok := c.session.Cache[jobID]
	if !ok || len(e.EnhancedVersions) == 0 {
		return nil, false
	}
	return append([]string(nil), e.EnhancedVersions...), true
}

// PutFinal stores a refined final version for jobID, keyed by the index of
// the base version it was refined from. Finals for different base versions
// coexist; a new final for the same base replaces the old one.
func (c *VersionCache) PutFinal(jobID string, baseIndex int, text string) {
	e := c.entry(jobID)
	if e.FinalVersions == nil {
		e.FinalVersions = make(map[string]string)
	}
	e.FinalVersions[strconv.Itoa(baseIndex)] = text
	e.RefinedAt = time.Now().UTC()
	c.persist()
}

// GetFinal returns the cached final version refined from baseIndex.
func (c *VersionCache) GetFinal(jobID string, baseIndex int) (string, bool) {
	e, ok := c.session.Cache[jobID]
	if !ok || e.FinalVersions == nil {
		return "", false
	}
	text, ok := e.FinalVersions[strconv.Itoa(baseIndex)]
	return text, ok
}

// Invalidate drops the cache entry for jobID if present.
func (c *VersionCache) Invalidate(jobID string) {
	if _, ok := c.session.Cache[jobID]; !ok {
		return
	}
	delete(c.session.Cache, jobID)
	c.persist()
}
