package session

import (
	"slices"
	"time"
)

// Action kinds recorded in a session's audit trail.
const (
	ActionFileSelected      = "file_selected"
	ActionVersionsGenerated = "versions_generated"
	ActionVersionSelected   = "version_selected"
	ActionFeedback          = "feedback"
	ActionEnhancedGenerated = "enhanced_version_generated"
	ActionFileDownloaded    = "file_downloaded"
)

// Feedback categories accepted by the event log. Unknown categories are
// normalized to FeedbackGeneral rather than rejected.
const (
	FeedbackGeneral       = "General Feedback"
	FeedbackRejected      = "Rejected Candidate"
	FeedbackHiringManager = "Hiring Manager Feedback"
	FeedbackClient        = "Client Feedback"
	FeedbackSelected      = "Selected Candidate"
	FeedbackInterview     = "Interview Feedback"
)

// FeedbackCategories lists the fixed set of accepted feedback categories.
var FeedbackCategories = []string{
	FeedbackGeneral,
	FeedbackRejected,
	FeedbackHiringManager,
	FeedbackClient,
	FeedbackSelected,
	FeedbackInterview,
}

// ValidFeedbackCategory reports whether c is one of the accepted categories.
func ValidFeedbackCategory(c string) bool {
	return slices.Contains(FeedbackCategories, c)
}

// FeedbackEntry is a single piece of reviewer feedback on a job description.
type FeedbackEntry struct {
	Feedback  string    `json:"feedback"`
	Type      string    `json:"type"`
	Role      string    `json:"role,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Action is one entry in the append-only audit trail. The kind-specific
// fields are populated depending on Action and omitted otherwise.
type Action struct {
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`

	FileName        string `json:"file_name,omitempty"`
	VersionCount    int    `json:"version_count,omitempty"`
	SelectedVersion *int   `json:"selected_version,omitempty"`
	FeedbackIndex   *int   `json:"feedback_index,omitempty"`
	FeedbackType    string `json:"feedback_type,omitempty"`
	IsFinal         *bool  `json:"is_final,omitempty"`
	Format          string `json:"format,omitempty"`
	Path            string `json:"path,omitempty"`
}

// CacheEntry holds generated versions for one job description identifier.
// FinalVersions is keyed by the index of the base version the final text
// was refined from.
type CacheEntry struct {
	EnhancedVersions []string          `json:"enhanced_versions,omitempty"`
	GeneratedAt      time.Time         `json:"generated_at"`
	FinalVersions    map[string]string `json:"final_versions,omitempty"`
	RefinedAt        time.Time         `json:"refined_at,omitzero"`
}

// Session is the complete persisted state of one optimization session.
// It is serialized as a single JSON document per session.
type Session struct {
	SessionID        string    `json:"session_id"`
	Username         string    `json:"username"`
	SessionStartTime time.Time `json:"session_start_time"`

	SelectedFile    string `json:"selected_file,omitempty"`
	OriginalContent string `json:"original_content,omitempty"`

	EnhancedVersions []string        `json:"enhanced_versions"`
	SelectedVersion  *int            `json:"selected_version,omitempty"`
	FeedbackHistory  []FeedbackEntry `json:"feedback_history"`

	CurrentEnhancedVersion string `json:"current_enhanced_version,omitempty"`
	FinalEnhancedVersion   string `json:"final_enhanced_version,omitempty"`

	Actions []Action               `json:"actions"`
	Cache   map[string]*CacheEntry `json:"cache"`
}

// normalize fills nil collections so that documents written by older
// builds (or trimmed by hand) load without nil-map surprises.
func (s *Session) normalize() {
	if s.EnhancedVersions == nil {
		s.EnhancedVersions = []string{}
	}
	if s.FeedbackHistory == nil {
		s.FeedbackHistory = []FeedbackEntry{}
	}
	if s.Actions == nil {
		s.Actions = []Action{}
	}
	if s.Cache == nil {
		s.Cache = make(map[string]*CacheEntry)
	}
}

// Summary is the lightweight listing view of a stored session.
type Summary struct {
	SessionID        string    `json:"session_id"`
	Username         string    `json:"username"`
	SessionStartTime time.Time `json:"session_start_time"`
	SelectedFile     string    `json:"selected_file,omitempty"`
	ActionCount      int       `json:"action_count"`
}
