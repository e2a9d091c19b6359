package types

// EnhanceJobInput represents the input for enhancing a job description
type EnhanceJobInput struct {
	JobDescription string `json:"jobDescription"`
	FileName       string `json:"fileName,omitempty"`
}

// EnhanceJobOutput represents the generated candidate versions
type EnhanceJobOutput struct {
	EnhancedVersions []string `json:"enhancedVersions"`
	Summary          string   `json:"summary"`
}

// FeedbackItem is one piece of reviewer feedback passed to refinement
type FeedbackItem struct {
	Feedback string `json:"feedback"`
	Type     string `json:"type"`
	Role     string `json:"role,omitempty"`
}

// RefineJobInput represents the input for refining a selected version
type RefineJobInput struct {
	JobDescription string         `json:"jobDescription"`
	BaseVersion    string         `json:"baseVersion"`
	Feedback       []FeedbackItem `json:"feedback,omitempty"`
}

// RefineJobOutput represents the refined final version
type RefineJobOutput struct {
	FinalVersion   string `json:"finalVersion"`
	ChangesSummary string `json:"changesSummary"`
}
