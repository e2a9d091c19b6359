package ai

import (
	"strings"
	"testing"

	"jdoptim/internal/config"
	"jdoptim/internal/types"
)

func TestResolvePrompt(t *testing.T) {
	tests := []struct {
		name     string
		loaded   string
		config   string
		fallback string
		want     string
	}{
		{name: "file wins", loaded: "from file", config: "from config", fallback: "default", want: "from file"},
		{name: "config wins over default", loaded: "", config: "from config", fallback: "default", want: "from config"},
		{name: "default when nothing else", loaded: "", config: "", fallback: "default", want: "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolvePrompt(tt.loaded, tt.config, tt.fallback); got != tt.want {
				t.Errorf("resolvePrompt() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildEnhancePrompts(t *testing.T) {
	cfg := &config.OperationAIConfig{}

	systemPrompt, userPrompt := buildEnhancePrompts(cfg, "We need a Go engineer.")
	if systemPrompt == "" {
		t.Error("expected a default system prompt")
	}
	if !strings.Contains(userPrompt, "We need a Go engineer.") {
		t.Errorf("user prompt missing job description:\n%s", userPrompt)
	}
}

func TestBuildRefinePrompts(t *testing.T) {
	cfg := &config.OperationAIConfig{}
	input := types.RefineJobInput{
		JobDescription: "original JD",
		BaseVersion:    "selected draft",
		Feedback: []types.FeedbackItem{
			{Feedback: "add salary range", Type: "Hiring Manager Feedback", Role: "EM"},
			{Feedback: "shorten intro", Type: "General Feedback"},
		},
	}

	_, userPrompt := buildRefinePrompts(cfg, input)
	for _, want := range []string{
		"original JD",
		"selected draft",
		"1. [Hiring Manager Feedback] (from EM) add salary range",
		"2. [General Feedback] shorten intro",
	} {
		if !strings.Contains(userPrompt, want) {
			t.Errorf("refine prompt missing %q:\n%s", want, userPrompt)
		}
	}
}

func TestFormatFeedbackEmpty(t *testing.T) {
	got := formatFeedback(nil)
	if !strings.Contains(got, "No specific feedback") {
		t.Errorf("formatFeedback(nil) = %q", got)
	}
}

func TestParseCompletion(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{name: "raw json", text: `{"finalVersion":"v","changesSummary":"s"}`},
		{name: "fenced json", text: "```json\n{\"finalVersion\":\"v\",\"changesSummary\":\"s\"}\n```"},
		{name: "fenced without language", text: "```\n{\"finalVersion\":\"v\",\"changesSummary\":\"s\"}\n```"},
		{name: "not json", text: "sorry, I cannot do that", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := parseCompletion[types.RefineJobOutput](&completion{text: tt.text})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseCompletion failed: %v", err)
			}
			if out.FinalVersion != "v" || out.ChangesSummary != "s" {
				t.Errorf("parsed output = %+v", out)
			}
		})
	}
}
