package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"jdoptim/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "EnhanceJobOutput", &EnhanceTextFormatter{})
	registry.RegisterFormatter("markdown", "EnhanceJobOutput", &EnhanceMarkdownFormatter{})
	registry.RegisterFormatter("text", "RefineJobOutput", &RefineTextFormatter{})
	registry.RegisterFormatter("markdown", "RefineJobOutput", &RefineMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.EnhanceJobOutput:
		return "EnhanceJobOutput"
	case types.RefineJobOutput:
		return "RefineJobOutput"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// EnhanceTextFormatter handles text formatting for enhancement results
type EnhanceTextFormatter struct{}

func (etf *EnhanceTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.EnhanceJobOutput)
	if !ok {
		return "", fmt.Errorf("expected EnhanceJobOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== ENHANCED JOB DESCRIPTION VERSIONS ===\n\n")
	for i, version := range result.EnhancedVersions {
		output.WriteString(fmt.Sprintf("--- Version %d ---\n", i+1))
		output.WriteString(version)
		output.WriteString("\n\n")
	}

	output.WriteString("=== SUMMARY OF CHANGES ===\n")
	output.WriteString(result.Summary)
	output.WriteString("\n")

	return output.String(), nil
}

func (etf *EnhanceTextFormatter) SupportedType() string {
	return "EnhanceJobOutput"
}

// EnhanceMarkdownFormatter handles markdown formatting for enhancement results
type EnhanceMarkdownFormatter struct{}

func (emf *EnhanceMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.EnhanceJobOutput)
	if !ok {
		return "", fmt.Errorf("expected EnhanceJobOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Enhanced Job Description Versions\n\n")
	for i, version := range result.EnhancedVersions {
		output.WriteString(fmt.Sprintf("## Version %d\n\n", i+1))
		output.WriteString(version)
		output.WriteString("\n\n")
	}

	output.WriteString("## Summary of Changes\n\n")
	output.WriteString(result.Summary)
	output.WriteString("\n")

	return output.String(), nil
}

func (emf *EnhanceMarkdownFormatter) SupportedType() string {
	return "EnhanceJobOutput"
}

// RefineTextFormatter handles text formatting for refinement results
type RefineTextFormatter struct{}

func (rtf *RefineTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.RefineJobOutput)
	if !ok {
		return "", fmt.Errorf("expected RefineJobOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== FINAL JOB DESCRIPTION ===\n\n")
	output.WriteString(result.FinalVersion)
	output.WriteString("\n\n")

	output.WriteString("=== CHANGES APPLIED ===\n")
	output.WriteString(result.ChangesSummary)
	output.WriteString("\n")

	return output.String(), nil
}

func (rtf *RefineTextFormatter) SupportedType() string {
	return "RefineJobOutput"
}

// RefineMarkdownFormatter handles markdown formatting for refinement results
type RefineMarkdownFormatter struct{}

func (rmf *RefineMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.RefineJobOutput)
	if !ok {
		return "", fmt.Errorf("expected RefineJobOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Final Job Description\n\n")
	output.WriteString(result.FinalVersion)
	output.WriteString("\n\n")

	output.WriteString("## Changes Applied\n\n")
	output.WriteString(result.ChangesSummary)
	output.WriteString("\n")

	return output.String(), nil
}

func (rmf *RefineMarkdownFormatter) SupportedType() string {
	return "RefineJobOutput"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
