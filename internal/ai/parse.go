package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseCompletion decodes a model completion into the operation's output
// type. Some models wrap JSON payloads in markdown fences even when asked
// for raw JSON, so fences are stripped before decoding.
func parseCompletion[Out any](c *completion) (Out, error) {
	var output Out
	text := strings.TrimSpace(c.text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	if err := json.Unmarshal([]byte(text), &output); err != nil {
		return output, fmt.Errorf("decoding model response: %w", err)
	}
	return output, nil
}
