package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeJSONObject extracts the first JSON object from a model response and
// decodes it into dst. Models routinely wrap JSON in markdown fences or
// surround it with prose; everything outside the outermost braces is
// discarded.
func DecodeJSONObject(output string, dst interface{}) error {
	clean := strings.TrimSpace(output)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)
	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("no json object in ai response")
	}
	if err := json.Unmarshal([]byte(clean[start:end+1]), dst); err != nil {
		return fmt.Errorf("parse ai response: %w", err)
	}
	return nil
}
