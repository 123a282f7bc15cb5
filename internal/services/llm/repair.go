package llm

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bytedance/sonic"
)

var (
	controlCharsRe   = regexp.MustCompile(`[\x00-\x1F\x7F]`)
	trailingCommasRe = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractJSONObject returns the cleaned span from the first '{' to the last
// '}' in raw model output.
func ExtractJSONObject(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end < start {
		return "", fmt.Errorf("%w: no JSON object found", ErrMalformedAIResponse)
	}

	cleaned := controlCharsRe.ReplaceAllString(raw[start:end+1], "")
	cleaned = trailingCommasRe.ReplaceAllString(cleaned, "$1")
	return cleaned, nil
}

// RepairJSON extracts a JSON object from noisy model output and decodes it
// into v. Callers must handle ErrMalformedAIResponse; there is no re-prompt.
func RepairJSON(raw string, v any) error {
	cleaned, err := ExtractJSONObject(raw)
	if err != nil {
		return err
	}

	if err := sonic.UnmarshalString(cleaned, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedAIResponse, err)
	}
	return nil
}
