package discovery

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// ErrEmptyModelResponse indicates the model returned no usable text after
// all retry attempts were exhausted.
var ErrEmptyModelResponse = errors.New("model returned an empty response")

// ErrMalformedResponse indicates the model output could not be parsed as a
// JSON object, even after a repair round-trip.
var ErrMalformedResponse = errors.New("model returned malformed JSON")

var (
	fenceOpenRe  = regexp.MustCompile("^```(?:json)?\\s*")
	fenceCloseRe = regexp.MustCompile("\\s*```$")
	controlRe    = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
)

// cleanJSONText normalizes raw model output into something json.Unmarshal
// has a chance with: strips markdown code fences, strips control characters,
// and extracts the outermost {...} object when the model wrapped the JSON
// in prose.
func cleanJSONText(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}

	text = fenceOpenRe.ReplaceAllString(text, "")
	text = fenceCloseRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	text = controlRe.ReplaceAllString(text, "")

	// Extract the outermost object if the payload is wrapped in commentary.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

// parseObjectResponse cleans raw model output and unmarshals it into a
// generic JSON object. Both failure modes wrap ErrMalformedResponse so the
// caller can decide whether a repair round-trip is warranted.
func parseObjectResponse(raw string) (map[string]interface{}, error) {
	cleaned := cleanJSONText(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("no JSON object found in response: %w", ErrMalformedResponse)
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("failed to parse response as JSON object (%v): %w", err, ErrMalformedResponse)
	}

	return data, nil
}

// writeDebugFile dumps raw model output under debugDir for postmortem
// inspection. Failures are swallowed: debug dumps must never affect the
// discovery outcome. Returns the written path, or empty string.
func writeDebugFile(debugDir, label, content string) string {
	if debugDir == "" {
		return ""
	}
	if err := os.MkdirAll(debugDir, 0755); err != nil {
		return ""
	}

	name := fmt.Sprintf("%s_%s.txt", label, time.Now().Format("20060102_150405"))
	path := filepath.Join(debugDir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return ""
	}
	return path
}
