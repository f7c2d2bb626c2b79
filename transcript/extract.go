package transcript

import (
	"errors"
	"regexp"
	"strings"
)

var errNoJSON = errors.New("no JSON object found in model output")

var fencedJSON = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(\\{.*?\\})\\s*```")

// extractJSON isolates the JSON object in raw model output: the body of a
// fenced code block if present, otherwise the span from the first "{" to
// the last "}".
func extractJSON(raw string) (string, error) {
	raw = strings.TrimSpace(raw)

	if m := fencedJSON.FindStringSubmatch(raw); m != nil {
		return m[1], nil
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")

	if start < 0 || end <= start {
		return "", errNoJSON
	}

	return raw[start : end+1], nil
}
