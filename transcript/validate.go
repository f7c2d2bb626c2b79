package transcript

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/hupe1980/agentgraph/core"
)

// FallbackCategory receives timeline entries whose content matches no
// category keywords.
const FallbackCategory = "discussion"

var requiredFields = []string{"entities", "timeline"}

// categoryAliases maps common labels onto the default vocabulary.
var categoryAliases = map[string]string{
	"intro":                "introduction",
	"problem":              "problem_description",
	"problem_discussion":   "problem_description",
	"solution":             "solution_discussion",
	"technical_discussion": "solution_discussion",
	"coding_session":       "coding",
	"implementation":       "coding",
	"testing_validation":   "testing",
	"debugging":            "testing",
	"q_a":                  "questions",
	"q_a_session":          "questions",
	"qa":                   "questions",
	"behavioral_questions": "questions",
	"wrap_up":              "conclusion",
	"closing":              "conclusion",
	"general_discussion":   "discussion",
	"general":              "discussion",
}

// Vocabulary is the set of categories accepted for one analysis: the default
// categories extended by custom ones.
type Vocabulary struct {
	order []string
	known map[string]bool
}

// NewVocabulary merges core.DefaultCategories with custom, normalizing and
// deduplicating labels.
func NewVocabulary(custom []string) Vocabulary {
	v := Vocabulary{known: map[string]bool{}}

	add := func(c string) {
		c = normalizeCategory(c)
		if c == "" || v.known[c] {
			return
		}
		v.known[c] = true
		v.order = append(v.order, c)
	}

	for _, c := range core.DefaultCategories {
		add(c)
	}
	for _, c := range custom {
		add(c)
	}

	return v
}

// Categories returns the labels in order: defaults first, then custom.
func (v Vocabulary) Categories() []string {
	out := make([]string, len(v.order))
	copy(out, v.order)
	return out
}

// Resolve maps label to a recognized category.
func (v Vocabulary) Resolve(label string) (string, bool) {
	c := normalizeCategory(label)
	if v.known[c] {
		return c, true
	}
	if alias, ok := categoryAliases[c]; ok && v.known[alias] {
		return alias, true
	}
	return "", false
}

func normalizeCategory(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))

	var b strings.Builder
	underscore := false

	for _, r := range label {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}

	return strings.TrimRight(b.String(), "_")
}

// decodeSummary parses the JSON object contained in raw.
func decodeSummary(raw string) (*core.TranscriptSummary, error) {
	body, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &probe); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	for _, field := range requiredFields {
		if _, ok := probe[field]; !ok {
			return nil, fmt.Errorf("missing required field %q", field)
		}
	}

	var summary core.TranscriptSummary
	if err := json.Unmarshal([]byte(body), &summary); err != nil {
		return nil, fmt.Errorf("invalid structure: %w", err)
	}

	return &summary, nil
}

// normalizeSummary enforces the summary invariants in place. Entries with an
// unknown category are recategorized from their content, or with strict set
// rejected.
func normalizeSummary(s *core.TranscriptSummary, vocab Vocabulary, strict bool) error {
	s.Entities.People = dedupe(s.Entities.People)
	s.Entities.Companies = dedupe(s.Entities.Companies)
	s.Entities.Technologies = dedupe(s.Entities.Technologies)
	s.Entities.Locations = dedupe(s.Entities.Locations)
	s.KeyTopics = dedupe(s.KeyTopics)
	s.SentimentAnalysis.Highlights = nonEmpty(s.SentimentAnalysis.Highlights)
	s.SentimentAnalysis.Lowlights = nonEmpty(s.SentimentAnalysis.Lowlights)

	timeline := make([]core.TimelineEntry, 0, len(s.Timeline))

	for i, e := range s.Timeline {
		e.Content = strings.TrimSpace(e.Content)
		e.Timestamp = strings.TrimSpace(e.Timestamp)

		if e.Content == "" {
			continue
		}

		cat, ok := vocab.Resolve(e.Category)
		if !ok {
			if strict {
				return fmt.Errorf("timeline[%d]: unknown category %q", i, e.Category)
			}
			cat = Categorize(e.Content)
		}
		e.Category = cat

		if e.ConfidenceScore != nil {
			e.ConfidenceScore = core.Float64(clamp01(*e.ConfidenceScore))
		}

		timeline = append(timeline, e)
	}

	s.Timeline = timeline
	s.OverallSentiment = normalizeSentiment(s.OverallSentiment)
	s.TotalDuration = strings.TrimSpace(s.TotalDuration)

	return nil
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func normalizeSentiment(label string) string {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "positive", "very positive":
		return core.SentimentPositive
	case "negative", "very negative":
		return core.SentimentNegative
	default:
		return core.SentimentMixed
	}
}

// dedupe trims entries, drops blanks and exact duplicates, keeping the first
// occurrence. The result is never nil.
func dedupe(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))

	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}

	return out
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
