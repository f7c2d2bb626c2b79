package transcript

import (
	"regexp"
	"strings"
	"time"
)

// Segment is one utterance of a raw transcript.
type Segment struct {
	Timestamp string        `json:"timestamp,omitempty"`
	Offset    time.Duration `json:"-"`
	Speaker   string        `json:"speaker,omitempty"`
	Content   string        `json:"content"`
	Line      int           `json:"line"`
}

var (
	leadingStamp = regexp.MustCompile(`^[\[\(]?(\d{1,3}:\d{2}(?::\d{2})?(?:[.,]\d{1,3})?)(?:\s*-\s*\d{1,3}:\d{2}(?::\d{2})?)?[\]\)]?\s*[-:|>]?\s*(.*)$`)
	srtSequence  = regexp.MustCompile(`^\d+$`)
	srtTiming    = regexp.MustCompile(`\d{2}:\d{2}:\d{2}.*-->`)
	speakerLine  = regexp.MustCompile(`^([A-Z][A-Za-z .']{0,29}?)\s*(?::|\s-)\s*(.+)$`)
	artifacts    = regexp.MustCompile(`(?i)\[(?:inaudible|unclear|background noise|crosstalk)\]`)
	spaces       = regexp.MustCompile(`\s+`)
)

var continuationOpeners = []string{"hello", "hi", "good", "thank", "so"}

// ParseSegments splits transcript text into timestamped, speaker-attributed
// segments. It understands "[HH:MM:SS] Name: text", "MM:SS - text", ranges,
// SRT blocks and untimed "Name: text" lines. Short untimed lines following a
// timed segment are treated as its continuation.
func ParseSegments(text string) []Segment {
	var (
		segments []Segment
		speaker  string
	)

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || srtSequence.MatchString(line) || srtTiming.MatchString(line) {
			continue
		}

		var (
			stamp   string
			offset  time.Duration
			content = line
		)

		if m := leadingStamp.FindStringSubmatch(line); m != nil {
			if d, ok := ParseTimestamp(m[1]); ok {
				stamp, offset, content = m[1], d, m[2]
			}
		}

		if m := speakerLine.FindStringSubmatch(content); m != nil {
			name := strings.TrimSpace(m[1])
			if len(strings.Fields(name)) <= 3 {
				speaker = name
				content = m[2]
			}
		}

		content = strings.TrimSpace(spaces.ReplaceAllString(artifacts.ReplaceAllString(content, ""), " "))

		if stamp == "" && len(segments) > 0 && isContinuation(segments[len(segments)-1], content) {
			last := &segments[len(segments)-1]
			last.Content += " " + content
			continue
		}

		if len(content) <= 2 {
			continue
		}

		segments = append(segments, Segment{
			Timestamp: stamp,
			Offset:    offset,
			Speaker:   speaker,
			Content:   content,
			Line:      i + 1,
		})
	}

	return segments
}

func isContinuation(prev Segment, content string) bool {
	if prev.Timestamp == "" || content == "" || len(strings.Fields(content)) >= 10 {
		return false
	}

	lower := strings.ToLower(content)
	for _, opener := range continuationOpeners {
		if strings.HasPrefix(lower, opener) {
			return false
		}
	}

	return true
}

// segmentsDuration returns the last segment offset as HH:MM:SS, or "" when
// no segment is timed.
func segmentsDuration(segments []Segment) string {
	var (
		latest time.Duration
		found  bool
	)

	for _, s := range segments {
		if s.Timestamp == "" {
			continue
		}
		if !found || s.Offset > latest {
			latest = s.Offset
		}
		found = true
	}

	if !found {
		return ""
	}

	return formatClock(latest)
}

// speakers returns distinct speakers in first-seen order.
func speakers(segments []Segment) []string {
	var out []string
	seen := map[string]bool{}

	for _, s := range segments {
		if s.Speaker == "" || seen[s.Speaker] {
			continue
		}
		seen[s.Speaker] = true
		out = append(out, s.Speaker)
	}

	return out
}
