package transcript

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/agentgraph/core"
)

// DefaultConsolidationWindow is the largest gap between two same-category
// entries that Consolidate still merges.
const DefaultConsolidationWindow = 120 * time.Second

const defaultEntryConfidence = 0.8

// ParseTimestamp parses "MM:SS" or "HH:MM:SS" (optionally bracketed, with a
// fractional second suffix). For a range "start-end" the start is used.
func ParseTimestamp(s string) (time.Duration, bool) {
	start, _, ok := parseRange(s)
	return start, ok
}

// parseRange returns start and end of a timestamp or range. For a single
// timestamp end equals start.
func parseRange(s string) (time.Duration, time.Duration, bool) {
	s = strings.Trim(strings.TrimSpace(s), "[]()")

	if before, after, found := strings.Cut(s, "-"); found {
		start, ok := parseClock(before)
		if !ok {
			return 0, 0, false
		}

		end, ok := parseClock(after)
		if !ok || end < start {
			end = start
		}

		return start, end, true
	}

	d, ok := parseClock(s)

	return d, d, ok
}

func parseClock(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	// Drop fractional seconds ("00:01:02.345", SRT "00:01:02,345").
	if i := strings.IndexAny(s, ".,"); i >= 0 {
		s = s[:i]
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, false
	}

	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0, false
		}
		nums[i] = n
	}

	var h, m, sec int
	if len(nums) == 3 {
		h, m, sec = nums[0], nums[1], nums[2]
		if m > 59 {
			return 0, false
		}
	} else {
		m, sec = nums[0], nums[1]
	}

	if sec > 59 {
		return 0, false
	}

	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second, true
}

// FormatTimestamp renders d as MM:SS, or HH:MM:SS from one hour on.
func FormatTimestamp(d time.Duration) string {
	total := int(d / time.Second)
	if total >= 3600 {
		return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// FormatRange renders "start-end", or a single timestamp when both are equal.
func FormatRange(start, end time.Duration) string {
	if start == end {
		return FormatTimestamp(start)
	}
	return FormatTimestamp(start) + "-" + FormatTimestamp(end)
}

// formatClock renders d as HH:MM:SS.
func formatClock(d time.Duration) string {
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// formatSpan renders a positive span as "Xm Ys", "Xm" or "Ns".
func formatSpan(d time.Duration) string {
	total := int(d / time.Second)
	if total >= 60 {
		if total%60 > 0 {
			return fmt.Sprintf("%dm %ds", total/60, total%60)
		}
		return fmt.Sprintf("%dm", total/60)
	}
	return fmt.Sprintf("%ds", total)
}

// InferDuration returns the latest timestamp found in entries as HH:MM:SS,
// or "" if none carries a parseable timestamp.
func InferDuration(entries []core.TimelineEntry) string {
	var (
		latest time.Duration
		found  bool
	)

	for _, e := range entries {
		_, end, ok := parseRange(e.Timestamp)
		if !ok {
			continue
		}
		if !found || end > latest {
			latest = end
		}
		found = true
	}

	if !found {
		return ""
	}

	return formatClock(latest)
}

// Consolidate merges consecutive entries of the same category whose
// timestamps lie within window of the previous entry. A merged entry spans
// the group's timestamp range, averages confidence (missing scores count as
// 0.8) and records EventCount and Duration. Entries without a parseable
// timestamp count as 00:00.
func Consolidate(entries []core.TimelineEntry, window time.Duration) []core.TimelineEntry {
	if len(entries) <= 1 {
		return entries
	}

	if window <= 0 {
		window = DefaultConsolidationWindow
	}

	var (
		out   []core.TimelineEntry
		group []core.TimelineEntry
	)

	flush := func() {
		if len(group) > 0 {
			out = append(out, mergeGroup(group))
			group = nil
		}
	}

	for _, e := range entries {
		if len(group) == 0 || group[0].Category != e.Category {
			flush()
			group = []core.TimelineEntry{e}
			continue
		}

		last, _ := ParseTimestamp(group[len(group)-1].Timestamp)
		cur, _ := ParseTimestamp(e.Timestamp)

		gap := cur - last
		if gap < 0 {
			gap = -gap
		}

		if gap <= window {
			group = append(group, e)
			continue
		}

		flush()
		group = []core.TimelineEntry{e}
	}

	flush()

	return out
}

func mergeGroup(group []core.TimelineEntry) core.TimelineEntry {
	if len(group) == 1 {
		return group[0]
	}

	merged := core.TimelineEntry{
		Category:   group[0].Category,
		EventCount: len(group),
	}

	var (
		start, end time.Duration
		stamps     int
		contents   []string
		confSum    float64
	)

	for _, e := range group {
		if e.Timestamp != "" {
			if s, en, ok := parseRange(e.Timestamp); ok {
				if stamps == 0 || s < start {
					start = s
				}
				if stamps == 0 || en > end {
					end = en
				}
				stamps++
			}
		}

		if e.Content != "" {
			contents = append(contents, e.Content)
		}

		if e.ConfidenceScore != nil {
			confSum += *e.ConfidenceScore
		} else {
			confSum += defaultEntryConfidence
		}
	}

	if stamps > 0 {
		merged.Timestamp = FormatRange(start, end)
	} else {
		merged.Timestamp = group[0].Timestamp
	}

	if stamps >= 2 && end > start {
		merged.Duration = formatSpan(end - start)
	}

	merged.Content = mergeContents(merged.Category, contents)
	merged.ConfidenceScore = core.Float64(math.Round(confSum/float64(len(group))*100) / 100)

	return merged
}

func mergeContents(category string, contents []string) string {
	switch {
	case len(contents) == 0:
		return ""
	case len(contents) == 1:
		return contents[0]
	case category == "introduction":
		head := contents
		if len(head) > 3 {
			head = head[:3]
		}
		return "Introduction phase covering " + strings.Join(head, ", ")
	case category == "questions":
		return fmt.Sprintf("Q&A session with %d questions and discussions", len(contents))
	default:
		return fmt.Sprintf("%s. Discussion continued with %d additional points including %s",
			strings.TrimRight(contents[0], "."), len(contents)-1, contents[len(contents)-1])
	}
}
