package transcript

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgraph/core"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"01:30", 90 * time.Second, true},
		{"1:02:03", time.Hour + 2*time.Minute + 3*time.Second, true},
		{"[00:05]", 5 * time.Second, true},
		{"00:00:04,500", 4 * time.Second, true},
		{"00:00:00-00:00:04", 0, true},
		{"125:30", 125*time.Minute + 30*time.Second, true},
		{"00:61", 0, false},
		{"1:75:00", 0, false},
		{"soon", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "01:05", FormatTimestamp(65*time.Second))
	assert.Equal(t, "01:00:05", FormatTimestamp(time.Hour+5*time.Second))
	assert.Equal(t, "00:10-00:40", FormatRange(10*time.Second, 40*time.Second))
	assert.Equal(t, "00:10", FormatRange(10*time.Second, 10*time.Second))
}

func TestInferDuration(t *testing.T) {
	entries := []core.TimelineEntry{
		{Timestamp: "00:10"},
		{Timestamp: "01:00-02:30"},
		{Timestamp: "n/a"},
	}
	assert.Equal(t, "00:02:30", InferDuration(entries))
	assert.Equal(t, "", InferDuration([]core.TimelineEntry{{Content: "untimed"}}))
}

func TestConsolidate(t *testing.T) {
	entries := []core.TimelineEntry{
		{Timestamp: "00:00", Category: "introduction", Content: "Greeting", ConfidenceScore: core.Float64(0.9)},
		{Timestamp: "00:30", Category: "introduction", Content: "Background"},
		{Timestamp: "01:00", Category: "coding", Content: "Starts coding", ConfidenceScore: core.Float64(0.7)},
		{Timestamp: "05:00", Category: "coding", Content: "Finishes"},
		{Timestamp: "05:40", Category: "coding", Content: "Refactors."},
	}

	out := Consolidate(entries, 0)
	require.Len(t, out, 3)

	assert.Equal(t, "00:00-00:30", out[0].Timestamp)
	assert.Equal(t, "Introduction phase covering Greeting, Background", out[0].Content)
	assert.Equal(t, 0.85, *out[0].ConfidenceScore)
	assert.Equal(t, 2, out[0].EventCount)
	assert.Equal(t, "30s", out[0].Duration)

	// 01:00 -> 05:00 exceeds the window.
	assert.Equal(t, entries[2], out[1])

	assert.Equal(t, "05:00-05:40", out[2].Timestamp)
	assert.Equal(t, "Finishes. Discussion continued with 1 additional points including Refactors.", out[2].Content)
	assert.Equal(t, "40s", out[2].Duration)
}

func TestConsolidate_Questions(t *testing.T) {
	out := Consolidate([]core.TimelineEntry{
		{Timestamp: "10:00", Category: "questions", Content: "a"},
		{Timestamp: "10:30", Category: "questions", Content: "b"},
		{Timestamp: "12:00", Category: "questions", Content: "c"},
	}, time.Minute*2)

	require.Len(t, out, 1)
	assert.Equal(t, "Q&A session with 3 questions and discussions", out[0].Content)
	assert.Equal(t, "2m", out[0].Duration)
	assert.Equal(t, 0.8, *out[0].ConfidenceScore)
}

func TestParseSegments(t *testing.T) {
	text := `1
00:00:01,000 --> 00:00:04,000
[00:00:01] Sarah Lee: Welcome to the interview [inaudible] today.
and the team
00:45 - Tom: Thanks, glad to be here.
Tom: So what is next?
ok`

	segs := ParseSegments(text)
	require.Len(t, segs, 3)

	assert.Equal(t, "00:00:01", segs[0].Timestamp)
	assert.Equal(t, "Sarah Lee", segs[0].Speaker)
	assert.Equal(t, "Welcome to the interview today. and the team", segs[0].Content)

	assert.Equal(t, 45*time.Second, segs[1].Offset)
	assert.Equal(t, "Tom", segs[1].Speaker)

	assert.Equal(t, "", segs[2].Timestamp)
	assert.Equal(t, "So what is next?", segs[2].Content)

	assert.Equal(t, "00:00:45", segmentsDuration(segs))
	assert.Equal(t, []string{"Sarah Lee", "Tom"}, speakers(segs))
}
