package transcript

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgraph/internal/testutil"
)

const interviewTranscript = `[00:00:00] Interviewer: Welcome Jane Doe, thanks for joining from Berlin.
[00:00:06] Jane Doe: I worked at Google on Kubernetes and Golang services before Acme Technologies.
[00:01:00] Interviewer: We are fully remote and use PostgreSQL.`

func TestExtractEntities(t *testing.T) {
	e := ExtractEntities(interviewTranscript)

	assert.Equal(t, []string{"Jane Doe"}, e.People)
	assert.Equal(t, []string{"Google", "Acme Technologies"}, e.Companies)
	assert.Equal(t, []string{"Kubernetes", "Go", "PostgreSQL"}, e.Technologies)
	assert.Equal(t, []string{"Berlin", "Remote"}, e.Locations)
}

func TestExtractEntities_Rules(t *testing.T) {
	tests := []struct {
		name string
		text string
		want func(t *testing.T, got []string, techs []string)
	}{
		{
			name: "meta dropped when facebook is named",
			text: "Worked at Meta and Facebook.",
			want: func(t *testing.T, companies, _ []string) {
				assert.Equal(t, []string{"Facebook"}, companies)
			},
		},
		{
			name: "terms only match whole words",
			text: "rapid progress on the restaurant app",
			want: func(t *testing.T, _, techs []string) {
				assert.Empty(t, techs)
			},
		},
		{
			name: "symbols in terms",
			text: "We moved from C++ to C# and Node.js.",
			want: func(t *testing.T, _, techs []string) {
				assert.Equal(t, []string{"C++", "C#", "node.js"}, techs)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := ExtractEntities(tt.text)
			tt.want(t, e.Companies, e.Technologies)
		})
	}
}

func TestAnalyzeSentiment(t *testing.T) {
	text := "[00:00:01] Ann: The solution was excellent and clear. I was stuck on the error handling for a while. Ok.\n" +
		"[00:00:09] Bob: That went great overall, really impressed!"

	s := AnalyzeSentiment(text)

	assert.Equal(t, []string{
		"The solution was excellent and clear",
		"That went great overall, really impressed",
	}, s.Highlights)
	assert.Equal(t, []string{"I was stuck on the error handling for a while"}, s.Lowlights)
}

func TestAnalyzeSentiment_Capped(t *testing.T) {
	text := strings.Repeat("This part of the answer was excellent. ", MaxSentimentStatements+2)

	s := AnalyzeSentiment(text)

	assert.Len(t, s.Highlights, MaxSentimentStatements)
	assert.Empty(t, s.Lowlights)
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{"Thanks for joining, tell me about yourself", "introduction"},
		{"Let's write code for this function", "coding"},
		{"We need to debug this edge case", "testing"},
		{"Next steps and feedback, thank you", "conclusion"},
		{"Any questions you want to ask me?", "questions"},
		{"this is history", FallbackCategory},
		{"the weather is nice", FallbackCategory},
	}

	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.content))
		})
	}
}

func TestAnalyze_BackfillsEmptyFields(t *testing.T) {
	m := testutil.NewScriptedModel(testutil.Reply(`{"entities":{},"timeline":[]}`))

	summary, err := newPipeline().Analyze(context.Background(), m, interviewTranscript, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Jane Doe"}, summary.Entities.People)
	require.Len(t, summary.Timeline, 3)
	assert.Equal(t, "introduction", summary.Timeline[0].Category)
	assert.Equal(t, "00:00:00", summary.Timeline[0].Timestamp)
	assert.True(t, strings.HasPrefix(summary.Timeline[1].Content, "Jane Doe: "))
	assert.Equal(t, []string{"entities", "timeline"}, summary.Metadata["backfilled"])
}

func TestAnalyze_BackfillDisabled(t *testing.T) {
	m := testutil.NewScriptedModel(testutil.Reply(`{"entities":{},"timeline":[]}`))

	summary, err := newPipeline(func(o *Options) { o.Backfill = false }).
		Analyze(context.Background(), m, interviewTranscript, nil)
	require.NoError(t, err)

	assert.Empty(t, summary.Entities.People)
	assert.Empty(t, summary.Timeline)
	assert.NotContains(t, summary.Metadata, "backfilled")
}

func TestAnalyze_UnknownCategoryRecategorized(t *testing.T) {
	body := `{"entities":{"people":["Ann"]},"timeline":[{"category":"smalltalk","content":"Let's write code for the parser"}]}`

	summary, err := newPipeline().Analyze(context.Background(), testutil.NewScriptedModel(testutil.Reply(body)), "Ann: hi", nil)
	require.NoError(t, err)

	require.Len(t, summary.Timeline, 1)
	assert.Equal(t, "coding", summary.Timeline[0].Category)
}
