package core

// DefaultCategories is the built-in timeline category vocabulary. Callers
// may extend it per analysis with custom categories.
var DefaultCategories = []string{
	"introduction",
	"problem_description",
	"solution_discussion",
	"coding",
	"testing",
	"questions",
	"conclusion",
	"discussion",
}

// Overall sentiment labels.
const (
	SentimentPositive = "Positive"
	SentimentMixed    = "Mixed"
	SentimentNegative = "Negative"
)

// EntityExtraction lists entities mentioned in a transcript. Each list is
// order-preserving and free of exact duplicates after validation.
type EntityExtraction struct {
	People       []string `json:"people" yaml:"people" description:"Names of people mentioned in the transcript"`
	Companies    []string `json:"companies" yaml:"companies" description:"Company and organization names mentioned in the transcript"`
	Technologies []string `json:"technologies" yaml:"technologies" description:"Technologies, programming languages and tools mentioned"`
	Locations    []string `json:"locations" yaml:"locations" description:"Locations mentioned in the transcript"`
}

// SentimentAnalysis holds ordered highlight and lowlight statements.
type SentimentAnalysis struct {
	Highlights []string `json:"highlights" yaml:"highlights" description:"Positive moments and achievements"`
	Lowlights  []string `json:"lowlights" yaml:"lowlights" description:"Areas for improvement or concerning moments"`
}

// TimelineEntry is one categorized moment of the transcript.
type TimelineEntry struct {
	Timestamp       string   `json:"timestamp,omitempty" yaml:"timestamp,omitempty" description:"Timestamp (MM:SS or HH:MM:SS) or range start-end"`
	Category        string   `json:"category" yaml:"category" description:"Category label from the allowed vocabulary"`
	Content         string   `json:"content" yaml:"content" description:"What happened at this point"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty" yaml:"confidence_score,omitempty" description:"Confidence of the categorization between 0 and 1"`

	// Set by timeline consolidation only.
	EventCount int    `json:"event_count,omitempty" yaml:"event_count,omitempty"`
	Duration   string `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// TranscriptSummary is the structured output of the transcript analysis pipeline.
type TranscriptSummary struct {
	Entities          EntityExtraction  `json:"entities" yaml:"entities" description:"Extracted entities"`
	SentimentAnalysis SentimentAnalysis `json:"sentiment_analysis" yaml:"sentiment_analysis" description:"Highlights and lowlights"`
	Timeline          []TimelineEntry   `json:"timeline" yaml:"timeline" description:"Chronological timeline of events"`
	TotalDuration     string            `json:"total_duration,omitempty" yaml:"total_duration,omitempty" description:"Total duration if determinable"`
	KeyTopics         []string          `json:"key_topics" yaml:"key_topics" description:"Main topics discussed"`
	OverallSentiment  string            `json:"overall_sentiment" yaml:"overall_sentiment" enum:"Positive,Mixed,Negative" description:"Overall sentiment label"`
	Metadata          map[string]any    `json:"metadata,omitempty" yaml:"metadata,omitempty" description:"Additional metadata about the analysis"`
}

// Float64 returns a pointer to v, for optional confidence scores.
func Float64(v float64) *float64 { return &v }
