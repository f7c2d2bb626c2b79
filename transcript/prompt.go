package transcript

import (
	"time"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/internal/util"
	"github.com/hupe1980/agentgraph/model"
)

const schemaName = "transcript_summary"

const instructionTemplate = `You are an expert interview transcript analyzer. Analyze the transcript supplied by the user and produce:

1. Timeline: a chronological list of interview events with timestamps and categories.
2. Entities: people, companies, technologies and locations mentioned.
3. Sentiment: highlights and lowlights of the interview.
4. Key topics and an overall sentiment (Positive, Mixed or Negative).

Today's date is {{.current_date}}.

Rules:
- Respond with a single JSON object matching the {{.schema}} schema and nothing else.
- Use only these timeline categories: {{join ", " .categories}}.
- Timestamps use MM:SS or HH:MM:SS. If the transcript has no timestamps, create logical time intervals.
- confidence_score is a number between 0 and 1.
- List every entity once.
- Set total_duration when it can be determined.
- Be thorough but concise and focus on the most important insights.`

const correctionTemplate = `Your previous response could not be used: {{.reason}}.
Respond again with only a single JSON object matching the {{.schema}} schema. Use only these timeline categories: {{join ", " .categories}}.`

func renderInstruction(vocab Vocabulary, now time.Time) (string, error) {
	return util.RenderTemplate(instructionTemplate, map[string]any{
		"current_date": now.Format("January 02, 2006"),
		"schema":       schemaName,
		"categories":   vocab.Categories(),
	})
}

func renderCorrection(vocab Vocabulary, reason string) (string, error) {
	return util.RenderTemplate(correctionTemplate, map[string]any{
		"reason":     reason,
		"schema":     schemaName,
		"categories": vocab.Categories(),
	})
}

// responseSchema derives the JSON schema of core.TranscriptSummary,
// restricting timeline categories to vocab and hiding fields the pipeline
// fills in itself.
func responseSchema(vocab Vocabulary) *model.ResponseSchema {
	schema := util.CreateSchema(core.TranscriptSummary{})

	props, _ := schema["properties"].(map[string]any)
	delete(props, "metadata")

	if timeline, ok := props["timeline"].(map[string]any); ok {
		if items, ok := timeline["items"].(map[string]any); ok {
			if itemProps, ok := items["properties"].(map[string]any); ok {
				delete(itemProps, "event_count")
				delete(itemProps, "duration")

				if category, ok := itemProps["category"].(map[string]any); ok {
					enum := make([]any, 0, len(vocab.order))
					for _, c := range vocab.order {
						enum = append(enum, c)
					}
					category["enum"] = enum
				}
			}
		}
	}

	return &model.ResponseSchema{
		Name:        schemaName,
		Description: "Structured analysis of an interview transcript: entities, sentiment, timeline and topics.",
		Schema:      schema,
	}
}
