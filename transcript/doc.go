// Package transcript implements the transcript analysis pipeline: a single
// structured-output model call that turns raw interview transcript text into
// a core.TranscriptSummary (timeline, entities, sentiment, topics).
//
// The pipeline never loops over tools. It asks for JSON matching the summary
// schema, extracts and validates the record, and retries exactly once with a
// corrective instruction when the output is unusable. A second failure is
// reported as *core.MalformedAnalysisError; data is never fabricated.
//
// Validation guarantees on every returned summary:
//   - timeline categories belong to the default vocabulary or the caller's
//     custom categories
//   - confidence scores lie in [0, 1]
//   - entity and topic lists hold no exact duplicates, first occurrence wins
//   - overall_sentiment is one of Positive, Mixed, Negative
package transcript
