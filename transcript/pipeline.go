package transcript

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/model"
)

// MaxAttempts is the number of generations per analysis: the first attempt
// plus one corrective retry.
const MaxAttempts = 2

// Options configures a Pipeline.
type Options struct {
	// ModelTimeout bounds each generation (0 = caller's context only).
	ModelTimeout time.Duration

	// StrictCategories rejects unknown timeline categories (triggering the
	// corrective retry) instead of recategorizing them by keywords.
	StrictCategories bool

	// Backfill fills entities, sentiment and timeline from keyword
	// heuristics when a live model leaves them empty.
	Backfill bool

	// Consolidate merges consecutive same-category timeline entries.
	Consolidate bool

	// ConsolidationWindow overrides DefaultConsolidationWindow.
	ConsolidationWindow time.Duration

	// Now is the clock used for prompts and metadata.
	Now func() time.Time

	Logger logging.Logger
}

// Pipeline turns transcript text into a validated core.TranscriptSummary.
// It holds no per-call state and is safe for concurrent use.
type Pipeline struct {
	opts   Options
	logger logging.Logger
}

// NewPipeline creates a pipeline.
func NewPipeline(optFns ...func(o *Options)) *Pipeline {
	opts := Options{
		ModelTimeout:        60 * time.Second,
		ConsolidationWindow: DefaultConsolidationWindow,
		Backfill:            true,
		Now:                 time.Now,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Pipeline{opts: opts, logger: logging.OrNoOp(opts.Logger)}
}

// Analyze runs the analysis of text with m. custom extends the default
// category vocabulary for this call.
//
// Errors: *core.MalformedAnalysisError for empty input or output that stays
// invalid after the corrective retry; *core.ProviderError for model
// failures; core.ErrDeadlineExceeded when ctx expires.
func (p *Pipeline) Analyze(ctx context.Context, m model.Model, text string, custom []string) (*core.TranscriptSummary, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &core.MalformedAnalysisError{Attempts: 0, Reason: "transcript text is empty"}
	}

	info := m.Info()
	vocab := NewVocabulary(custom)
	now := p.opts.Now()
	start := time.Now()

	instruction, err := renderInstruction(vocab, now)
	if err != nil {
		return nil, fmt.Errorf("render transcript instruction: %w", err)
	}

	req := model.Request{
		Instructions:   instruction,
		Messages:       []core.Message{core.NewUserMessage(text)},
		ResponseSchema: responseSchema(vocab),
	}

	p.logger.Info("transcript.analyze.start", "model", info.Name, "provider", info.Provider, "chars", len(text), "custom_categories", len(custom))

	var (
		summary *core.TranscriptSummary
		raw     string
		reason  string
		attempt int
	)

	for attempt = 1; attempt <= MaxAttempts; attempt++ {
		msg, err := p.generate(ctx, m, req)
		if err != nil {
			p.logger.Error("transcript.analyze.error", "model", info.Name, "attempt", attempt, "error", err.Error())
			return nil, err
		}

		raw = msg.Text()

		summary, err = decodeSummary(raw)
		if err == nil {
			err = normalizeSummary(summary, vocab, p.opts.StrictCategories)
		}

		if err == nil {
			break
		}

		reason = err.Error()
		summary = nil

		p.logger.Warn("transcript.analyze.malformed", "model", info.Name, "attempt", attempt, "reason", reason)

		if attempt == MaxAttempts {
			break
		}

		correction, cerr := renderCorrection(vocab, reason)
		if cerr != nil {
			return nil, fmt.Errorf("render correction: %w", cerr)
		}

		req.Messages = append(req.Messages, core.NewAssistantMessage(raw), core.NewUserMessage(correction))
	}

	if summary == nil {
		return nil, &core.MalformedAnalysisError{Attempts: MaxAttempts, Reason: reason, Raw: raw}
	}

	segments := ParseSegments(text)

	var filled []string
	if p.opts.Backfill && !info.IsMock() {
		filled = backfill(summary, text, segments)
	}

	if p.opts.Consolidate {
		summary.Timeline = Consolidate(summary.Timeline, p.opts.ConsolidationWindow)
	}

	if summary.TotalDuration == "" {
		summary.TotalDuration = InferDuration(summary.Timeline)
	}
	if summary.TotalDuration == "" {
		summary.TotalDuration = segmentsDuration(segments)
	}

	summary.Metadata = map[string]any{
		"processed_at":  now.UTC().Format(time.RFC3339),
		"model_used":    info.Name,
		"provider":      info.Provider,
		"attempts":      attempt,
		"mock":          info.IsMock(),
		"segment_count": len(segments),
	}

	if len(filled) > 0 {
		summary.Metadata["backfilled"] = filled
	}

	if sp := speakers(segments); len(sp) > 0 {
		summary.Metadata["speakers"] = sp
	}

	if len(custom) > 0 {
		summary.Metadata["custom_categories"] = vocab.Categories()[len(core.DefaultCategories):]
	}

	p.logger.Info("transcript.analyze.complete",
		"model", info.Name,
		"attempts", attempt,
		"timeline_entries", len(summary.Timeline),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return summary, nil
}

func (p *Pipeline) generate(ctx context.Context, m model.Model, req model.Request) (core.Message, error) {
	callCtx := ctx
	if p.opts.ModelTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.opts.ModelTimeout)
		defer cancel()
	}

	msg, err := model.Collect(callCtx, m, req)
	if err == nil {
		return msg, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return core.Message{}, fmt.Errorf("%w: %v", core.ErrDeadlineExceeded, ctxErr)
		}
		return core.Message{}, ctxErr
	}

	var pe *core.ProviderError
	if errors.As(err, &pe) {
		return core.Message{}, err
	}

	info := m.Info()

	return core.Message{}, core.NewProviderError(info.Provider, info.Name, "", err)
}
