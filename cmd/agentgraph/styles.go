package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/engine"
)

var (
	colorPrimary   = lipgloss.Color("#7C3AED")
	colorSecondary = lipgloss.Color("#06B6D4")
	colorSuccess   = lipgloss.Color("#10B981")
	colorWarning   = lipgloss.Color("#F59E0B")
	colorError     = lipgloss.Color("#EF4444")
	colorMuted     = lipgloss.Color("#9CA3AF")

	titleStyle     = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	labelStyle     = lipgloss.NewStyle().Foreground(colorSecondary).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warnStyle      = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle     = lipgloss.NewStyle().Foreground(colorError)
	mutedStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	toolStyle      = lipgloss.NewStyle().Foreground(colorMuted).PaddingLeft(2)
)

func renderResult(w io.Writer, res *engine.InvokeResult, showTrace bool) {
	if showTrace {
		for _, tr := range res.ToolTrace {
			line := fmt.Sprintf("↳ %s(%s)", tr.Name, tr.Arguments)
			if tr.Error != "" {
				line += " " + errorStyle.Render(fmt.Sprintf("[%s] %s", tr.Code, tr.Error))
			}
			fmt.Fprintln(w, toolStyle.Render(line))
		}
	}

	fmt.Fprintln(w, assistantStyle.Render(res.Response))

	switch {
	case res.Interrupted:
		fmt.Fprintln(w, warnStyle.Render("(waiting for your answer)"))
	case res.Truncated:
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("(stopped early: %s)", res.StopReason)))
	}
}

func renderSummary(w io.Writer, s *core.TranscriptSummary) {
	fmt.Fprintln(w, titleStyle.Render("Transcript summary"))

	section := func(label string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render(label+":"), strings.Join(items, ", "))
	}

	section("People", s.Entities.People)
	section("Companies", s.Entities.Companies)
	section("Technologies", s.Entities.Technologies)
	section("Locations", s.Entities.Locations)
	section("Key topics", s.KeyTopics)

	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Sentiment:"), s.OverallSentiment)

	if s.TotalDuration != "" {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Duration:"), s.TotalDuration)
	}

	if len(s.Timeline) > 0 {
		fmt.Fprintln(w, labelStyle.Render("Timeline:"))
		for _, e := range s.Timeline {
			stamp := e.Timestamp
			if stamp == "" {
				stamp = "--:--"
			}
			fmt.Fprintf(w, "  %s %s %s\n", mutedStyle.Render(stamp), warnStyle.Render("["+e.Category+"]"), e.Content)
		}
	}

	for _, h := range s.SentimentAnalysis.Highlights {
		fmt.Fprintln(w, assistantStyle.Render("  + "+h))
	}
	for _, l := range s.SentimentAnalysis.Lowlights {
		fmt.Fprintln(w, errorStyle.Render("  - "+l))
	}
}
