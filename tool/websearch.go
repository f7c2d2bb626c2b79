package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/hupe1980/agentgraph/core"
)

// WebSearchName is the registered name of the web search tool.
const WebSearchName = "web_search"

const (
	defaultSearchCount = 5
	maxSearchCount     = 20
)

// ErrSearchUnavailable is returned by providers that cannot be reached or
// answer with an unusable response.
var ErrSearchUnavailable = errors.New("search unavailable")

// SearchResult is a single hit returned by a SearchProvider.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// SearchProvider performs the network side of a web search.
type SearchProvider interface {
	Name() string
	Search(ctx context.Context, query string, count int) ([]SearchResult, error)
}

// WebSearchOptions configures the web search tool.
type WebSearchOptions struct {
	DefaultCount int
	MaxCount     int
}

type webSearchArgs struct {
	Query string `json:"query" description:"Search query"`
	Count int    `json:"count,omitempty" description:"Number of results (default: 5, max: 20)"`
}

// NewWebSearch returns the web search tool backed by provider. Results are
// rendered as an ordered list of short text snippets. Any provider failure,
// including a timeout of the tool context, is reported as SEARCH_UNAVAILABLE.
func NewWebSearch(provider SearchProvider, optFns ...func(o *WebSearchOptions)) *FunctionTool {
	opts := WebSearchOptions{
		DefaultCount: defaultSearchCount,
		MaxCount:     maxSearchCount,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return NewTypedTool(
		WebSearchName,
		"Searches the web for up-to-date information and returns a list of short snippets.",
		func(tc *core.ToolContext, in webSearchArgs) (any, error) {
			query := strings.TrimSpace(in.Query)
			if query == "" {
				return nil, &ToolError{Tool: WebSearchName, Message: "query is required", Code: CodeValidation}
			}

			count := in.Count
			if count <= 0 {
				count = opts.DefaultCount
			}
			if count > opts.MaxCount {
				count = opts.MaxCount
			}

			results, err := provider.Search(tc.Context(), query, count)
			if err != nil {
				tc.LogWarn("tool.web_search.unavailable", "provider", provider.Name(), "error", err.Error())

				return nil, &ToolError{
					Tool:    WebSearchName,
					Message: fmt.Sprintf("search provider %s unavailable: %v", provider.Name(), err),
					Code:    CodeSearchUnavailable,
				}
			}

			if len(results) > count {
				results = results[:count]
			}

			snippets := make([]string, 0, len(results))
			for _, r := range results {
				snippets = append(snippets, formatSnippet(r))
			}

			return snippets, nil
		},
	)
}

func formatSnippet(r SearchResult) string {
	var sb strings.Builder

	sb.WriteString(r.Title)

	if r.URL != "" {
		sb.WriteString(" (")
		sb.WriteString(r.URL)
		sb.WriteString(")")
	}

	if r.Snippet != "" {
		sb.WriteString(": ")
		sb.WriteString(r.Snippet)
	}

	return strings.TrimSpace(sb.String())
}

// htmlToText converts provider HTML fragments into compact markdown text.
// On conversion failure the raw fragment is returned.
func htmlToText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.TrimSpace(fragment)
	}

	md, err := htmltomarkdown.ConvertString(fragment)
	if err != nil {
		return strings.TrimSpace(fragment)
	}

	return strings.Join(strings.Fields(md), " ")
}
