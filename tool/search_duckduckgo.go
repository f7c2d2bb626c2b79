package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DuckDuckGoProvider queries the keyless DuckDuckGo Instant Answer API. It
// returns the abstract (if any) followed by related topics.
type DuckDuckGoProvider struct {
	baseURL string
	client  *http.Client
}

// NewDuckDuckGoProvider creates a DuckDuckGo provider.
func NewDuckDuckGoProvider() *DuckDuckGoProvider {
	return &DuckDuckGoProvider{
		baseURL: "https://api.duckduckgo.com/",
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (d *DuckDuckGoProvider) Name() string { return "duckduckgo" }

type ddgResponse struct {
	Heading       string     `json:"Heading"`
	AbstractText  string     `json:"AbstractText"`
	AbstractURL   string     `json:"AbstractURL"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

type ddgTopic struct {
	Text     string     `json:"Text"`
	FirstURL string     `json:"FirstURL"`
	Result   string     `json:"Result"`
	Topics   []ddgTopic `json:"Topics"`
}

func (d *DuckDuckGoProvider) Search(ctx context.Context, query string, count int) ([]SearchResult, error) {
	u, err := url.Parse(d.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse base url: %v", ErrSearchUnavailable, err)
	}

	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("no_html", "0")
	q.Set("skip_disambig", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrSearchUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: duckduckgo status %d", ErrSearchUnavailable, resp.StatusCode)
	}

	var result ddgResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", ErrSearchUnavailable, err)
	}

	var out []SearchResult

	if result.AbstractText != "" {
		out = append(out, SearchResult{
			Title:   result.Heading,
			URL:     result.AbstractURL,
			Snippet: htmlToText(result.AbstractText),
		})
	}

	var walk func(topics []ddgTopic)
	walk = func(topics []ddgTopic) {
		for _, t := range topics {
			if len(out) >= count {
				return
			}

			if len(t.Topics) > 0 {
				walk(t.Topics)
				continue
			}

			text := t.Text
			if t.Result != "" {
				text = htmlToText(t.Result)
			}

			if text == "" {
				continue
			}

			out = append(out, SearchResult{URL: t.FirstURL, Snippet: text})
		}
	}
	walk(result.RelatedTopics)

	if len(out) > count {
		out = out[:count]
	}

	return out, nil
}
