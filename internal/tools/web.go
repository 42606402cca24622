package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/crystaldolphin/orchestrator/internal/schema"
)

const (
	webUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_7_2) AppleWebKit/537.36"
	maxRedirects = 5

	// ToolWebSearch is only registered when a search API key is configured.
	ToolWebSearch = "web_search"
)

// WebOptions configures the web category.
type WebOptions struct {
	SearchAPIKey string
	MaxResults   int
	MaxChars     int
	Timeout      time.Duration
}

// validateURL checks that url is http(s) with a valid domain.
func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("only http/https allowed, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing domain in URL")
	}
	return nil
}

func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	}
	return def
}

// NewWebTools returns the web category: web_fetch always, web_search when
// opts carries an API key.
func NewWebTools(opts WebOptions) []*Tool {
	out := []*Tool{NewWebFetchTool(opts)}
	if opts.SearchAPIKey != "" {
		out = append(out, NewWebSearchTool(opts))
	}
	return out
}

// ─── web_search ───

type webSearch struct {
	apiKey     string
	endpoint   string
	maxResults int
	client     *http.Client
}

// NewWebSearchTool searches through the Brave Search API.
func NewWebSearchTool(opts WebOptions) *Tool {
	s := &webSearch{
		apiKey:     opts.SearchAPIKey,
		endpoint:   "https://api.search.brave.com/res/v1/web/search",
		maxResults: opts.MaxResults,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
	if s.maxResults <= 0 {
		s.maxResults = 5
	}
	return &Tool{
		Definition: schema.ToolDefinition{
			Name:        ToolWebSearch,
			Description: "Search the web. Returns titles, URLs, and snippets.",
			Parameters: schema.NewParameterSchema(map[string]schema.Parameter{
				"query": {Type: schema.ParamString, Description: "Search query"},
				"count": {Type: schema.ParamInteger, Description: "Results (1-10)"},
			}, "query"),
		},
		Category:  schema.CategoryWeb,
		Cost:      schema.CostMedium,
		RateLimit: &schema.RateLimit{Requests: 30, WindowMs: 60_000},
		Handler:   s.run,
	}
}

type searchHit struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

func (s *webSearch) run(ctx context.Context, args map[string]any, _ *schema.ExecutionContext) (any, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return schema.Failure("query is required"), nil
	}
	n := max(1, min(10, intArg(args, "count", s.maxResults)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("q", query)
	q.Set("count", strconv.Itoa(n))
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return schema.Failure(fmt.Sprintf("search failed with status %d", resp.StatusCode)), nil
	}

	var data struct {
		Web struct {
			Results []searchHit `json:"results"`
		} `json:"web"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}
	hits := data.Web.Results
	if len(hits) > n {
		hits = hits[:n]
	}
	return schema.Result{Success: true, Data: map[string]any{"query": query, "results": hits}}, nil
}

// ─── web_fetch ───

type webFetch struct {
	maxChars int
	client   *http.Client
}

// NewWebFetchTool fetches a URL and extracts readable content.
func NewWebFetchTool(opts WebOptions) *Tool {
	f := &webFetch{maxChars: opts.MaxChars}
	if f.maxChars <= 0 {
		f.maxChars = 50000
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	f.client = &http.Client{
		Timeout: timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
	return &Tool{
		Definition: schema.ToolDefinition{
			Name:        ToolWebFetch,
			Description: "Fetch URL and extract readable content (HTML to markdown or text).",
			Parameters: schema.NewParameterSchema(map[string]schema.Parameter{
				"url":         {Type: schema.ParamString, Description: "URL to fetch"},
				"extractMode": {Type: schema.ParamString, Enum: []string{"markdown", "text"}},
				"maxChars":    {Type: schema.ParamInteger},
			}, "url"),
		},
		Category:  schema.CategoryWeb,
		Cost:      schema.CostMedium,
		RateLimit: &schema.RateLimit{Requests: 30, WindowMs: 60_000},
		Handler:   f.run,
	}
}

func (f *webFetch) run(ctx context.Context, args map[string]any, _ *schema.ExecutionContext) (any, error) {
	rawURL, _ := args["url"].(string)
	if err := validateURL(rawURL); err != nil {
		return schema.Failure(fmt.Sprintf("URL validation failed: %v", err)), nil
	}
	extractMode := "markdown"
	if m, ok := args["extractMode"].(string); ok && m != "" {
		extractMode = m
	}
	maxChars := intArg(args, "maxChars", f.maxChars)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", webUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	ctype := resp.Header.Get("Content-Type")
	var text, extractor string
	switch {
	case strings.Contains(ctype, "application/json"):
		var v any
		if err := json.Unmarshal(body, &v); err == nil {
			formatted, _ := json.MarshalIndent(v, "", "  ")
			text = string(formatted)
		} else {
			text = string(body)
		}
		extractor = "json"
	case strings.Contains(ctype, "text/html") || isHTMLPrefix(body):
		article, err := readability.FromReader(bytes.NewReader(body), resp.Request.URL)
		if err == nil {
			if extractMode == "markdown" {
				text = htmlToMarkdown(article.Content)
			} else {
				text = stripHTMLTags(article.Content)
			}
			if article.Title != "" {
				text = "# " + article.Title + "\n\n" + text
			}
		} else {
			text = stripHTMLTags(string(body))
		}
		extractor = "readability"
	default:
		text = string(body)
		extractor = "raw"
	}

	truncated := maxChars > 0 && len(text) > maxChars
	if truncated {
		text = text[:maxChars]
	}
	return schema.Result{
		Success: resp.StatusCode < 400,
		Data: map[string]any{
			"url":       rawURL,
			"finalUrl":  resp.Request.URL.String(),
			"status":    resp.StatusCode,
			"extractor": extractor,
			"truncated": truncated,
			"length":    len(text),
			"text":      text,
		},
		Error: statusError(resp.StatusCode),
	}, nil
}

func statusError(code int) string {
	if code < 400 {
		return ""
	}
	return fmt.Sprintf("HTTP %d", code)
}

// isHTMLPrefix returns true if the body starts with an HTML declaration.
func isHTMLPrefix(b []byte) bool {
	prefix := strings.ToLower(strings.TrimSpace(string(b[:min(256, len(b))])))
	return strings.HasPrefix(prefix, "<!doctype") || strings.HasPrefix(prefix, "<html")
}

// ─── HTML to text ───

var (
	reScript    = regexp.MustCompile(`(?is)<script[\s\S]*?</script>`)
	reStyle     = regexp.MustCompile(`(?is)<style[\s\S]*?</style>`)
	reTags      = regexp.MustCompile(`<[^>]+>`)
	reSpaces    = regexp.MustCompile(`[ \t]+`)
	reNewlines  = regexp.MustCompile(`\n{3,}`)
	reLinks     = regexp.MustCompile(`(?is)<a\s+[^>]*href=["']([^"']+)["'][^>]*>([\s\S]*?)</a>`)
	reHeadings  = regexp.MustCompile(`(?is)<h([1-6])[^>]*>([\s\S]*?)</h[1-6]>`)
	reListItems = regexp.MustCompile(`(?is)<li[^>]*>([\s\S]*?)</li>`)
	reBlockEnd  = regexp.MustCompile(`(?is)</(p|div|section|article)>`)
	reLineBreak = regexp.MustCompile(`(?is)<(br|hr)\s*/?>`)
)

// stripHTMLTags removes all HTML tags and normalizes whitespace.
func stripHTMLTags(text string) string {
	text = reScript.ReplaceAllString(text, "")
	text = reStyle.ReplaceAllString(text, "")
	text = reTags.ReplaceAllString(text, "")
	text = reSpaces.ReplaceAllString(text, " ")
	text = reNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// htmlToMarkdown converts HTML to a simple markdown representation.
func htmlToMarkdown(htmlText string) string {
	// Links
	text := reLinks.ReplaceAllStringFunc(htmlText, func(m string) string {
		parts := reLinks.FindStringSubmatch(m)
		if len(parts) < 3 {
			return m
		}
		return fmt.Sprintf("[%s](%s)", stripHTMLTags(parts[2]), parts[1])
	})
	// Headings
	text = reHeadings.ReplaceAllStringFunc(text, func(m string) string {
		parts := reHeadings.FindStringSubmatch(m)
		if len(parts) < 3 {
			return m
		}
		level, _ := strconv.Atoi(parts[1])
		return fmt.Sprintf("\n%s %s\n", strings.Repeat("#", level), stripHTMLTags(parts[2]))
	})
	// List items
	text = reListItems.ReplaceAllStringFunc(text, func(m string) string {
		parts := reListItems.FindStringSubmatch(m)
		if len(parts) < 2 {
			return m
		}
		return "\n- " + stripHTMLTags(parts[1])
	})
	// Block endings → paragraph break
	text = reBlockEnd.ReplaceAllString(text, "\n\n")
	// Line breaks
	text = reLineBreak.ReplaceAllString(text, "\n")
	return normalizeWhitespace(stripHTMLTags(text))
}

func normalizeWhitespace(text string) string {
	text = reSpaces.ReplaceAllString(text, " ")
	text = reNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
