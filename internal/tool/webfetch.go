package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

const webfetchDescription = `Fetches content from a URL and returns it in the requested format.

Usage notes:
  - Prefer an MCP-provided web fetch tool when one is available; this tool is the local fallback.
  - The URL must be a fully-formed http:// or https:// URL.
  - Results are truncated above 5MB.
  - Use format "markdown" for readable content, "text" for plain text, "html" for raw HTML.`

const (
	maxResponseSize = 5 * 1024 * 1024
	fetchTimeout    = 30 * time.Second
	maxFetchTimeout = 120 * time.Second
)

// WebFetchTool fetches web content for agents whose server catalog has no
// web fetch integration.
type WebFetchTool struct {
	client *http.Client
}

// NewWebFetchTool creates a webfetch tool.
func NewWebFetchTool() *WebFetchTool {
	return &WebFetchTool{client: &http.Client{}}
}

// WebFetchInput is the webfetch tool's input.
type WebFetchInput struct {
	URL     string `json:"url"`
	Format  string `json:"format"`
	Timeout int    `json:"timeout,omitempty"`
}

func (t *WebFetchTool) ID() string          { return "webfetch" }
func (t *WebFetchTool) Description() string { return webfetchDescription }

func (t *WebFetchTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"url": {"type": "string", "description": "The URL to fetch content from"},
			"format": {"type": "string", "enum": ["text", "markdown", "html"], "description": "The format to return the content in"},
			"timeout": {"type": "integer", "description": "Optional timeout in seconds (max 120)"}
		},
		"required": ["url", "format"]
	}`)
}

func (t *WebFetchTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	var params WebFetchInput
	if err := json.Unmarshal(input, &params); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}

	if !strings.HasPrefix(params.URL, "http://") && !strings.HasPrefix(params.URL, "https://") {
		return "", fmt.Errorf("URL must start with http:// or https://")
	}
	if params.Format != "text" && params.Format != "markdown" && params.Format != "html" {
		return "", fmt.Errorf("format must be 'text', 'markdown', or 'html'")
	}

	timeout := fetchTimeout
	if params.Timeout > 0 {
		timeout = time.Duration(params.Timeout) * time.Second
		if timeout > maxFetchTimeout {
			timeout = maxFetchTimeout
		}
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, params.URL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "agentrun/1.0")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("request failed with status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) > maxResponseSize {
		return "", fmt.Errorf("response too large (exceeds 5MB limit)")
	}

	content := string(body)
	isHTML := strings.Contains(resp.Header.Get("Content-Type"), "text/html")

	switch params.Format {
	case "markdown":
		if isHTML {
			return convertHTMLToMarkdown(content)
		}
	case "text":
		if isHTML {
			return extractTextFromHTML(content)
		}
	}
	return content, nil
}

// extractTextFromHTML strips scripts, styles and markup, leaving plain text.
func extractTextFromHTML(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, iframe, object, embed").Remove()
	text := strings.TrimSpace(doc.Text())
	text = regexp.MustCompile(`\n{3,}`).ReplaceAllString(text, "\n\n")
	return text, nil
}

// convertHTMLToMarkdown converts HTML content to Markdown.
func convertHTMLToMarkdown(html string) (string, error) {
	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(html)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(markdown), nil
}
