package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const duckDuckGoURL = "https://html.duckduckgo.com/html/"

// DuckDuckGoClient scrapes the keyless HTML endpoint. It has no credentials,
// so it only counts as configured when explicitly enabled.
type DuckDuckGoClient struct {
	Enabled bool
	BaseURL string
	client  *http.Client
}

func NewDuckDuckGoClient(enabled bool, timeout time.Duration) *DuckDuckGoClient {
	return &DuckDuckGoClient{Enabled: enabled, BaseURL: duckDuckGoURL, client: newHTTPClient(timeout)}
}

func (c *DuckDuckGoClient) Name() Name       { return DuckDuckGo }
func (c *DuckDuckGoClient) Configured() bool { return c.Enabled }

func (c *DuckDuckGoClient) Search(ctx context.Context, query string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	status, _, body, err := do(c.client, req)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", &APIError{Provider: DuckDuckGo, StatusCode: status, Message: http.StatusText(status)}
	}
	return parseDuckDuckGo(string(body))
}

// parseDuckDuckGo flattens every result block into "title\nurl\nsnippet" lines.
func parseDuckDuckGo(page string) (string, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("duckduckgo: parse html: %w", err)
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			class := attr(n, "class")
			switch {
			case strings.Contains(class, "result__a"):
				sb.WriteString(text(n) + "\n" + resultURL(attr(n, "href")) + "\n")
				return
			case strings.Contains(class, "result__snippet"):
				sb.WriteString(text(n) + "\n")
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.TrimSpace(sb.String()), nil
}

// resultURL unwraps DuckDuckGo's redirect links.
func resultURL(href string) string {
	const prefix = "//duckduckgo.com/l/?uddg="
	if !strings.HasPrefix(href, prefix) {
		return href
	}
	decoded, err := url.QueryUnescape(strings.TrimPrefix(href, prefix))
	if err != nil {
		return href
	}
	if i := strings.Index(decoded, "&"); i > 0 {
		decoded = decoded[:i]
	}
	return decoded
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func text(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				sb.WriteString(s)
				sb.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
