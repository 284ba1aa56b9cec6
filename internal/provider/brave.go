package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const braveURL = "https://api.search.brave.com/res/v1/web/search"

type BraveClient struct {
	APIKey  string
	BaseURL string
	client  *http.Client
}

func NewBraveClient(apiKey string, timeout time.Duration) *BraveClient {
	return &BraveClient{APIKey: apiKey, BaseURL: braveURL, client: newHTTPClient(timeout)}
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title         string   `json:"title"`
			URL           string   `json:"url"`
			Description   string   `json:"description"`
			ExtraSnippets []string `json:"extra_snippets"`
		} `json:"results"`
	} `json:"web"`
}

func (c *BraveClient) Name() Name       { return Brave }
func (c *BraveClient) Configured() bool { return c.APIKey != "" }

func (c *BraveClient) Search(ctx context.Context, query string) (string, error) {
	u := c.BaseURL + "?" + url.Values{"q": {query}, "count": {"10"}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", c.APIKey)

	status, _, body, err := do(c.client, req)
	if err != nil {
		return "", err
	}
	if !ok(status) {
		return "", &APIError{Provider: Brave, StatusCode: status, Message: truncate(body)}
	}

	var out braveResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("brave: decode response: %w", err)
	}

	var sb strings.Builder
	for _, r := range out.Web.Results {
		sb.WriteString(r.Title + "\n" + r.Description + "\n")
		for _, s := range r.ExtraSnippets {
			sb.WriteString(s + "\n")
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
