package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const serperURL = "https://google.serper.dev/search"

type SerperClient struct {
	APIKey  string
	BaseURL string
	client  *http.Client
}

func NewSerperClient(apiKey string, timeout time.Duration) *SerperClient {
	return &SerperClient{APIKey: apiKey, BaseURL: serperURL, client: newHTTPClient(timeout)}
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
	KnowledgeGraph *struct {
		Title       string            `json:"title"`
		Description string            `json:"description"`
		Attributes  map[string]string `json:"attributes"`
	} `json:"knowledgeGraph"`
}

func (c *SerperClient) Name() Name       { return Serper }
func (c *SerperClient) Configured() bool { return c.APIKey != "" }

func (c *SerperClient) Search(ctx context.Context, query string) (string, error) {
	b, _ := json.Marshal(map[string]any{"q": query, "num": 10})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("X-API-KEY", c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	status, _, body, err := do(c.client, req)
	if err != nil {
		return "", err
	}
	if !ok(status) {
		return "", &APIError{Provider: Serper, StatusCode: status, Message: truncate(body)}
	}

	var out serperResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("serper: decode response: %w", err)
	}

	var sb strings.Builder
	for _, r := range out.Organic {
		sb.WriteString(r.Title)
		sb.WriteString("\n")
		sb.WriteString(r.Snippet)
		sb.WriteString("\n")
	}
	if kg := out.KnowledgeGraph; kg != nil {
		sb.WriteString(kg.Title + "\n" + kg.Description + "\n")
		for k, v := range kg.Attributes {
			sb.WriteString(k + ": " + v + "\n")
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
