package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unclebandit/outreach-pipeline/internal/config"
	"github.com/unclebandit/outreach-pipeline/internal/model"
	"github.com/unclebandit/outreach-pipeline/internal/provider"
	"github.com/unclebandit/outreach-pipeline/internal/queue"
	"github.com/unclebandit/outreach-pipeline/internal/repository"
)

type cannedSearch struct{ text string }

func (c cannedSearch) Name() provider.Name                            { return provider.Serper }
func (c cannedSearch) Configured() bool                               { return true }
func (c cannedSearch) Search(context.Context, string) (string, error) { return c.text, nil }

func testServer(t *testing.T) (*httptest.Server, *repository.MemoryStore, *provider.MockSender) {
	t.Helper()
	mem := repository.NewMemoryStore()
	mem.AddOrganization(model.Organization{ID: "o1", Name: "Grace Chapel", Email: "pastor@gracechapel.org", WebsiteURL: "https://gracechapel.org"})
	mem.AddOrganization(model.Organization{ID: "o2", Name: "St Mark"})
	mem.AddCampaign(model.Campaign{ID: "c1", Name: "Easter"})
	mem.AddTemplate(model.Template{ID: "t1", Type: model.ChannelEmail, Subject: "Hi {{name}}", Body: "<p>Hello {name}</p>"})
	mem.AddRecipients("c1", "o1", "o2")

	email := provider.NewMockSender()
	registry := provider.NewRegistryWith(
		[]provider.SearchProvider{cannedSearch{text: "Office: office@stmark.org, noreply@stmark.org"}},
		map[model.Channel]provider.Sender{model.ChannelEmail: email},
	)
	cfg := &config.Config{
		Discovery: config.DiscoveryConfig{MaxBatch: 100},
		Dispatch:  config.DispatchConfig{Workers: 2, RequestTimeout: time.Second},
	}
	q := queue.NewInMemoryQueue(zap.NewNop())
	t.Cleanup(func() { q.Close() })

	a, err := newApp(cfg, memoryStores(mem), registry, q, zap.NewNop())
	require.NoError(t, err)
	srv := httptest.NewServer(a.router())
	t.Cleanup(srv.Close)
	return srv, mem, email
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestPipelineEndToEnd(t *testing.T) {
	srv, _, email := testServer(t)

	resp := postJSON(t, srv.URL+"/discovery", `{"organizationIds":["o2","missing"],"batchSize":10}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var progress model.DiscoveryProgress
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&progress))
	assert.Equal(t, 2, progress.Total)
	assert.Equal(t, 1, progress.Processed)
	require.Len(t, progress.Results, 1)
	assert.Equal(t, []string{"office@stmark.org"}, progress.Results[0].Emails)

	email.SetSendFunc(func(provider.Payload) (provider.SendResult, error) {
		return provider.SendResult{}, &provider.APIError{Provider: provider.SendGrid, StatusCode: 400, Message: "invalid"}
	})
	resp = postJSON(t, srv.URL+"/dispatch", `{"campaignId":"c1","templateId":"t1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var launch struct {
		Attempted      int    `json:"attempted"`
		Failed         int    `json:"failed"`
		Skipped        int    `json:"skipped"`
		CampaignStatus string `json:"campaignStatus"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&launch))
	assert.Equal(t, 1, launch.Attempted)
	assert.Equal(t, 1, launch.Failed)
	assert.Equal(t, 1, launch.Skipped)
	assert.Equal(t, "draft", launch.CampaignStatus)

	email.SetSendFunc(nil)
	resp = postJSON(t, srv.URL+"/retry", `{"campaignId":"c1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	get, err := http.Get(srv.URL + "/campaigns/c1")
	require.NoError(t, err)
	defer get.Body.Close()
	var details struct {
		Status string         `json:"status"`
		Stats  map[string]int `json:"stats"`
	}
	require.NoError(t, json.NewDecoder(get.Body).Decode(&details))
	assert.Equal(t, "active", details.Status)
	assert.Equal(t, 1, details.Stats["sent"])
	assert.Equal(t, 0, details.Stats["failed"])
}

func TestMetricsAndHealth(t *testing.T) {
	srv, _, _ := testServer(t)

	for _, path := range []string{"/healthz", "/metrics"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}
