package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unclebandit/outreach-pipeline/internal/channel"
	"github.com/unclebandit/outreach-pipeline/internal/handler"
	"github.com/unclebandit/outreach-pipeline/internal/model"
	"github.com/unclebandit/outreach-pipeline/internal/provider"
	"github.com/unclebandit/outreach-pipeline/internal/repository"
	"github.com/unclebandit/outreach-pipeline/internal/service"
)

func setup(t *testing.T) (http.Handler, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	store.AddCampaign(model.Campaign{ID: "c1", Name: "Easter outreach"})
	store.AddTemplate(model.Template{ID: "t1", Type: model.ChannelSMS, Body: "Hi {name}"})
	store.AddOrganization(model.Organization{ID: "o1", Name: "Grace Chapel", Phone: "+15551234567"})
	store.AddRecipients("c1", "o1")

	sms := provider.NewMockSender()
	sms.SetSendFunc(func(provider.Payload) (provider.SendResult, error) {
		return provider.SendResult{ExternalID: "SM123"}, nil
	})
	d := channel.NewDispatcher(provider.NewRegistryWith(nil, map[model.Channel]provider.Sender{model.ChannelSMS: sms}), zap.NewNop(), time.Second)
	svc := service.NewCampaignService(store, store, d, zap.NewNop(), 1)
	_, err := svc.Launch(context.Background(), "c1", "t1")
	require.NoError(t, err)

	h := handler.NewCampaignHandler(svc, service.NewStatusService(store, zap.NewNop()), zap.NewNop())
	r := chi.NewRouter()
	r.Get("/campaigns/{id}", h.GetCampaignHandlerWithStats)
	r.Get("/campaigns/{id}/messages", h.ListMessagesHandler)
	r.Post("/webhooks/status", h.StatusWebhookHandler)
	return r, store
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestGetCampaignWithStats(t *testing.T) {
	r, _ := setup(t)

	w := do(r, http.MethodGet, "/campaigns/c1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		ID     string         `json:"id"`
		Status string         `json:"status"`
		Stats  map[string]int `json:"stats"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "c1", body.ID)
	assert.Equal(t, "active", body.Status)
	assert.Equal(t, 1, body.Stats["total"])
	assert.Equal(t, 1, body.Stats["sent"])

	w = do(r, http.MethodGet, "/campaigns/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListMessages(t *testing.T) {
	r, _ := setup(t)

	w := do(r, http.MethodGet, "/campaigns/c1/messages", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data  []model.Message `json:"data"`
		Total int             `json:"total"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Equal(t, 1, body.Total)
	assert.Equal(t, "Hi Grace Chapel", body.Data[0].Content)
	assert.Equal(t, "+15551234567", body.Data[0].Recipient)
}

func TestStatusWebhook(t *testing.T) {
	r, store := setup(t)

	w := do(r, http.MethodPost, "/webhooks/status", `{"externalId":"SM123","status":"opened"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/webhooks/status", `{"externalId":"SM123","status":"delivered","at":"2026-03-01T12:00:00Z"}`)
	require.Equal(t, http.StatusOK, w.Code)

	msgs, _ := store.ListMessages(context.Background(), "c1")
	require.Len(t, msgs, 1)
	assert.Equal(t, model.StatusDelivered, msgs[0].Status)
	assert.True(t, msgs[0].DeliveredAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))

	w = do(r, http.MethodPost, "/webhooks/status", `{"externalId":"SM123","status":"failed"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/webhooks/status", `{"externalId":"SM123","status":"pending"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/webhooks/status", `{"externalId":"nope","status":"delivered"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPost, "/webhooks/status", `{`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
