// internal/handler/campaign_handler.go
package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/unclebandit/outreach-pipeline/internal/controller"
	appErrors "github.com/unclebandit/outreach-pipeline/internal/errors"
	"github.com/unclebandit/outreach-pipeline/internal/model"
	"github.com/unclebandit/outreach-pipeline/internal/service"
)

// CampaignHandler holds the dependencies for campaign read and callback handlers
type CampaignHandler struct {
	Service *service.CampaignService
	Status  *service.StatusService
	Logger  *zap.Logger
}

func NewCampaignHandler(svc *service.CampaignService, status *service.StatusService, logger *zap.Logger) *CampaignHandler {
	return &CampaignHandler{Service: svc, Status: status, Logger: logger}
}

// GetCampaignHandlerWithStats returns a campaign with message counts per status
func (h *CampaignHandler) GetCampaignHandlerWithStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	details, err := h.Service.GetCampaignDetailsWithStats(r.Context(), id)
	if err != nil {
		controller.WriteError(w, h.Logger, err)
		return
	}
	controller.WriteJSON(w, http.StatusOK, details)
}

func (h *CampaignHandler) ListMessagesHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	msgs, err := h.Service.ListMessages(r.Context(), id)
	if err != nil {
		controller.WriteError(w, h.Logger, err)
		return
	}
	controller.WriteJSON(w, http.StatusOK, map[string]any{"data": msgs, "total": len(msgs)})
}

// callbackStatuses are the statuses a provider may report after sending.
var callbackStatuses = map[model.MessageStatus]bool{
	model.StatusDelivered: true,
	model.StatusOpened:    true,
	model.StatusClicked:   true,
	model.StatusReplied:   true,
	model.StatusFailed:    true,
}

// StatusWebhookHandler applies POST /webhooks/status {externalId, status, at?}
func (h *CampaignHandler) StatusWebhookHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ExternalID string     `json:"externalId"`
		Status     string     `json:"status"`
		At         *time.Time `json:"at,omitempty"`
	}
	if err := controller.Decode(r, &payload); err != nil {
		controller.WriteError(w, h.Logger, err)
		return
	}

	status := model.MessageStatus(strings.ToLower(strings.TrimSpace(payload.Status)))
	if payload.ExternalID == "" || !callbackStatuses[status] {
		controller.WriteError(w, h.Logger, appErrors.NewBadRequest("externalId and a callback status are required"))
		return
	}
	at := time.Now()
	if payload.At != nil {
		at = *payload.At
	}

	msg, err := h.Status.Apply(r.Context(), payload.ExternalID, status, at)
	if err != nil {
		controller.WriteError(w, h.Logger, err)
		return
	}
	controller.WriteJSON(w, http.StatusOK, msg)
}
