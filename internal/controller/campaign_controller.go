// internal/controller/campaign_controller.go
package controller

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/outreach-pipeline/internal/errors"
	"github.com/unclebandit/outreach-pipeline/internal/queue"
	"github.com/unclebandit/outreach-pipeline/internal/service"
)

type Launcher interface {
	Launch(ctx context.Context, campaignID, templateID string) (*service.LaunchSummary, error)
}

type CampaignController struct {
	CampaignService Launcher
	RetryService    queue.Retrier
	Queue           queue.Queue
	Logger          *zap.Logger
}

// Dispatch handles POST /dispatch {campaignId, templateId}.
func (c *CampaignController) Dispatch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CampaignID string `json:"campaignId"`
		TemplateID string `json:"templateId"`
	}
	if err := Decode(r, &body); err != nil {
		WriteError(w, c.Logger, err)
		return
	}
	if strings.TrimSpace(body.CampaignID) == "" || strings.TrimSpace(body.TemplateID) == "" {
		WriteError(w, c.Logger, appErrors.NewBadRequest("campaignId and templateId are required"))
		return
	}

	summary, err := c.CampaignService.Launch(r.Context(), body.CampaignID, body.TemplateID)
	if err != nil {
		WriteError(w, c.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}

// Retry handles POST /retry {campaignId, messageId?, async?}. With async the
// job is queued and the call returns 202 straight away.
func (c *CampaignController) Retry(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CampaignID string `json:"campaignId"`
		MessageID  string `json:"messageId"`
		Async      bool   `json:"async"`
	}
	if err := Decode(r, &body); err != nil {
		WriteError(w, c.Logger, err)
		return
	}
	if strings.TrimSpace(body.CampaignID) == "" {
		WriteError(w, c.Logger, appErrors.NewBadRequest("campaignId is required"))
		return
	}

	if body.Async {
		job := queue.RetryJob{CampaignID: body.CampaignID, MessageID: body.MessageID}
		if err := c.Queue.Publish(queue.RetryTopic, job); err != nil {
			WriteError(w, c.Logger, err)
			return
		}
		c.Logger.Info("retry queued", zap.String("campaign_id", job.CampaignID), zap.String("message_id", job.MessageID))
		WriteJSON(w, http.StatusAccepted, map[string]any{"queued": true, "campaignId": job.CampaignID})
		return
	}

	summary, err := c.RetryService.Retry(r.Context(), body.CampaignID, body.MessageID)
	if err != nil {
		WriteError(w, c.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}
