// internal/service/campaign_service.go
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/outreach-pipeline/internal/errors"
	"github.com/unclebandit/outreach-pipeline/internal/model"
	"github.com/unclebandit/outreach-pipeline/internal/repository"
)

// CampaignService expands a draft campaign into messages and sends them.
type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	Store        repository.DeliveryStateStore
	Dispatcher   Dispatcher
	Logger       *zap.Logger
	Workers      int
}

func NewCampaignService(campaigns repository.CampaignRepositoryInterface, store repository.DeliveryStateStore, d Dispatcher, logger *zap.Logger, workers int) *CampaignService {
	return &CampaignService{
		CampaignRepo: campaigns,
		Store:        store,
		Dispatcher:   d,
		Logger:       logger,
		Workers:      workers,
	}
}

// LaunchSummary counts only messages created by this launch. Recipients
// without an address for the channel are Skipped; those that already have a
// message from an earlier launch are AlreadyDispatched.
type LaunchSummary struct {
	CampaignID        string               `json:"campaignId"`
	Channel           model.Channel        `json:"channel"`
	Attempted         int                  `json:"attempted"`
	Succeeded         int                  `json:"succeeded"`
	Failed            int                  `json:"failed"`
	Skipped           int                  `json:"skipped"`
	AlreadyDispatched int                  `json:"alreadyDispatched"`
	CampaignStatus    model.CampaignStatus `json:"campaignStatus"`
	Messages          []MessageOutcome     `json:"messages"`
}

// Launch sends templateID to every recipient of a draft campaign. The
// campaign becomes active once any message is sent; if none is, it stays
// draft and may be launched again.
func (s *CampaignService) Launch(ctx context.Context, campaignID, templateID string) (*LaunchSummary, error) {
	log := s.Logger.With(zap.String("campaign_id", campaignID), zap.String("template_id", templateID))

	campaign, err := s.CampaignRepo.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != model.CampaignDraft {
		return nil, appErrors.NewInvalidCampaignStatus(campaignID, string(campaign.Status), string(model.CampaignDraft))
	}

	tmpl, err := s.CampaignRepo.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	ch := tmpl.Type
	if !ch.Valid() {
		return nil, appErrors.NewConfiguration("template %s has unknown channel %q", tmpl.ID, ch)
	}
	if err := s.Dispatcher.Ready(ch); err != nil {
		return nil, err
	}

	recipients, err := s.CampaignRepo.ListRecipients(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	existing, err := s.Store.ListMessages(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	dispatched := make(map[string]bool, len(existing))
	for _, m := range existing {
		dispatched[m.RecipientID] = true
	}

	summary := &LaunchSummary{
		CampaignID:     campaignID,
		Channel:        ch,
		CampaignStatus: campaign.Status,
		Messages:       []MessageOutcome{},
	}

	now := time.Now()
	batch := make([]model.Message, 0, len(recipients))
	for _, r := range recipients {
		addr := strings.TrimSpace(r.Address(ch))
		if addr == "" {
			summary.Skipped++
			continue
		}
		if dispatched[r.ID] {
			summary.AlreadyDispatched++
			continue
		}
		vars := r.Variables()
		msg := model.Message{
			ID:          uuid.NewString(),
			CampaignID:  campaignID,
			RecipientID: r.ID,
			TemplateID:  tmpl.ID,
			Channel:     ch,
			Recipient:   addr,
			Content:     RenderTemplate(tmpl.Body, vars),
			Status:      model.StatusPending,
			CreatedAt:   now,
		}
		if ch == model.ChannelEmail {
			msg.Subject = RenderTemplate(tmpl.Subject, vars)
		}
		batch = append(batch, msg)
	}

	created, err := s.Store.CreateMessages(ctx, batch)
	if err != nil {
		return nil, err
	}
	// rows lost to a concurrent launch of the same campaign
	summary.AlreadyDispatched += len(batch) - len(created)

	for _, d := range deliver(ctx, s.Store, s.Dispatcher, nil, s.Logger, s.Workers, created) {
		summary.Attempted++
		if d.Outcome.Failed() {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
		summary.Messages = append(summary.Messages, outcomeOf(d))
	}

	if summary.Succeeded > 0 {
		if err := s.Store.UpdateCampaignStatus(ctx, campaignID, model.CampaignActive); err != nil {
			return summary, err
		}
		summary.CampaignStatus = model.CampaignActive
	}

	log.Info("campaign launched",
		zap.String("channel", string(ch)),
		zap.Int("attempted", summary.Attempted),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("already_dispatched", summary.AlreadyDispatched))
	return summary, nil
}

// CampaignDetails is a campaign with its message counts by status.
type CampaignDetails struct {
	model.Campaign
	Stats map[string]int `json:"stats"`
}

func (s *CampaignService) GetCampaignDetailsWithStats(ctx context.Context, campaignID string) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	stats, err := s.Store.CampaignStats(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	return &CampaignDetails{Campaign: *campaign, Stats: stats}, nil
}

func (s *CampaignService) ListMessages(ctx context.Context, campaignID string) ([]model.Message, error) {
	if _, err := s.CampaignRepo.GetCampaign(ctx, campaignID); err != nil {
		return nil, err
	}
	return s.Store.ListMessages(ctx, campaignID)
}
