package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/outreach-pipeline/internal/errors"
	"github.com/unclebandit/outreach-pipeline/internal/metrics"
	"github.com/unclebandit/outreach-pipeline/internal/model"
	"github.com/unclebandit/outreach-pipeline/internal/repository"
)

// RetryService re-sends failed messages in place. Retries are operator
// triggered; there is no backoff and no attempt cap.
type RetryService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	Store        repository.DeliveryStateStore
	Dispatcher   Dispatcher
	Logger       *zap.Logger
	Workers      int
}

func NewRetryService(campaigns repository.CampaignRepositoryInterface, store repository.DeliveryStateStore, d Dispatcher, logger *zap.Logger, workers int) *RetryService {
	return &RetryService{
		CampaignRepo: campaigns,
		Store:        store,
		Dispatcher:   d,
		Logger:       logger,
		Workers:      workers,
	}
}

type RetrySummary struct {
	CampaignID string           `json:"campaignId"`
	Retried    int              `json:"retried"`
	Succeeded  int              `json:"succeeded"`
	Failed     int              `json:"failed"`
	Messages   []MessageOutcome `json:"messages"`
}

// Retry re-sends messageID, or every failed message of the campaign when
// messageID is empty. A message that is not failed is left alone. Content is
// sent exactly as stored, never re-rendered.
func (s *RetryService) Retry(ctx context.Context, campaignID, messageID string) (*RetrySummary, error) {
	log := s.Logger.With(zap.String("campaign_id", campaignID))

	campaign, err := s.CampaignRepo.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	targets, err := s.targets(ctx, campaignID, messageID)
	if err != nil {
		return nil, err
	}

	summary := &RetrySummary{CampaignID: campaignID, Messages: []MessageOutcome{}}
	if len(targets) == 0 {
		return summary, nil
	}

	checked := map[model.Channel]bool{}
	for _, m := range targets {
		if checked[m.Channel] {
			continue
		}
		if err := s.Dispatcher.Ready(m.Channel); err != nil {
			return nil, err
		}
		checked[m.Channel] = true
	}

	for _, d := range deliver(ctx, s.Store, s.Dispatcher, s.claim, s.Logger, s.Workers, targets) {
		if d.Skipped {
			continue
		}
		summary.Retried++
		if d.Outcome.Failed() {
			summary.Failed++
			metrics.Retries.WithLabelValues(string(model.StatusFailed)).Inc()
		} else {
			summary.Succeeded++
			metrics.Retries.WithLabelValues(string(model.StatusSent)).Inc()
		}
		summary.Messages = append(summary.Messages, outcomeOf(d))
	}

	// a campaign whose every launch attempt failed is still draft
	if summary.Succeeded > 0 && campaign.Status == model.CampaignDraft {
		if err := s.Store.UpdateCampaignStatus(ctx, campaignID, model.CampaignActive); err != nil {
			return summary, err
		}
	}

	log.Info("retry finished",
		zap.String("message_id", messageID),
		zap.Int("retried", summary.Retried),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

func (s *RetryService) targets(ctx context.Context, campaignID, messageID string) ([]model.Message, error) {
	if messageID == "" {
		return s.Store.ListFailedMessages(ctx, campaignID)
	}
	msg, err := s.Store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.CampaignID != campaignID {
		return nil, appErrors.NewMessageNotFound(messageID)
	}
	if msg.Status != model.StatusFailed {
		return nil, nil
	}
	return []model.Message{*msg}, nil
}

// claim moves m from failed to pending. It reports false when another retry
// got there first. A failed claim leaves m failed, so it stays retryable.
func (s *RetryService) claim(ctx context.Context, m model.Message) (bool, error) {
	err := s.Store.UpdateMessageStatus(ctx, m.ID, model.StatusPending, model.MessageUpdate{At: time.Now()})
	var invalid *appErrors.ErrInvalidTransition
	if errors.As(err, &invalid) {
		s.Logger.Debug("message no longer failed, skipping", zap.String("message_id", m.ID))
		return false, nil
	}
	return err == nil, err
}
