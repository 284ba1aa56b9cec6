package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/outreach-pipeline/internal/errors"
	"github.com/unclebandit/outreach-pipeline/internal/model"
	"github.com/unclebandit/outreach-pipeline/internal/repository"
)

// StatusService applies asynchronous provider status callbacks.
type StatusService struct {
	Store  repository.DeliveryStateStore
	Logger *zap.Logger
}

func NewStatusService(store repository.DeliveryStateStore, logger *zap.Logger) *StatusService {
	return &StatusService{Store: store, Logger: logger}
}

// Apply moves the message carrying externalID to status. A repeated callback
// for the status the message already has is a no-op.
func (s *StatusService) Apply(ctx context.Context, externalID string, status model.MessageStatus, at time.Time) (*model.Message, error) {
	msg, err := s.Store.GetMessageByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if msg.Status == status {
		return msg, nil
	}
	if !model.CanTransition(msg.Status, status) {
		return nil, appErrors.NewInvalidTransition(msg.ID, string(msg.Status), string(status))
	}
	if err := s.Store.UpdateMessageStatus(ctx, msg.ID, status, model.MessageUpdate{At: at}); err != nil {
		return nil, err
	}
	s.Logger.Debug("status callback applied",
		zap.String("message_id", msg.ID),
		zap.String("external_id", externalID),
		zap.String("status", string(status)))
	return s.Store.GetMessage(ctx, msg.ID)
}
