package repository

import (
	"context"

	"github.com/unclebandit/outreach-pipeline/internal/model"
)

// DeliveryStateStore is the only shared mutable resource of the pipeline.
// Every operation touches a single row keyed by id.
type DeliveryStateStore interface {
	GetMessage(ctx context.Context, id string) (*model.Message, error)
	GetMessageByExternalID(ctx context.Context, externalID string) (*model.Message, error)
	// UpdateMessageStatus applies the change only if the stored status may
	// move to status, and returns ErrInvalidTransition otherwise.
	UpdateMessageStatus(ctx context.Context, id string, status model.MessageStatus, fields model.MessageUpdate) error
	ListFailedMessages(ctx context.Context, campaignID string) ([]model.Message, error)
	ListMessages(ctx context.Context, campaignID string) ([]model.Message, error)
	// CreateMessages inserts the batch, skipping any (campaign, recipient)
	// pair that already has a message, and returns the rows it inserted.
	CreateMessages(ctx context.Context, batch []model.Message) ([]model.Message, error)
	UpdateCampaignStatus(ctx context.Context, id string, status model.CampaignStatus) error
	CampaignStats(ctx context.Context, campaignID string) (map[string]int, error)
}

// CampaignRepositoryInterface reads the campaign data owned by the CRM layer.
type CampaignRepositoryInterface interface {
	GetCampaign(ctx context.Context, id string) (*model.Campaign, error)
	GetTemplate(ctx context.Context, id string) (*model.Template, error)
	ListRecipients(ctx context.Context, campaignID string) ([]model.Recipient, error)
}

type OrganizationRepositoryInterface interface {
	// GetOrganization returns nil, nil when the organization does not exist.
	GetOrganization(ctx context.Context, id string) (*model.Organization, error)
}
