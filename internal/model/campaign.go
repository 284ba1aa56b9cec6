// internal/model/campaign.go
package model

import "time"

type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
	CampaignCancelled CampaignStatus = "cancelled"
)

type Campaign struct {
	ID          string         `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Status      CampaignStatus `db:"status" json:"status"`
	TemplateID  string         `db:"template_id" json:"templateId,omitempty"`
	ScheduledAt *time.Time     `db:"scheduled_at" json:"scheduledAt,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt   *time.Time     `db:"updated_at" json:"updatedAt,omitempty"`
}

// Template is the message blueprint a campaign is launched with. Type picks
// the channel every generated Message is sent through.
type Template struct {
	ID      string  `db:"id" json:"id"`
	Name    string  `db:"name" json:"name"`
	Type    Channel `db:"type" json:"type"`
	Subject string  `db:"subject" json:"subject,omitempty"`
	Body    string  `db:"body" json:"body"`
}
