package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	appErrors "github.com/unclebandit/outreach-pipeline/internal/errors"
	"github.com/unclebandit/outreach-pipeline/internal/model"
)

type CampaignRepository struct {
	DB *sql.DB
}

// ====================== Campaigns ======================

func (r *CampaignRepository) GetCampaign(ctx context.Context, id string) (*model.Campaign, error) {
	query := `
        SELECT id, name, status, COALESCE(template_id, ''), scheduled_at, created_at, updated_at
        FROM campaigns WHERE id=$1
    `
	var c model.Campaign
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.Status, &c.TemplateID, &c.ScheduledAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) UpdateCampaignStatus(ctx context.Context, id string, status model.CampaignStatus) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE campaigns SET status=$1, updated_at=$2 WHERE id=$3`, string(status), time.Now(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appErrors.NewCampaignNotFound(id)
	}
	return nil
}

// ====================== Templates ======================

func (r *CampaignRepository) GetTemplate(ctx context.Context, id string) (*model.Template, error) {
	query := `SELECT id, name, type, COALESCE(subject, ''), body FROM templates WHERE id=$1`
	var t model.Template
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Name, &t.Type, &t.Subject, &t.Body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewTemplateNotFound(id)
		}
		return nil, err
	}
	return &t, nil
}

// ====================== Recipients ======================

// ListRecipients resolves the campaign's target organizations. Missing
// contact fields come back as empty strings.
func (r *CampaignRepository) ListRecipients(ctx context.Context, campaignID string) ([]model.Recipient, error) {
	if _, err := r.GetCampaign(ctx, campaignID); err != nil {
		return nil, err
	}
	query := `
        SELECT o.id, o.name, COALESCE(o.email, ''), COALESCE(o.phone, ''), COALESCE(o.city, ''), COALESCE(o.contact_name, '')
        FROM campaign_recipients cr
        JOIN organizations o ON o.id = cr.organization_id
        WHERE cr.campaign_id = $1
        ORDER BY o.id
    `
	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipients := []model.Recipient{}
	for rows.Next() {
		var rc model.Recipient
		if err := rows.Scan(&rc.ID, &rc.Name, &rc.Email, &rc.Phone, &rc.City, &rc.Contact); err != nil {
			return nil, err
		}
		recipients = append(recipients, rc)
	}
	return recipients, rows.Err()
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
