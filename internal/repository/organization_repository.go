package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/unclebandit/outreach-pipeline/internal/model"
)

// OrganizationRepository is the concrete implementation
type OrganizationRepository struct {
	DB *sql.DB
}

// GetOrganization fetches an organization by ID
func (r *OrganizationRepository) GetOrganization(ctx context.Context, id string) (*model.Organization, error) {
	query := `
        SELECT id, name, COALESCE(email, ''), COALESCE(phone, ''), COALESCE(website_url, ''),
               COALESCE(city, ''), COALESCE(contact_name, '')
        FROM organizations
        WHERE id = $1
    `
	var o model.Organization
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&o.ID, &o.Name, &o.Email, &o.Phone, &o.WebsiteURL, &o.City, &o.Contact)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // not found
		}
		return nil, err
	}
	return &o, nil
}

var _ OrganizationRepositoryInterface = (*OrganizationRepository)(nil)
