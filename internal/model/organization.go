// internal/model/organization.go
package model

// Organization is owned by the CRM layer; the pipeline only reads it.
type Organization struct {
	ID         string `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	Email      string `db:"email" json:"email,omitempty"`
	Phone      string `db:"phone" json:"phone,omitempty"`
	WebsiteURL string `db:"website_url" json:"websiteUrl,omitempty"`
	City       string `db:"city" json:"city,omitempty"`
	Contact    string `db:"contact_name" json:"contactName,omitempty"`
}

// Recipient is one target of a campaign, resolved from its organization.
type Recipient struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	City    string `json:"city,omitempty"`
	Contact string `json:"contactName,omitempty"`
}

// Address returns the contact field used by the channel, or "" when the
// recipient has none.
func (r Recipient) Address(ch Channel) string {
	switch ch {
	case ChannelEmail:
		return r.Email
	case ChannelSMS, ChannelWhatsApp:
		return r.Phone
	}
	return ""
}

// Variables are the template tokens available for this recipient.
func (r Recipient) Variables() map[string]string {
	return map[string]string{
		"name":         r.Name,
		"email":        r.Email,
		"phone":        r.Phone,
		"city":         r.City,
		"contact_name": r.Contact,
	}
}

func RecipientFromOrganization(o Organization) Recipient {
	return Recipient{
		ID:      o.ID,
		Name:    o.Name,
		Email:   o.Email,
		Phone:   o.Phone,
		City:    o.City,
		Contact: o.Contact,
	}
}
