// internal/model/discovery.go
package model

type DiscoveryStatus string

const (
	DiscoverySuccess       DiscoveryStatus = "success"
	DiscoveryNoEmailsFound DiscoveryStatus = "no_emails_found"
	DiscoveryFailed        DiscoveryStatus = "failed"
)

// DiscoveryResult is produced once per organization per run and never merged
// with earlier runs.
type DiscoveryResult struct {
	OrganizationID   string          `json:"organizationId"`
	OrganizationName string          `json:"organizationName"`
	Emails           []string        `json:"emails"`
	Status           DiscoveryStatus `json:"status"`
	Error            string          `json:"error,omitempty"`
}

// DiscoveryProgress is keyed by organization id; Results order follows
// completion, not input.
type DiscoveryProgress struct {
	Total         int               `json:"total"`
	Processed     int               `json:"processed"`
	Succeeded     int               `json:"succeeded"`
	Failed        int               `json:"failed"`
	NoEmailsFound int               `json:"noEmailsFound"`
	Results       []DiscoveryResult `json:"results"`
}
