package repository

import (
	"context"
	"sync"
	"time"

	appErrors "github.com/unclebandit/outreach-pipeline/internal/errors"
	"github.com/unclebandit/outreach-pipeline/internal/model"
)

// MemoryStore implements every repository interface in process. The server
// uses it when no database is configured.
type MemoryStore struct {
	mu            sync.Mutex
	messages      map[string]*model.Message
	byPair        map[string]string
	order         []string
	campaigns     map[string]*model.Campaign
	templates     map[string]*model.Template
	organizations map[string]*model.Organization
	recipients    map[string][]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		messages:      make(map[string]*model.Message),
		byPair:        make(map[string]string),
		campaigns:     make(map[string]*model.Campaign),
		templates:     make(map[string]*model.Template),
		organizations: make(map[string]*model.Organization),
		recipients:    make(map[string][]string),
	}
}

func pairKey(campaignID, recipientID string) string { return campaignID + "\x00" + recipientID }

// ====================== Seeding ======================

func (s *MemoryStore) AddOrganization(o model.Organization) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.organizations[o.ID] = &o
}

func (s *MemoryStore) AddCampaign(c model.Campaign) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.Status == "" {
		c.Status = model.CampaignDraft
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	s.campaigns[c.ID] = &c
}

func (s *MemoryStore) AddTemplate(t model.Template) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[t.ID] = &t
}

func (s *MemoryStore) AddRecipients(campaignID string, organizationIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recipients[campaignID] = append(s.recipients[campaignID], organizationIDs...)
}

// ====================== Campaigns & organizations ======================

func (s *MemoryStore) GetCampaign(ctx context.Context, id string) (*model.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	out := *c
	return &out, nil
}

func (s *MemoryStore) GetTemplate(ctx context.Context, id string) (*model.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.templates[id]
	if !ok {
		return nil, appErrors.NewTemplateNotFound(id)
	}
	out := *t
	return &out, nil
}

func (s *MemoryStore) ListRecipients(ctx context.Context, campaignID string) ([]model.Recipient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.campaigns[campaignID]; !ok {
		return nil, appErrors.NewCampaignNotFound(campaignID)
	}
	out := []model.Recipient{}
	for _, id := range s.recipients[campaignID] {
		if o, ok := s.organizations[id]; ok {
			out = append(out, model.RecipientFromOrganization(*o))
		}
	}
	return out, nil
}

func (s *MemoryStore) GetOrganization(ctx context.Context, id string) (*model.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.organizations[id]
	if !ok {
		return nil, nil
	}
	out := *o
	return &out, nil
}

func (s *MemoryStore) UpdateCampaignStatus(ctx context.Context, id string, status model.CampaignStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	now := time.Now()
	c.Status = status
	c.UpdatedAt = &now
	return nil
}

// ====================== Messages ======================

func (s *MemoryStore) CreateMessages(ctx context.Context, batch []model.Message) ([]model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	created := make([]model.Message, 0, len(batch))
	for _, m := range batch {
		key := pairKey(m.CampaignID, m.RecipientID)
		if _, exists := s.byPair[key]; exists {
			continue
		}
		if _, exists := s.messages[m.ID]; exists {
			continue
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now()
		}
		m.UpdatedAt = m.CreatedAt
		stored := m
		s.messages[m.ID] = &stored
		s.byPair[key] = m.ID
		s.order = append(s.order, m.ID)
		created = append(created, m)
	}
	return created, nil
}

func (s *MemoryStore) GetMessage(ctx context.Context, id string) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, appErrors.NewMessageNotFound(id)
	}
	out := *m
	return &out, nil
}

func (s *MemoryStore) GetMessageByExternalID(ctx context.Context, externalID string) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order {
		m := s.messages[id]
		if m.ExternalID != nil && *m.ExternalID == externalID {
			out := *m
			return &out, nil
		}
	}
	return nil, appErrors.NewMessageNotFound(externalID)
}

func (s *MemoryStore) UpdateMessageStatus(ctx context.Context, id string, status model.MessageStatus, fields model.MessageUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return appErrors.NewMessageNotFound(id)
	}
	if !model.CanTransition(m.Status, status) {
		return appErrors.NewInvalidTransition(id, string(m.Status), string(status))
	}
	m.Apply(status, fields)
	return nil
}

func (s *MemoryStore) ListFailedMessages(ctx context.Context, campaignID string) ([]model.Message, error) {
	return s.list(campaignID, func(m *model.Message) bool { return m.Status == model.StatusFailed }), nil
}

func (s *MemoryStore) ListMessages(ctx context.Context, campaignID string) ([]model.Message, error) {
	return s.list(campaignID, func(*model.Message) bool { return true }), nil
}

func (s *MemoryStore) list(campaignID string, keep func(*model.Message) bool) []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Message{}
	for _, id := range s.order {
		m := s.messages[id]
		if m.CampaignID == campaignID && keep(m) {
			out = append(out, *m)
		}
	}
	return out
}

func (s *MemoryStore) CampaignStats(ctx context.Context, campaignID string) (map[string]int, error) {
	msgs := s.list(campaignID, func(*model.Message) bool { return true })
	stats := emptyStats()
	for _, m := range msgs {
		stats[string(m.Status)]++
		stats["total"]++
	}
	return stats, nil
}

func emptyStats() map[string]int {
	stats := map[string]int{"total": 0}
	for _, st := range model.AllStatuses {
		stats[string(st)] = 0
	}
	return stats
}

var (
	_ DeliveryStateStore              = (*MemoryStore)(nil)
	_ CampaignRepositoryInterface     = (*MemoryStore)(nil)
	_ OrganizationRepositoryInterface = (*MemoryStore)(nil)
)
