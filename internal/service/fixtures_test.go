package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/outreach-pipeline/internal/channel"
	"github.com/unclebandit/outreach-pipeline/internal/model"
	"github.com/unclebandit/outreach-pipeline/internal/provider"
	"github.com/unclebandit/outreach-pipeline/internal/repository"
	"github.com/unclebandit/outreach-pipeline/internal/service"
)

type fixture struct {
	store      *repository.MemoryStore
	dispatcher *channel.Dispatcher
	email      *provider.MockSender
	sms        *provider.MockSender
	campaign   *service.CampaignService
	retry      *service.RetryService
	status     *service.StatusService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	email := provider.NewMockSender()
	sms := provider.NewMockSender()
	reg := provider.NewRegistryWith(nil, map[model.Channel]provider.Sender{
		model.ChannelEmail: email,
		model.ChannelSMS:   sms,
	})
	d := channel.NewDispatcher(reg, zap.NewNop(), time.Second)

	store.AddTemplate(model.Template{ID: "t-email", Name: "Intro", Type: model.ChannelEmail, Subject: "Hello {{name}}", Body: "Dear {contact_name}, greetings to {{name}} in {city}. {unknown}"})
	store.AddTemplate(model.Template{ID: "t-sms", Name: "Ping", Type: model.ChannelSMS, Body: "Hi {name}"})
	store.AddTemplate(model.Template{ID: "t-wa", Name: "Wa", Type: model.ChannelWhatsApp, Body: "Hi"})

	return &fixture{
		store:      store,
		dispatcher: d,
		email:      email,
		sms:        sms,
		campaign:   service.NewCampaignService(store, store, d, zap.NewNop(), 4),
		retry:      service.NewRetryService(store, store, d, zap.NewNop(), 4),
		status:     service.NewStatusService(store, zap.NewNop()),
	}
}

// seed adds a draft campaign whose recipients are orgs.
func (f *fixture) seed(campaignID string, orgs ...model.Organization) {
	f.store.AddCampaign(model.Campaign{ID: campaignID, Name: campaignID})
	ids := make([]string, 0, len(orgs))
	for _, o := range orgs {
		f.store.AddOrganization(o)
		ids = append(ids, o.ID)
	}
	f.store.AddRecipients(campaignID, ids...)
}

func rejectAll(p provider.Payload) (provider.SendResult, error) {
	return provider.SendResult{}, &provider.APIError{Provider: provider.SendGrid, StatusCode: 400, Message: "does not contain a valid address"}
}

var errDBBlip = errors.New("db blip")

// flakyStore fails the status writes picked by fail. n counts the writes to
// status so far, starting at 1.
type flakyStore struct {
	*repository.MemoryStore
	fail func(status model.MessageStatus, n int) bool

	mu   sync.Mutex
	seen map[model.MessageStatus]int
}

func newFlakyStore(inner *repository.MemoryStore, fail func(model.MessageStatus, int) bool) *flakyStore {
	return &flakyStore{MemoryStore: inner, fail: fail, seen: map[model.MessageStatus]int{}}
}

func (s *flakyStore) UpdateMessageStatus(ctx context.Context, id string, status model.MessageStatus, fields model.MessageUpdate) error {
	s.mu.Lock()
	s.seen[status]++
	n := s.seen[status]
	s.mu.Unlock()
	if s.fail(status, n) {
		return errDBBlip
	}
	return s.MemoryStore.UpdateMessageStatus(ctx, id, status, fields)
}
