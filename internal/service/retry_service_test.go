package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/outreach-pipeline/internal/errors"
	"github.com/unclebandit/outreach-pipeline/internal/model"
	"github.com/unclebandit/outreach-pipeline/internal/provider"
	"github.com/unclebandit/outreach-pipeline/internal/service"
)

func TestRetryTouchesOnlyFailedMessages(t *testing.T) {
	f := newFixture(t)
	f.seed("c1",
		model.Organization{ID: "o1", Email: "a@gracechapel.org"},
		model.Organization{ID: "o2", Email: "b@gracechapel.org"},
		model.Organization{ID: "o3", Email: "c@gracechapel.org"},
	)
	f.email.SetSendFunc(func(p provider.Payload) (provider.SendResult, error) {
		if p.To == "a@gracechapel.org" {
			return provider.SendResult{ExternalID: "sg-a"}, nil
		}
		return rejectAll(p)
	})
	_, err := f.campaign.Launch(context.Background(), "c1", "t-email")
	require.NoError(t, err)

	before, _ := f.store.ListMessages(context.Background(), "c1")
	var sent model.Message
	for _, m := range before {
		if m.Status == model.StatusSent {
			sent = m
		}
	}
	require.Equal(t, "o1", sent.RecipientID)

	f.email.SetSendFunc(nil)
	out, err := f.retry.Retry(context.Background(), "c1", "")
	require.NoError(t, err)
	assert.Equal(t, 2, out.Retried)
	assert.Equal(t, 2, out.Succeeded)
	assert.Equal(t, 0, out.Failed)

	after, _ := f.store.GetMessage(context.Background(), sent.ID)
	assert.Equal(t, sent, *after)

	// 3 launch sends plus 2 retries; the sent message was not re-sent
	assert.Len(t, f.email.Sent(), 5)
}

func TestRetryEndToEndAfterPermanentRejection(t *testing.T) {
	f := newFixture(t)
	f.seed("c1", model.Organization{ID: "o1", Email: "pastor@gracechapel.org"})
	f.email.SetSendFunc(rejectAll)

	launch, err := f.campaign.Launch(context.Background(), "c1", "t-email")
	require.NoError(t, err)
	require.Len(t, launch.Messages, 1)
	id := launch.Messages[0].MessageID

	msg, _ := f.store.GetMessage(context.Background(), id)
	assert.Equal(t, model.StatusFailed, msg.Status)
	assert.Contains(t, *msg.FailureReason, "permanent")
	c, _ := f.store.GetCampaign(context.Background(), "c1")
	assert.Equal(t, model.CampaignDraft, c.Status)

	f.email.SetSendFunc(func(provider.Payload) (provider.SendResult, error) {
		return provider.SendResult{ExternalID: "sg-123"}, nil
	})
	out, err := f.retry.Retry(context.Background(), "c1", id)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Succeeded)

	msg, _ = f.store.GetMessage(context.Background(), id)
	assert.Equal(t, id, msg.ID)
	assert.Equal(t, model.StatusSent, msg.Status)
	assert.Nil(t, msg.FailureReason)
	assert.Equal(t, "sg-123", *msg.ExternalID)

	msgs, _ := f.store.ListMessages(context.Background(), "c1")
	assert.Len(t, msgs, 1)
	c, _ = f.store.GetCampaign(context.Background(), "c1")
	assert.Equal(t, model.CampaignActive, c.Status)
}

func TestRetrySendsStoredContentVerbatim(t *testing.T) {
	f := newFixture(t)
	f.seed("c1", model.Organization{ID: "o1", Name: "Grace", Email: "pastor@gracechapel.org"})
	f.email.SetSendFunc(rejectAll)
	_, err := f.campaign.Launch(context.Background(), "c1", "t-email")
	require.NoError(t, err)

	f.store.AddTemplate(model.Template{ID: "t-email", Type: model.ChannelEmail, Subject: "edited", Body: "edited"})
	f.email.SetSendFunc(nil)
	_, err = f.retry.Retry(context.Background(), "c1", "")
	require.NoError(t, err)

	sent := f.email.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, sent[0], sent[1])
	assert.Equal(t, "Hello Grace", sent[1].Subject)
}

func TestRetryRenewedFailureOverwritesReason(t *testing.T) {
	f := newFixture(t)
	f.seed("c1", model.Organization{ID: "o1", Email: "pastor@gracechapel.org"})
	f.email.SetSendFunc(rejectAll)
	launch, err := f.campaign.Launch(context.Background(), "c1", "t-email")
	require.NoError(t, err)
	id := launch.Messages[0].MessageID

	f.email.SetSendFunc(func(provider.Payload) (provider.SendResult, error) {
		return provider.SendResult{}, &provider.APIError{Provider: provider.SendGrid, StatusCode: 503, Message: "overloaded"}
	})
	for range 3 {
		out, err := f.retry.Retry(context.Background(), "c1", "")
		require.NoError(t, err)
		assert.Equal(t, 1, out.Failed)
	}

	msg, _ := f.store.GetMessage(context.Background(), id)
	assert.Equal(t, model.StatusFailed, msg.Status)
	assert.Contains(t, *msg.FailureReason, "overloaded")
	msgs, _ := f.store.ListMessages(context.Background(), "c1")
	assert.Len(t, msgs, 1)
}

func TestRetryClaimErrorLeavesMessageRetryable(t *testing.T) {
	f := newFixture(t)
	f.seed("c1",
		model.Organization{ID: "o1", Email: "pastor@gracechapel.org"},
		model.Organization{ID: "o2", Email: "office@stmark.org"})
	f.email.SetSendFunc(rejectAll)
	_, err := f.campaign.Launch(context.Background(), "c1", "t-email")
	require.NoError(t, err)
	f.email.SetSendFunc(nil)

	store := newFlakyStore(f.store, func(status model.MessageStatus, n int) bool {
		return status == model.StatusPending && n == 2
	})
	retry := service.NewRetryService(f.store, store, f.dispatcher, zap.NewNop(), 4)

	out, err := retry.Retry(context.Background(), "c1", "")
	require.NoError(t, err)
	assert.Equal(t, 2, out.Retried)
	assert.Equal(t, 1, out.Succeeded)
	assert.Equal(t, 1, out.Failed)
	for _, m := range out.Messages {
		if m.Status == model.StatusFailed {
			assert.Contains(t, m.FailureReason, "db blip")
			assert.Equal(t, appErrors.KindTransient, m.FailureKind)
		}
	}

	byStatus := map[model.MessageStatus]int{}
	msgs, _ := f.store.ListMessages(context.Background(), "c1")
	for _, m := range msgs {
		byStatus[m.Status]++
	}
	assert.Equal(t, map[model.MessageStatus]int{model.StatusSent: 1, model.StatusFailed: 1}, byStatus)

	out, err = f.retry.Retry(context.Background(), "c1", "")
	require.NoError(t, err)
	assert.Equal(t, 1, out.Retried)
	assert.Equal(t, 1, out.Succeeded)

	msgs, _ = f.store.ListMessages(context.Background(), "c1")
	for _, m := range msgs {
		assert.Equal(t, model.StatusSent, m.Status, m.RecipientID)
	}
	assert.Len(t, f.email.Sent(), 4)
}

func TestLaunchRetriesOutcomeWrite(t *testing.T) {
	f := newFixture(t)
	f.seed("c1", model.Organization{ID: "o1", Email: "pastor@gracechapel.org"})

	store := newFlakyStore(f.store, func(status model.MessageStatus, n int) bool {
		return status == model.StatusSent && n == 1
	})
	campaigns := service.NewCampaignService(f.store, store, f.dispatcher, zap.NewNop(), 4)

	out, err := campaigns.Launch(context.Background(), "c1", "t-email")
	require.NoError(t, err)
	assert.Equal(t, 1, out.Succeeded)

	msgs, _ := f.store.ListMessages(context.Background(), "c1")
	require.Len(t, msgs, 1)
	assert.Equal(t, model.StatusSent, msgs[0].Status)
	assert.Len(t, f.email.Sent(), 1)
}

func TestRetryMessageNotFailedIsNoop(t *testing.T) {
	f := newFixture(t)
	f.seed("c1", model.Organization{ID: "o1", Email: "pastor@gracechapel.org"})
	launch, err := f.campaign.Launch(context.Background(), "c1", "t-email")
	require.NoError(t, err)

	out, err := f.retry.Retry(context.Background(), "c1", launch.Messages[0].MessageID)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Retried)
	assert.Len(t, f.email.Sent(), 1)
}

func TestRetryMessageFromOtherCampaign(t *testing.T) {
	f := newFixture(t)
	f.seed("c1", model.Organization{ID: "o1", Email: "pastor@gracechapel.org"})
	f.seed("c2")
	launch, err := f.campaign.Launch(context.Background(), "c1", "t-email")
	require.NoError(t, err)

	_, err = f.retry.Retry(context.Background(), "c2", launch.Messages[0].MessageID)
	assert.True(t, appErrors.IsNotFound(err))

	_, err = f.retry.Retry(context.Background(), "missing", "")
	assert.True(t, appErrors.IsNotFound(err))
}

func TestConcurrentRetriesSendOnce(t *testing.T) {
	f := newFixture(t)
	f.seed("c1", model.Organization{ID: "o1", Email: "pastor@gracechapel.org"})
	f.email.SetSendFunc(rejectAll)
	_, err := f.campaign.Launch(context.Background(), "c1", "t-email")
	require.NoError(t, err)

	f.email.SetSendFunc(func(provider.Payload) (provider.SendResult, error) {
		time.Sleep(10 * time.Millisecond)
		return provider.SendResult{ExternalID: "sg-1"}, nil
	})

	var wg sync.WaitGroup
	var mu sync.Mutex
	retried := 0
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := f.retry.Retry(context.Background(), "c1", "")
			if assert.NoError(t, err) {
				mu.Lock()
				retried += out.Retried
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, retried)
	assert.Len(t, f.email.Sent(), 2)
}

func TestStatusCallbacks(t *testing.T) {
	f := newFixture(t)
	f.seed("c1", model.Organization{ID: "o1", Email: "pastor@gracechapel.org"})
	f.email.SetSendFunc(func(provider.Payload) (provider.SendResult, error) {
		return provider.SendResult{ExternalID: "sg-9"}, nil
	})
	_, err := f.campaign.Launch(context.Background(), "c1", "t-email")
	require.NoError(t, err)

	_, err = f.status.Apply(context.Background(), "sg-9", model.StatusOpened, time.Now())
	assert.Error(t, err, "opened before delivered")

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	msg, err := f.status.Apply(context.Background(), "sg-9", model.StatusDelivered, at)
	require.NoError(t, err)
	assert.Equal(t, at, *msg.DeliveredAt)

	_, err = f.status.Apply(context.Background(), "sg-9", model.StatusDelivered, time.Now())
	assert.NoError(t, err)

	for _, st := range []model.MessageStatus{model.StatusClicked, model.StatusOpened, model.StatusReplied} {
		msg, err = f.status.Apply(context.Background(), "sg-9", st, time.Now())
		require.NoError(t, err)
		assert.Equal(t, st, msg.Status)
	}
	assert.NotNil(t, msg.OpenedAt)
	assert.NotNil(t, msg.ClickedAt)
	assert.NotNil(t, msg.RepliedAt)

	_, err = f.status.Apply(context.Background(), "sg-9", model.StatusFailed, time.Now())
	assert.Error(t, err, "failed after delivered")

	_, err = f.status.Apply(context.Background(), "unknown", model.StatusDelivered, time.Now())
	assert.True(t, appErrors.IsNotFound(err))
}
