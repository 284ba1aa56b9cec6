// Package channel routes a message to the sender for its channel and turns
// whatever the provider answers into a single Outcome.
package channel

import (
	"context"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/outreach-pipeline/internal/errors"
	"github.com/unclebandit/outreach-pipeline/internal/metrics"
	"github.com/unclebandit/outreach-pipeline/internal/model"
	"github.com/unclebandit/outreach-pipeline/internal/provider"
)

const DefaultRequestTimeout = 15 * time.Second

type SenderSource interface {
	Sender(ch model.Channel) (provider.Sender, bool)
}

// Outcome of one send attempt. Status is sent or failed; FailureKind and
// FailureReason are set only for failed.
type Outcome struct {
	ExternalID    string
	Status        model.MessageStatus
	FailureKind   appErrors.Kind
	FailureReason string
}

func (o Outcome) Failed() bool { return o.Status == model.StatusFailed }

// Update is the store write that records this outcome.
func (o Outcome) Update() model.MessageUpdate {
	if o.Failed() {
		return model.MessageUpdate{FailureReason: model.StrPtr(o.FailureReason), At: time.Now()}
	}
	u := model.MessageUpdate{ClearFailure: true, At: time.Now()}
	if o.ExternalID != "" {
		u.ExternalID = model.StrPtr(o.ExternalID)
	}
	return u
}

// Dispatcher never persists; callers write the Outcome themselves.
type Dispatcher struct {
	Senders        SenderSource
	Logger         *zap.Logger
	RequestTimeout time.Duration
}

func NewDispatcher(senders SenderSource, logger *zap.Logger, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Dispatcher{Senders: senders, Logger: logger, RequestTimeout: timeout}
}

// Ready reports a configuration error when ch has no usable sender.
func (d *Dispatcher) Ready(ch model.Channel) error {
	if !ch.Valid() {
		return appErrors.NewConfiguration("unknown channel %q", ch)
	}
	if _, ok := d.Senders.Sender(ch); !ok {
		return appErrors.NewConfiguration("no %s provider configured", ch)
	}
	return nil
}

func (d *Dispatcher) Send(ctx context.Context, msg model.Message) Outcome {
	log := d.Logger.With(zap.String("message_id", msg.ID), zap.String("channel", string(msg.Channel)))

	sender, ok := d.Senders.Sender(msg.Channel)
	if !ok {
		return d.fail(msg, appErrors.NewDeliveryError(appErrors.KindConfiguration, "no "+string(msg.Channel)+" provider configured", nil))
	}

	to, err := normalizeRecipient(msg.Channel, msg.Recipient)
	if err != nil {
		return d.fail(msg, err)
	}

	payload := provider.Payload{To: to, Body: msg.Content}
	if msg.Channel == model.ChannelEmail {
		payload.Subject = msg.Subject
	}

	callCtx, cancel := context.WithTimeout(ctx, d.RequestTimeout)
	defer cancel()

	res, sendErr := sender.Send(callCtx, payload)
	if sendErr != nil {
		derr := classify(sender.Name(), sendErr)
		metrics.ProviderRequests.WithLabelValues(string(sender.Name()), "error").Inc()
		log.Warn("send failed",
			zap.String("provider", string(sender.Name())),
			zap.String("kind", string(derr.Kind)),
			zap.Error(sendErr))
		return d.fail(msg, derr)
	}

	metrics.ProviderRequests.WithLabelValues(string(sender.Name()), "ok").Inc()
	metrics.MessagesDispatched.WithLabelValues(string(msg.Channel), string(model.StatusSent), "").Inc()
	if res.ExternalID == "" {
		// accepted; status callbacks cannot be matched to this message
		log.Warn("provider accepted message without an id", zap.String("provider", string(sender.Name())))
	} else {
		log.Debug("message sent", zap.String("external_id", res.ExternalID))
	}
	return Outcome{ExternalID: res.ExternalID, Status: model.StatusSent}
}

func (d *Dispatcher) fail(msg model.Message, err *appErrors.DeliveryError) Outcome {
	metrics.MessagesDispatched.WithLabelValues(string(msg.Channel), string(model.StatusFailed), string(err.Kind)).Inc()
	return Outcome{
		Status:        model.StatusFailed,
		FailureKind:   err.Kind,
		FailureReason: err.Error(),
	}
}
