package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/unclebandit/outreach-pipeline/internal/channel"
	appErrors "github.com/unclebandit/outreach-pipeline/internal/errors"
	"github.com/unclebandit/outreach-pipeline/internal/model"
	"github.com/unclebandit/outreach-pipeline/internal/repository"
)

// DefaultWorkers bounds concurrent provider calls for one launch or retry.
const DefaultWorkers = 10

// Dispatcher is the send path shared by launch and retry.
type Dispatcher interface {
	Ready(ch model.Channel) error
	Send(ctx context.Context, msg model.Message) channel.Outcome
}

// Delivery is what a Worker reports for one message. Skipped is set when the
// claim found the message no longer eligible; nothing was sent.
type Delivery struct {
	Message model.Message
	Outcome channel.Outcome
	Err     error
	Skipped bool
}

// ClaimFunc reserves msg before it is sent. It reports false when another
// caller got there first.
type ClaimFunc func(ctx context.Context, msg model.Message) (bool, error)

// recordAttempts bounds the writes of one outcome; a send that cannot be
// recorded leaves the message pending.
var (
	recordAttempts = 3
	recordBackoff  = 50 * time.Millisecond
)

// Worker claims, sends and records every message from JobChan.
type Worker struct {
	Store      repository.DeliveryStateStore
	Dispatcher Dispatcher
	JobChan    <-chan model.Message
	Results    chan<- Delivery
	Claim      ClaimFunc
	Logger     *zap.Logger
}

func NewWorker(store repository.DeliveryStateStore, d Dispatcher, jobs <-chan model.Message, results chan<- Delivery, logger *zap.Logger) *Worker {
	return &Worker{
		Store:      store,
		Dispatcher: d,
		JobChan:    jobs,
		Results:    results,
		Logger:     logger,
	}
}

// Start processes jobs until JobChan is closed. Every job yields exactly one
// Delivery.
func (w *Worker) Start(ctx context.Context) {
	for msg := range w.JobChan {
		w.Results <- w.process(ctx, msg)
	}
}

func (w *Worker) process(ctx context.Context, msg model.Message) Delivery {
	log := w.Logger.With(zap.String("message_id", msg.ID))

	if w.Claim != nil {
		ok, err := w.Claim(ctx, msg)
		if err != nil {
			log.Error("failed to claim message", zap.Error(err))
			kind := appErrors.KindOf(err)
			if kind == "" {
				kind = appErrors.KindTransient
			}
			return Delivery{Message: msg, Outcome: channel.Outcome{
				Status:        model.StatusFailed,
				FailureKind:   kind,
				FailureReason: "claim failed: " + err.Error(),
			}, Err: err}
		}
		if !ok {
			return Delivery{Message: msg, Skipped: true}
		}
		msg.Status = model.StatusPending
	}

	out := w.Dispatcher.Send(ctx, msg)
	if out.Failed() {
		log.Info("message failed",
			zap.String("kind", string(out.FailureKind)),
			zap.String("reason", out.FailureReason))
	}

	// the send already happened; the write must not be lost to a cancelled request
	err := w.record(context.WithoutCancel(ctx), msg, out)
	if err != nil {
		log.Error("failed to record outcome",
			zap.String("status", string(out.Status)),
			zap.Error(err))
	}
	return Delivery{Message: msg, Outcome: out, Err: err}
}

func (w *Worker) record(ctx context.Context, msg model.Message, out channel.Outcome) error {
	var err error
	for attempt := range recordAttempts {
		if attempt > 0 {
			time.Sleep(recordBackoff)
		}
		err = w.Store.UpdateMessageStatus(ctx, msg.ID, out.Status, out.Update())
		if err == nil || !retryableWrite(err) {
			return err
		}
	}
	return err
}

// retryableWrite is false for answers another attempt cannot change.
func retryableWrite(err error) bool {
	var invalid *appErrors.ErrInvalidTransition
	var missing *appErrors.ErrMessageNotFound
	return !errors.As(err, &invalid) && !errors.As(err, &missing)
}

// deliver fans msgs out to at most workers Workers and collects exactly
// len(msgs) deliveries. claim may be nil. Result order is not input order.
func deliver(ctx context.Context, store repository.DeliveryStateStore, d Dispatcher, claim ClaimFunc, logger *zap.Logger, workers int, msgs []model.Message) []Delivery {
	if len(msgs) == 0 {
		return nil
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	workers = min(workers, len(msgs))

	jobs := make(chan model.Message)
	results := make(chan Delivery, len(msgs))

	var g errgroup.Group
	for range workers {
		w := NewWorker(store, d, jobs, results, logger)
		w.Claim = claim
		g.Go(func() error {
			w.Start(ctx)
			return nil
		})
	}

	for _, m := range msgs {
		jobs <- m
	}
	close(jobs)

	out := make([]Delivery, 0, len(msgs))
	for range msgs {
		out = append(out, <-results)
	}
	_ = g.Wait()
	return out
}

// MessageOutcome is the per-message detail returned with a summary.
type MessageOutcome struct {
	MessageID     string              `json:"messageId"`
	RecipientID   string              `json:"recipientId"`
	Recipient     string              `json:"recipient"`
	Status        model.MessageStatus `json:"status"`
	ExternalID    string              `json:"externalId,omitempty"`
	FailureKind   appErrors.Kind      `json:"failureKind,omitempty"`
	FailureReason string              `json:"failureReason,omitempty"`
}

func outcomeOf(d Delivery) MessageOutcome {
	return MessageOutcome{
		MessageID:     d.Message.ID,
		RecipientID:   d.Message.RecipientID,
		Recipient:     d.Message.Recipient,
		Status:        d.Outcome.Status,
		ExternalID:    d.Outcome.ExternalID,
		FailureKind:   d.Outcome.FailureKind,
		FailureReason: d.Outcome.FailureReason,
	}
}
