package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/unclebandit/outreach-pipeline/internal/service"
)

// RetryTopic carries RetryJob payloads from the API to the retry worker.
const RetryTopic = "message_retries"

// Queue moves JSON payloads between publishers and subscribers. Delivery is
// at most once per subscriber; a failed handler is logged, never requeued.
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(body []byte) error) error
	Close() error
}

type RetryJob struct {
	CampaignID string `json:"campaignId"`
	MessageID  string `json:"messageId,omitempty"`
}

// InMemoryQueue runs each handler in its own goroutine inside the process.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(body []byte) error
	wg       sync.WaitGroup
	logger   *zap.Logger
}

func NewInMemoryQueue(logger *zap.Logger) *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(body []byte) error),
		logger:   logger,
	}
}

// Publish hands payload to every subscriber of topic.
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", topic, err)
	}

	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		q.wg.Add(1)
		go q.process(topic, handler, body)
	}
	return nil
}

func (q *InMemoryQueue) process(topic string, handler func(body []byte) error, body []byte) {
	defer q.wg.Done()
	if err := handler(body); err != nil {
		q.logger.Error("job failed", zap.String("topic", topic), zap.ByteString("body", body), zap.Error(err))
		return
	}
	q.logger.Debug("job processed", zap.String("topic", topic))
}

func (q *InMemoryQueue) Subscribe(topic string, handler func(body []byte) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Close waits for in-flight handlers.
func (q *InMemoryQueue) Close() error {
	q.wg.Wait()
	return nil
}

// Retrier is satisfied by service.RetryService.
type Retrier interface {
	Retry(ctx context.Context, campaignID, messageID string) (*service.RetrySummary, error)
}

// StartRetrySubscriber runs every RetryJob published on RetryTopic.
func StartRetrySubscriber(q Queue, retrier Retrier, logger *zap.Logger) error {
	err := q.Subscribe(RetryTopic, func(body []byte) error {
		var job RetryJob
		if err := json.Unmarshal(body, &job); err != nil || job.CampaignID == "" {
			// a malformed job can never succeed, so drop it
			logger.Warn("invalid retry job", zap.ByteString("body", body), zap.Error(err))
			return nil
		}

		summary, err := retrier.Retry(context.Background(), job.CampaignID, job.MessageID)
		if err != nil {
			return fmt.Errorf("retry campaign %s: %w", job.CampaignID, err)
		}
		logger.Info("queued retry processed",
			zap.String("campaign_id", job.CampaignID),
			zap.String("message_id", job.MessageID),
			zap.Int("retried", summary.Retried),
			zap.Int("succeeded", summary.Succeeded))
		return nil
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", RetryTopic, err)
	}
	return nil
}
