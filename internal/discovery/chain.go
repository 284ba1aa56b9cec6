// Package discovery finds contact emails for organizations from public web
// search results.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/outreach-pipeline/internal/metrics"
	"github.com/unclebandit/outreach-pipeline/internal/model"
	"github.com/unclebandit/outreach-pipeline/internal/provider"
)

const (
	DefaultQueryDelay = 500 * time.Millisecond
	MaxQueries        = 2
)

var ErrNoSearchProviders = errors.New("no search providers configured")

// SearchSource yields the configured search providers in priority order.
type SearchSource interface {
	SearchProviders() []provider.SearchProvider
}

// Chain runs each query down the provider list and stops at the first
// provider with a non-empty answer.
type Chain struct {
	Providers  SearchSource
	Logger     *zap.Logger
	QueryDelay time.Duration
	MaxQueries int
}

func NewChain(providers SearchSource, logger *zap.Logger, queryDelay time.Duration) *Chain {
	return &Chain{
		Providers:  providers,
		Logger:     logger,
		QueryDelay: queryDelay,
		MaxQueries: MaxQueries,
	}
}

// Discover never returns an error: provider failures become a failed result.
func (c *Chain) Discover(ctx context.Context, org model.Organization) model.DiscoveryResult {
	result := model.DiscoveryResult{
		OrganizationID:   org.ID,
		OrganizationName: org.Name,
		Emails:           []string{},
	}
	log := c.Logger.With(zap.String("organization_id", org.ID))

	providers := c.Providers.SearchProviders()
	if len(providers) == 0 {
		result.Status = model.DiscoveryFailed
		result.Error = ErrNoSearchProviders.Error()
		return result
	}

	queries := BuildQueries(org.Name, org.WebsiteURL)
	limit := c.MaxQueries
	if limit <= 0 || limit > MaxQueries {
		limit = MaxQueries
	}
	if len(queries) > limit {
		queries = queries[:limit]
	}

	seen := make(map[string]bool)
	answered := false
	var lastErr error

	for i, q := range queries {
		if i > 0 {
			if err := sleep(ctx, c.QueryDelay); err != nil {
				lastErr = err
				break
			}
		}

		text, err := c.query(ctx, log, providers, q)
		if err != nil {
			lastErr = err
			continue
		}
		answered = true
		for _, email := range ExtractEmails(text) {
			if !seen[email] {
				seen[email] = true
				result.Emails = append(result.Emails, email)
			}
		}
	}

	switch {
	case !answered:
		result.Status = model.DiscoveryFailed
		if lastErr == nil {
			lastErr = fmt.Errorf("no queries for organization")
		}
		result.Error = lastErr.Error()
	case len(result.Emails) == 0:
		result.Status = model.DiscoveryNoEmailsFound
	default:
		result.Status = model.DiscoverySuccess
	}
	return result
}

// query returns the first non-empty answer for q. It reports an error only
// when every provider failed; empty answers alone yield "", nil.
func (c *Chain) query(ctx context.Context, log *zap.Logger, providers []provider.SearchProvider, q string) (string, error) {
	var lastErr error
	anyAnswer := false
	for _, p := range providers {
		text, err := p.Search(ctx, q)
		if err != nil {
			metrics.ProviderRequests.WithLabelValues(string(p.Name()), "error").Inc()
			log.Debug("search provider failed", zap.String("provider", string(p.Name())), zap.Error(err))
			lastErr = fmt.Errorf("%s: %w", p.Name(), err)
			continue
		}
		anyAnswer = true
		if strings.TrimSpace(text) == "" {
			metrics.ProviderRequests.WithLabelValues(string(p.Name()), "empty").Inc()
			continue
		}
		metrics.ProviderRequests.WithLabelValues(string(p.Name()), "ok").Inc()
		return text, nil
	}
	if anyAnswer {
		return "", nil
	}
	return "", lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
