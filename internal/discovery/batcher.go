package discovery

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/unclebandit/outreach-pipeline/internal/metrics"
	"github.com/unclebandit/outreach-pipeline/internal/model"
)

const (
	DefaultBatchSize  = 10
	DefaultMaxBatch   = 100
	DefaultChunkPause = time.Second
)

type Discoverer interface {
	Discover(ctx context.Context, org model.Organization) model.DiscoveryResult
}

// OrganizationSource returns nil, nil for an unknown id.
type OrganizationSource interface {
	GetOrganization(ctx context.Context, id string) (*model.Organization, error)
}

// Batcher runs discovery over many organizations in concurrent chunks.
type Batcher struct {
	Chain         Discoverer
	Organizations OrganizationSource
	Logger        *zap.Logger
	MaxBatch      int
	ChunkPause    time.Duration

	// OnProgress, when set, receives a snapshot each time a result lands.
	OnProgress func(model.DiscoveryProgress)
}

func NewBatcher(chain Discoverer, orgs OrganizationSource, logger *zap.Logger, maxBatch int, chunkPause time.Duration) *Batcher {
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatch
	}
	return &Batcher{
		Chain:         chain,
		Organizations: orgs,
		Logger:        logger,
		MaxBatch:      maxBatch,
		ChunkPause:    chunkPause,
	}
}

// landed is one chunk member's outcome; found is false when the organization
// does not exist.
type landed struct {
	result model.DiscoveryResult
	found  bool
}

// RunBatch returns once every organization has finished. Input beyond MaxBatch
// is dropped, not queued.
func (b *Batcher) RunBatch(ctx context.Context, organizationIDs []string, batchSize int) model.DiscoveryProgress {
	ids := organizationIDs
	if limit := b.maxBatch(); len(ids) > limit {
		b.Logger.Warn("discovery batch truncated",
			zap.Int("requested", len(ids)), zap.Int("max", limit))
		ids = ids[:limit]
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	p := newProgress(len(ids))
	for start := 0; start < len(ids); start += batchSize {
		if start > 0 {
			if err := sleep(ctx, b.ChunkPause); err != nil {
				b.Logger.Warn("discovery batch cancelled", zap.Error(err), zap.Int("processed", p.snapshot().Processed))
				break
			}
		}
		end := min(start+batchSize, len(ids))
		b.runChunk(ctx, ids[start:end], p)
	}

	out := p.snapshot()
	b.Logger.Info("discovery batch finished",
		zap.Int("total", out.Total),
		zap.Int("processed", out.Processed),
		zap.Int("succeeded", out.Succeeded),
		zap.Int("failed", out.Failed))
	return out
}

// runChunk fans the chunk out and drains exactly len(chunk) outcomes.
func (b *Batcher) runChunk(ctx context.Context, chunk []string, p *progress) {
	results := make(chan landed, len(chunk))
	var g errgroup.Group
	for _, id := range chunk {
		g.Go(func() error {
			results <- b.discoverOne(ctx, id)
			return nil
		})
	}

	for range chunk {
		l := <-results
		if !l.found {
			continue
		}
		snap := p.record(l.result)
		metrics.DiscoveryResults.WithLabelValues(string(l.result.Status)).Inc()
		if b.OnProgress != nil {
			b.OnProgress(snap)
		}
	}
	_ = g.Wait()
}

func (b *Batcher) discoverOne(ctx context.Context, id string) landed {
	org, err := b.Organizations.GetOrganization(ctx, id)
	if err != nil {
		b.Logger.Error("failed to load organization", zap.String("organization_id", id), zap.Error(err))
		return landed{found: true, result: model.DiscoveryResult{
			OrganizationID: id,
			Emails:         []string{},
			Status:         model.DiscoveryFailed,
			Error:          err.Error(),
		}}
	}
	if org == nil {
		b.Logger.Debug("organization not found, skipping", zap.String("organization_id", id))
		return landed{}
	}
	return landed{found: true, result: b.Chain.Discover(ctx, *org)}
}

func (b *Batcher) maxBatch() int {
	if b.MaxBatch <= 0 {
		return DefaultMaxBatch
	}
	return b.MaxBatch
}

// progress keeps the running totals of one batch run.
type progress struct {
	mu sync.Mutex
	p  model.DiscoveryProgress
}

func newProgress(total int) *progress {
	return &progress{p: model.DiscoveryProgress{Total: total, Results: []model.DiscoveryResult{}}}
}

func (p *progress) record(r model.DiscoveryResult) model.DiscoveryProgress {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.p.Processed++
	switch r.Status {
	case model.DiscoverySuccess:
		p.p.Succeeded++
	case model.DiscoveryFailed:
		p.p.Failed++
	case model.DiscoveryNoEmailsFound:
		p.p.NoEmailsFound++
	}
	p.p.Results = append(p.p.Results, r)
	return p.copyLocked()
}

func (p *progress) snapshot() model.DiscoveryProgress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.copyLocked()
}

func (p *progress) copyLocked() model.DiscoveryProgress {
	out := p.p
	out.Results = make([]model.DiscoveryResult, len(p.p.Results))
	copy(out.Results, p.p.Results)
	return out
}
