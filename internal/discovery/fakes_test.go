package discovery

import (
	"context"
	"sync"

	"github.com/unclebandit/outreach-pipeline/internal/model"
	"github.com/unclebandit/outreach-pipeline/internal/provider"
)

// scriptedSearch answers every query with fn and counts calls.
type scriptedSearch struct {
	name       provider.Name
	configured bool
	fn         func(query string) (string, error)

	mu      sync.Mutex
	queries []string
}

func (s *scriptedSearch) Name() provider.Name { return s.name }
func (s *scriptedSearch) Configured() bool    { return s.configured }

func (s *scriptedSearch) Search(ctx context.Context, query string) (string, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()
	return s.fn(query)
}

func (s *scriptedSearch) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

type staticSource []provider.SearchProvider

func (s staticSource) SearchProviders() []provider.SearchProvider {
	var out []provider.SearchProvider
	for _, p := range s {
		if p.Configured() {
			out = append(out, p)
		}
	}
	return out
}

type memOrgs map[string]model.Organization

func (m memOrgs) GetOrganization(ctx context.Context, id string) (*model.Organization, error) {
	o, ok := m[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}
