package usecase

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/sourcegraph/conc/iter"
	"github.com/sourcegraph/conc/panics"

	"github.com/owningthelook/backend/internal/domain"
)

// EmptyGuidance is shown when no provider returned a match
const EmptyGuidance = "No matching products found. Try broadening the search or refining your selection."

// AggregatorConfig holds configuration for the product aggregator
type AggregatorConfig struct {
	// PriceTiebreak orders matches by ascending price inside each image group
	PriceTiebreak bool
	Debug         bool
}

// ProductAggregator fans a query out to every provider and merges the answers
type ProductAggregator struct {
	providers []domain.ProviderAdapter
	queries   *QueryBuilder
	observer  domain.SearchObserver
	config    AggregatorConfig
}

// NewProductAggregator creates an aggregator over providers, which must be in
// priority order. observer may be nil.
func NewProductAggregator(
	providers []domain.ProviderAdapter,
	observer domain.SearchObserver,
	config AggregatorConfig,
) *ProductAggregator {
	return &ProductAggregator{
		providers: providers,
		queries:   NewQueryBuilder(config.Debug),
		observer:  observer,
		config:    config,
	}
}

// providerResult is one provider's settled answer
type providerResult struct {
	provider string
	matches  []domain.ProductMatch
}

// Search queries every provider concurrently and waits for all of them.
// A failing or panicking provider contributes nothing; Search itself never fails.
func (a *ProductAggregator) Search(ctx context.Context, item domain.FashionItem) []domain.ProductMatch {
	query := a.queries.ForItem(item)
	if query == "" {
		return []domain.ProductMatch{}
	}

	results := iter.Map(a.providers, func(p *domain.ProviderAdapter) providerResult {
		return a.searchProvider(ctx, *p, query)
	})

	var merged []domain.ProductMatch
	for _, r := range results {
		merged = append(merged, r.matches...)
	}
	if merged == nil {
		merged = []domain.ProductMatch{}
	}

	a.order(merged)

	log.Printf("[Aggregator] %q: %d matches from %d providers", query, len(merged), len(a.providers))
	return merged
}

// Respond runs Search and packages the answer for the client
func (a *ProductAggregator) Respond(ctx context.Context, item domain.FashionItem, broaden bool) *domain.MatchesResponse {
	if broaden {
		item = BroadenedItem(item)
	}
	matches := a.Search(ctx, item)

	resp := &domain.MatchesResponse{
		Matches:    matches,
		Count:      len(matches),
		DataSource: domain.DataSourceLabel(matches),
		Query:      a.queries.ForItem(item),
		Empty:      len(matches) == 0,
	}
	if resp.Empty {
		resp.Guidance = EmptyGuidance
	}
	return resp
}

// searchProvider runs one provider with panic isolation and reports the outcome
func (a *ProductAggregator) searchProvider(ctx context.Context, p domain.ProviderAdapter, query string) providerResult {
	name := p.Name()
	result := providerResult{provider: name}
	start := time.Now()

	if !p.Enabled() {
		a.observe(name, domain.OutcomeDisabled, start)
		return result
	}

	var (
		matches []domain.ProductMatch
		err     error
		catcher panics.Catcher
	)
	catcher.Try(func() {
		matches, err = p.Search(ctx, query)
	})

	switch {
	case catcher.Recovered() != nil:
		log.Printf("[Aggregator] %s panicked: %v", name, catcher.Recovered().Value)
		a.observe(name, domain.OutcomePanic, start)
	case err != nil:
		log.Printf("[Aggregator] %s failed: %v", name, err)
		a.observe(name, domain.OutcomeError, start)
	case len(matches) == 0:
		a.observe(name, domain.OutcomeEmpty, start)
	default:
		result.matches = matches
		a.observe(name, domain.OutcomeOK, start)
	}

	return result
}

func (a *ProductAggregator) observe(provider, outcome string, start time.Time) {
	if a.observer != nil {
		a.observer.ObserveProviderSearch(provider, outcome, time.Since(start))
	}
}

// order puts image-bearing matches first, keeping provider order otherwise
func (a *ProductAggregator) order(matches []domain.ProductMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		hi, hj := matches[i].HasImage(), matches[j].HasImage()
		if hi != hj {
			return hi
		}
		if a.config.PriceTiebreak {
			return matches[i].Price < matches[j].Price
		}
		return false
	})
}
