package affiliate

import (
	"context"
	"fmt"
	"log"

	"github.com/owningthelook/backend/internal/domain"
)

// parseFunc turns one network's raw body into normalized matches
type parseFunc func(body []byte) ([]domain.ProductMatch, error)

// Adapter searches one network through a fetcher and normalizes the answer
type Adapter struct {
	network     string
	displayName string
	fetcher     domain.ProviderFetcher
	enabled     bool
	prepare     func(query string) string
	parse       parseFunc
}

// newAdapter decides at construction whether the network is usable
func newAdapter(network, displayName string, fetcher domain.ProviderFetcher, parse parseFunc) *Adapter {
	enabled := fetcher != nil && fetcher.Configured(network)
	if !enabled {
		log.Printf("[%s] Credentials not configured, adapter disabled", displayName)
	}
	return &Adapter{
		network:     network,
		displayName: displayName,
		fetcher:     fetcher,
		enabled:     enabled,
		parse:       parse,
	}
}

// Name returns the provider's display name, also used as match provenance
func (a *Adapter) Name() string {
	return a.displayName
}

// Network returns the proxy network key
func (a *Adapter) Network() string {
	return a.network
}

// Enabled reports whether the adapter has credentials
func (a *Adapter) Enabled() bool {
	return a.enabled
}

// Search queries the network. A disabled adapter returns no matches
// without touching the network.
func (a *Adapter) Search(ctx context.Context, query string) ([]domain.ProductMatch, error) {
	if !a.enabled {
		return []domain.ProductMatch{}, nil
	}
	if a.prepare != nil {
		query = a.prepare(query)
	}

	body, err := a.fetcher.Fetch(ctx, a.network, query)
	if err != nil {
		return nil, fmt.Errorf("%s search failed: %w", a.displayName, err)
	}

	matches, err := a.parse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: failed to decode response: %v", domain.ErrProviderAPIFailure, a.displayName, err)
	}

	for i := range matches {
		matches[i].Provider = a.displayName
		matches[i].IsBestMatch = i == 0
	}
	return matches, nil
}

// NewAdapters returns one adapter per network in priority order
func NewAdapters(fetcher domain.ProviderFetcher) []domain.ProviderAdapter {
	return []domain.ProviderAdapter{
		NewAwinAdapter(fetcher),
		NewSkimlinksAdapter(fetcher),
		NewRakutenAdapter(fetcher),
		NewAmazonAdapter(fetcher),
	}
}

// saleFields derives oldPrice and isOnSale from a current and previous price
func saleFields(price, old Price) (*float64, bool) {
	return old.Ptr(), old.Valid && old.Value > price.Value
}
