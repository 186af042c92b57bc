package affiliate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/owningthelook/backend/internal/domain"
)

type amazonProduct struct {
	Title Text  `json:"title"`
	Price Price `json:"price"`
	Img   Text  `json:"img"`
	Link  Text  `json:"link"`
}

// NewAmazonAdapter creates the adapter for the Amazon scraper endpoint.
// The endpoint answers a bare JSON array.
func NewAmazonAdapter(fetcher domain.ProviderFetcher) *Adapter {
	a := newAdapter(NetworkAmazon, "Amazon", fetcher, parseAmazon)
	a.prepare = shortQuery
	return a
}

// shortQuery keeps the first two terms; the scraper matches poorly on long queries
func shortQuery(query string) string {
	terms := strings.Fields(query)
	if len(terms) > 2 {
		return strings.Join(terms[:2], " ")
	}
	return strings.Join(terms, " ")
}

func parseAmazon(body []byte) ([]domain.ProductMatch, error) {
	if !json.Valid(body) {
		return nil, fmt.Errorf("invalid JSON")
	}

	products := decodeList[amazonProduct](body)
	matches := make([]domain.ProductMatch, 0, len(products))
	for i, p := range products {
		matches = append(matches, domain.ProductMatch{
			ID:           fmt.Sprintf("amazon-%d", i),
			Title:        p.Title.String(),
			Store:        "Amazon",
			Price:        p.Price.Value,
			ImageURL:     p.Img.String(),
			AffiliateURL: p.Link.String(),
		})
	}
	return matches, nil
}
