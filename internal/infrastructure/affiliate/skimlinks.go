package affiliate

import (
	"encoding/json"
	"fmt"

	"github.com/owningthelook/backend/internal/domain"
)

// fallbackStore is shown when Skimlinks omits the merchant
const fallbackStore = "Partner Store"

type skimlinksResponse struct {
	Products json.RawMessage `json:"products"`
}

type skimlinksProduct struct {
	ID           Text  `json:"id"`
	Title        Text  `json:"title"`
	MerchantName Text  `json:"merchant_name"`
	Price        Price `json:"price"`
	PriceOld     Price `json:"price_old"`
	ImageURL     Text  `json:"image_url"`
	URL          Text  `json:"url"`
}

// NewSkimlinksAdapter creates the Skimlinks product-search adapter
func NewSkimlinksAdapter(fetcher domain.ProviderFetcher) *Adapter {
	return newAdapter(NetworkSkimlinks, "Skimlinks", fetcher, parseSkimlinks)
}

func parseSkimlinks(body []byte) ([]domain.ProductMatch, error) {
	var resp skimlinksResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}

	products := decodeList[skimlinksProduct](resp.Products)
	matches := make([]domain.ProductMatch, 0, len(products))
	for i, p := range products {
		id := p.ID.String()
		if id == "" {
			id = fmt.Sprintf("skim-%d", i)
		}
		store := p.MerchantName.String()
		if store == "" {
			store = fallbackStore
		}
		oldPrice, onSale := saleFields(p.Price, p.PriceOld)

		matches = append(matches, domain.ProductMatch{
			ID:           id,
			Title:        p.Title.String(),
			Store:        store,
			Price:        p.Price.Value,
			OldPrice:     oldPrice,
			ImageURL:     p.ImageURL.String(),
			AffiliateURL: p.URL.String(),
			IsOnSale:     onSale,
		})
	}
	return matches, nil
}
