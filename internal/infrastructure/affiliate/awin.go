package affiliate

import (
	"encoding/json"
	"fmt"

	"github.com/owningthelook/backend/internal/domain"
)

type awinResponse struct {
	Products json.RawMessage `json:"products"`
}

type awinProduct struct {
	ProductID     Text  `json:"productId"`
	ProductName   Text  `json:"productName"`
	MerchantName  Text  `json:"merchantName"`
	PriceValue    Price `json:"priceValue"`
	OldPriceValue Price `json:"oldPriceValue"`
	ImageURL      Text  `json:"imageUrl"`
	AwImageURL    Text  `json:"aw_image_url"`
	AwDeepLink    Text  `json:"aw_deep_link"`
}

// NewAwinAdapter creates the Awin product-feed adapter
func NewAwinAdapter(fetcher domain.ProviderFetcher) *Adapter {
	return newAdapter(NetworkAwin, "Awin", fetcher, parseAwin)
}

func parseAwin(body []byte) ([]domain.ProductMatch, error) {
	var resp awinResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}

	products := decodeList[awinProduct](resp.Products)
	matches := make([]domain.ProductMatch, 0, len(products))
	for i, p := range products {
		id := p.ProductID.String()
		if id == "" {
			id = fmt.Sprintf("awin-%d", i)
		}
		image := p.ImageURL.String()
		if image == "" {
			image = p.AwImageURL.String()
		}
		oldPrice, onSale := saleFields(p.PriceValue, p.OldPriceValue)

		matches = append(matches, domain.ProductMatch{
			ID:           id,
			Title:        p.ProductName.String(),
			Store:        p.MerchantName.String(),
			Price:        p.PriceValue.Value,
			OldPrice:     oldPrice,
			ImageURL:     image,
			AffiliateURL: p.AwDeepLink.String(),
			IsOnSale:     onSale,
		})
	}
	return matches, nil
}
