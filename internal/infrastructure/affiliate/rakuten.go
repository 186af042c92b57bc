package affiliate

import (
	"encoding/json"

	"github.com/owningthelook/backend/internal/domain"
)

type rakutenResponse struct {
	Result struct {
		Items json.RawMessage `json:"items"`
	} `json:"result"`
}

type rakutenItem struct {
	MID          Text  `json:"mid"`
	ProductName  Text  `json:"productname"`
	MerchantName Text  `json:"merchantname"`
	Price        Price `json:"price"`
	ImageURL     Text  `json:"imageurl"`
	LinkURL      Text  `json:"linkurl"`
}

// NewRakutenAdapter creates the Rakuten product-search adapter
func NewRakutenAdapter(fetcher domain.ProviderFetcher) *Adapter {
	return newAdapter(NetworkRakuten, "Rakuten", fetcher, parseRakuten)
}

func parseRakuten(body []byte) ([]domain.ProductMatch, error) {
	var resp rakutenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}

	items := decodeList[rakutenItem](resp.Result.Items)
	matches := make([]domain.ProductMatch, 0, len(items))
	for _, it := range items {
		name := it.ProductName.String()
		matches = append(matches, domain.ProductMatch{
			ID:           it.MID.String() + "-" + prefix(name, 5),
			Title:        name,
			Store:        it.MerchantName.String(),
			Price:        it.Price.Value,
			ImageURL:     it.ImageURL.String(),
			AffiliateURL: it.LinkURL.String(),
		})
	}
	return matches, nil
}

// prefix returns the first n runes of s
func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}
