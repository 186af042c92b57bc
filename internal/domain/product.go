package domain

// ProductMatch is a purchasable product returned by an affiliate network
type ProductMatch struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Store        string   `json:"store"`
	Price        float64  `json:"price"`
	OldPrice     *float64 `json:"oldPrice,omitempty"`
	ImageURL     string   `json:"imageUrl"`
	AffiliateURL string   `json:"affiliateUrl,omitempty"`
	IsBestMatch  bool     `json:"isBestMatch,omitempty"`
	IsOnSale     bool     `json:"isOnSale,omitempty"`
	Provider     string   `json:"provider"` // network that produced the match
}

// CanBuy reports whether the match offers a direct affiliate link.
// Matches without one are shown with a passive "view" indicator only.
func (m ProductMatch) CanBuy() bool {
	return m.AffiliateURL != ""
}

// HasImage reports whether the match carries an image reference
func (m ProductMatch) HasImage() bool {
	return m.ImageURL != ""
}

// MatchesRequest is the body of an aggregate search request
type MatchesRequest struct {
	Item    FashionItem `json:"item" binding:"required"`
	Broaden bool        `json:"broaden"`
}

// MatchesResponse is the result of an aggregate search
type MatchesResponse struct {
	Matches    []ProductMatch `json:"matches"`
	Count      int            `json:"count"`
	DataSource string         `json:"dataSource"`
	Query      string         `json:"query"`
	Empty      bool           `json:"empty"`
	Guidance   string         `json:"guidance,omitempty"`
}

// MixedDataSource labels a result list with more than one contributing provider
const MixedDataSource = "Mixed"

// DataSourceLabel describes which providers contributed to a match list
func DataSourceLabel(matches []ProductMatch) string {
	label := ""
	for _, m := range matches {
		if label == "" {
			label = m.Provider
			continue
		}
		if m.Provider != label {
			return MixedDataSource
		}
	}
	return label
}
