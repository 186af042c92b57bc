package usecase

import (
	"log"
	"regexp"
	"strings"

	"github.com/owningthelook/backend/internal/domain"
)

// maxQueryLength keeps queries under what the affiliate search APIs accept
const maxQueryLength = 100

var (
	// Characters the affiliate search endpoints reject or treat as operators
	unsafeQueryChars = regexp.MustCompile(`[^\p{L}\p{N}\s'&.\-/]+`)

	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// QueryBuilder turns classifier output into search queries
type QueryBuilder struct {
	enableDebugLogging bool
}

// NewQueryBuilder creates a new query builder
func NewQueryBuilder(enableDebugLogging bool) *QueryBuilder {
	return &QueryBuilder{enableDebugLogging: enableDebugLogging}
}

// Normalize cleans a query for upstream search
func (b *QueryBuilder) Normalize(query string) string {
	original := query

	cleaned := unsafeQueryChars.ReplaceAllString(query, " ")
	cleaned = multiSpacePattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	if len(cleaned) > maxQueryLength {
		cut := cleaned[:maxQueryLength]
		// Cut at word boundary
		if lastSpace := strings.LastIndex(cut, " "); lastSpace > maxQueryLength/2 {
			cut = cut[:lastSpace]
		}
		cleaned = strings.TrimSpace(strings.ToValidUTF8(cut, ""))
	}

	if b.enableDebugLogging {
		log.Printf("[Query] Input: %q -> Output: %q", original, cleaned)
	}

	return cleaned
}

// ForItem returns the normalized query for an item, falling back to its title
// and then its category when the classifier left the query blank.
func (b *QueryBuilder) ForItem(item domain.FashionItem) string {
	for _, candidate := range []string{item.Query, item.Title, item.Category} {
		if q := b.Normalize(candidate); q != "" {
			return q
		}
	}
	return ""
}

// BroadenedItem returns a copy of item whose query is its category
func BroadenedItem(item domain.FashionItem) domain.FashionItem {
	item.Query = item.Category
	return item
}
