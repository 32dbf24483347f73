package usecase

import (
	"strings"

	"github.com/pantrylens/backend/internal/domain"
)

// categoryRule looks up a catalog entry for a lower-cased name
type categoryRule func(lowerName string) (domain.CatalogEntry, bool)

// CategoryResolver maps a cleaned product name to its catalog category and shelf-life text
type CategoryResolver struct {
	rules []categoryRule
}

// NewCategoryResolver creates a resolver trying an exact match, then a partial token match
func NewCategoryResolver(catalog domain.ProductCatalog) *CategoryResolver {
	return &CategoryResolver{
		rules: []categoryRule{
			catalog.Lookup,
			func(lowerName string) (domain.CatalogEntry, bool) {
				return partialCatalogMatch(catalog, lowerName)
			},
		},
	}
}

// Resolve returns the category and raw expiry-range text for name,
// or ("other", "") when the catalog knows nothing about it
func (r *CategoryResolver) Resolve(name string) (category string, expiryRange string) {
	lowerName := strings.ToLower(strings.TrimSpace(name))
	for _, rule := range r.rules {
		if entry, ok := rule(lowerName); ok {
			return entry.Category, entry.ExpiryRange
		}
	}
	return domain.DefaultCategory, ""
}
