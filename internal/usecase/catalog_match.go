package usecase

import (
	"strings"
	"unicode/utf8"

	"github.com/pantrylens/backend/internal/domain"
)

// minPartialTokenLength is the shortest name token that takes part in partial matching
const minPartialTokenLength = 3

// partialCatalogMatch finds the first catalog product that contains, or is contained in,
// a token of the name. Tokens are tried in name order and products in catalog build order.
// Short common substrings can produce false positives; this is accepted behaviour.
func partialCatalogMatch(catalog domain.ProductCatalog, lowerName string) (domain.CatalogEntry, bool) {
	entries := catalog.Entries()
	for _, token := range strings.Fields(lowerName) {
		if utf8.RuneCountInString(token) < minPartialTokenLength {
			continue
		}
		for _, entry := range entries {
			if strings.Contains(entry.Product, token) || strings.Contains(token, entry.Product) {
				return entry, true
			}
		}
	}
	return domain.CatalogEntry{}, false
}
