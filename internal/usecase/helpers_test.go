package usecase

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pantrylens/backend/internal/domain"
	"github.com/pantrylens/backend/internal/infrastructure/catalog"
)

const vegetableRange = "5-7 days (fresh), 3-4 months (frozen)"

// newTestCatalog builds a small catalog shared by the usecase tests
func newTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(catalog.Document{Categories: []catalog.Category{
		{Name: "vegetable", ExpiryRange: vegetableRange, Products: []string{"fennel", "carrots", "potatoes", "cabbage"}},
		{Name: "fruit", ExpiryRange: "3-5 days (fresh), 8-12 months (frozen)", Products: []string{"mango", "bananas"}},
		{Name: "dairy", ExpiryRange: "7-10 days (fresh), 2-3 months (frozen)", Products: []string{"mozzarella", "whole milk"}},
		{Name: "bakery", ExpiryRange: "3 days (fresh), 3 months (frozen)", Products: []string{"rice paper"}},
	}})
	require.NoError(t, err)
	return c
}

func englishTestLexicon(t *testing.T) domain.Lexicon {
	t.Helper()
	lexicon, err := DefaultLexicon(LocaleEnglish)
	require.NoError(t, err)
	return lexicon
}
