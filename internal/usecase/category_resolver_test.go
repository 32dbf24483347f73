package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantrylens/backend/internal/infrastructure/catalog"
)

func TestCategoryResolver_Resolve(t *testing.T) {
	resolver := NewCategoryResolver(newTestCatalog(t))

	testCases := []struct {
		name         string
		input        string
		wantCategory string
		wantRange    string
	}{
		{name: "exact match", input: "Fennel", wantCategory: "vegetable", wantRange: vegetableRange},
		{name: "partial match", input: "Baby Carrots", wantCategory: "vegetable", wantRange: vegetableRange},
		{name: "partial match on multi word product", input: "Milk", wantCategory: "dairy", wantRange: "7-10 days (fresh), 2-3 months (frozen)"},
		{name: "unknown falls back to other", input: "Quinoa", wantCategory: "other", wantRange: ""},
		{name: "empty", input: "", wantCategory: "other", wantRange: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			category, expiryRange := resolver.Resolve(tc.input)
			assert.Equal(t, tc.wantCategory, category)
			assert.Equal(t, tc.wantRange, expiryRange)
		})
	}
}

func TestCategoryResolver_BuildOrder(t *testing.T) {
	c, err := catalog.New(catalog.Document{Categories: []catalog.Category{
		{Name: "produce", Products: []string{"green apple"}},
		{Name: "snacks", Products: []string{"apple"}},
	}})
	require.NoError(t, err)
	resolver := NewCategoryResolver(c)

	category, _ := resolver.Resolve("apple")
	assert.Equal(t, "snacks", category, "exact match beats partial")

	category, _ = resolver.Resolve("apple juice")
	assert.Equal(t, "produce", category, "first catalog entry in build order wins")

	category, _ = resolver.Resolve("juice apple")
	assert.Equal(t, "produce", category)
}
