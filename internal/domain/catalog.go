package domain

// CatalogEntry links a known product name to its category and shelf-life text
type CatalogEntry struct {
	Product     string `json:"product"` // lower-cased
	Category    string `json:"category"`
	ExpiryRange string `json:"expiryRange"`
}

// Lexicon holds the keyword lists driving line filtering and food classification
type Lexicon struct {
	// SkipKeywords mark receipt lines that never describe a product (totals, tax, header, payment)
	SkipKeywords []string
	// NonFoodKeywords mark product names that are not food, overriding any catalog match
	NonFoodKeywords []string
	// FoodIndicators are generic words that suggest a food product when nothing else matched
	FoodIndicators []string
}
