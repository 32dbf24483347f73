package domain

import (
	"context"
	"image"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ImagePreprocessor turns an encoded receipt image into a binary image ready for OCR
type ImagePreprocessor interface {
	Preprocess(data []byte) (*image.Gray, error)
}

// TextRecognizer extracts raw text from a preprocessed image.
// Implementations must preserve line breaks reported by the engine.
type TextRecognizer interface {
	Recognize(ctx context.Context, img *image.Gray) (string, error)
}

// ProductCatalog is the read-only food catalog shared by all analyses
type ProductCatalog interface {
	// Lookup finds an exact, case-insensitive product match
	Lookup(name string) (CatalogEntry, bool)
	// Entries lists every product in catalog build order
	Entries() []CatalogEntry
}
