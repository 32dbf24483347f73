package catalog

import (
	"os"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/pantrylens/backend/internal/domain"
)

// Category is one category block of the catalog document
type Category struct {
	Name        string   `yaml:"name" json:"name"`
	ExpiryRange string   `yaml:"expiry_range" json:"expiry_range"`
	Products    []string `yaml:"products" json:"products"`
}

// Document is the on-disk catalog format. JSON documents parse as YAML.
type Document struct {
	Categories []Category `yaml:"categories" json:"categories"`
}

// Catalog is an immutable product → category index built once at startup.
// It is safe for concurrent use because nothing mutates it after New returns.
type Catalog struct {
	entries []domain.CatalogEntry
	index   map[string]int
	// categories keeps product word lists for manual-entry categorization
	categories []categoryWords
}

type categoryWords struct {
	name     string
	products [][]string
}

// minWordLength is the shortest word that takes part in word matching
const minWordLength = 3

// Load reads and parses a catalog document from path
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(domain.ErrCatalogInvalid, "read %s: %v", path, err)
	}
	return Parse(data)
}

// Parse builds a catalog from a YAML or JSON document
func Parse(data []byte) (*Catalog, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrapf(domain.ErrCatalogInvalid, "parse: %v", err)
	}
	return New(doc)
}

// New flattens the nested document into the lookup index.
// A product listed under several categories keeps its first position and the last category.
func New(doc Document) (*Catalog, error) {
	if len(doc.Categories) == 0 {
		return nil, eris.Wrap(domain.ErrCatalogInvalid, "no categories")
	}

	c := &Catalog{index: make(map[string]int)}
	for i, cat := range doc.Categories {
		name := strings.TrimSpace(cat.Name)
		if name == "" {
			return nil, eris.Wrapf(domain.ErrCatalogInvalid, "category %d has no name", i)
		}

		words := categoryWords{name: name}
		for _, p := range cat.Products {
			product := strings.ToLower(strings.TrimSpace(p))
			if product == "" {
				continue
			}
			entry := domain.CatalogEntry{
				Product:     product,
				Category:    name,
				ExpiryRange: cat.ExpiryRange,
			}
			if pos, ok := c.index[product]; ok {
				c.entries[pos] = entry
			} else {
				c.index[product] = len(c.entries)
				c.entries = append(c.entries, entry)
			}
			words.products = append(words.products, strings.Fields(product))
		}
		c.categories = append(c.categories, words)
	}

	return c, nil
}

// Lookup finds an exact, case-insensitive product match
func (c *Catalog) Lookup(name string) (domain.CatalogEntry, bool) {
	pos, ok := c.index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return domain.CatalogEntry{}, false
	}
	return c.entries[pos], true
}

// Entries returns every product in build order. Callers must not modify the slice.
func (c *Catalog) Entries() []domain.CatalogEntry {
	return c.entries
}

// Len returns the number of distinct products
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Categorize assigns a category to a manually entered pantry item.
// Exact product match first, then the first category holding a product that
// shares a whole word of at least three letters with the name.
func (c *Catalog) Categorize(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return domain.DefaultCategory
	}
	if entry, ok := c.Lookup(lower); ok {
		return entry.Category
	}

	nameWords := strings.Fields(lower)
	for _, cat := range c.categories {
		for _, productWords := range cat.products {
			if sharesWord(nameWords, productWords) {
				return cat.name
			}
		}
	}
	return domain.DefaultCategory
}

func sharesWord(nameWords, productWords []string) bool {
	for _, w := range nameWords {
		if utf8.RuneCountInString(w) < minWordLength {
			continue
		}
		for _, pw := range productWords {
			if w == pw {
				return true
			}
		}
	}
	return false
}
