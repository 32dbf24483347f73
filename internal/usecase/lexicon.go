package usecase

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/pantrylens/backend/internal/domain"
)

// Supported receipt locales
const (
	LocaleEnglish = "en"
	LocaleItalian = "it"
)

// englishLexicon targets receipts printed by English-language tills
var englishLexicon = domain.Lexicon{
	SkipKeywords: []string{
		"total", "subtotal", "balance", "change due", "cash ", "cashier",
		"card payment", "card no", "visa", "mastercard", "debit", "credit", "payment", "paid",
		"amount due", "tax", "vat ", "receipt", "invoice", "store", "street",
		"tel.", "thank", "rounding", "items sold", "doc.", "loyalty",
	},
	NonFoodKeywords: []string{
		"bags", "carrier bag", "shopper", "discount", "offer", "coupon",
		"deposit", "plastic", "paper", "foil", "container", "battery",
		"batteries", "detergent", "shampoo", "soap", "toothpaste", "tissues",
		"napkins", "bottle opener", "screwdriver", "tool", "stainless steel", "blade",
		"candles", "light bulb", "a4",
	},
	FoodIndicators: []string{
		"kg", "grams", "pcs", "organic", "fresh", "wholemeal", "natural",
		"smoked", "spicy", "cheese", "milk", "butter", "mozzarella",
	},
}

// italianLexicon carries the word lists used on Italian supermarket receipts
var italianLexicon = domain.Lexicon{
	SkipKeywords: []string{
		"totale", "subtotale", "resto", "contante", "carta",
		"iva", "riepilogo", "digitale", "acquisto", "documento",
		"pagamento", "importo", "lidl italia", "roma", "via",
		"raee", "cdc", "valore sconti", "totale complessivo",
		"rt ", "doc.", "documento n.", "importo pagato",
	},
	NonFoodKeywords: []string{
		"sacchetto", "sacch.", "sacch", "sacch.ortofr",
		"sconto", "offerta", "buste", "busta",
		"apribottiglie", "avvitatore", "albero", "flessibile",
		"trasp", "trasparente",
		"lama", "sega", "acciaio",
		"lidl plus", "biograd", "ortofr",
		"a4", "50pz",
		"utensile", "attrezzo",
		"plastica", "carta", "contenitore", "borsa", "shopper",
	},
	FoodIndicators: []string{
		"kg", "grammi", "gr", "pz",
		"bio", "fresco", "fresca",
		"integrale", "naturale",
		"affumicato", "affumicata",
		"piccante", "mozzarella", "formaggio", "latte", "burro",
	},
}

// DefaultLexicon returns a copy of the built-in word lists for a locale
func DefaultLexicon(locale string) (domain.Lexicon, error) {
	switch strings.ToLower(strings.TrimSpace(locale)) {
	case LocaleEnglish, "":
		return copyLexicon(englishLexicon), nil
	case LocaleItalian:
		return copyLexicon(italianLexicon), nil
	default:
		return domain.Lexicon{}, eris.Wrapf(domain.ErrInvalidRequest, "unsupported locale %q", locale)
	}
}

// MergeLexicon replaces each default list with its override when the override is non-empty
func MergeLexicon(base domain.Lexicon, override domain.Lexicon) domain.Lexicon {
	out := copyLexicon(base)
	if len(override.SkipKeywords) > 0 {
		out.SkipKeywords = lowerAll(override.SkipKeywords)
	}
	if len(override.NonFoodKeywords) > 0 {
		out.NonFoodKeywords = lowerAll(override.NonFoodKeywords)
	}
	if len(override.FoodIndicators) > 0 {
		out.FoodIndicators = lowerAll(override.FoodIndicators)
	}
	return out
}

func copyLexicon(l domain.Lexicon) domain.Lexicon {
	return domain.Lexicon{
		SkipKeywords:    append([]string(nil), l.SkipKeywords...),
		NonFoodKeywords: append([]string(nil), l.NonFoodKeywords...),
		FoodIndicators:  append([]string(nil), l.FoodIndicators...),
	}
}

// lowerAll lower-cases keywords but keeps surrounding spaces, which some keywords rely on
func lowerAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if strings.TrimSpace(w) == "" {
			continue
		}
		out = append(out, strings.ToLower(w))
	}
	return out
}

// containsAny reports whether s contains any of the keywords as a substring
func containsAny(s string, keywords []string) (string, bool) {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return k, true
		}
	}
	return "", false
}
