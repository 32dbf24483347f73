package usecase

import (
	"regexp"
	"strings"
)

// Compiled regex patterns for receipt line cleanup, applied in this order
var (
	// Matches decimal prices with an optional euro sign, e.g. "1,79 €", "12.50"
	priceTokenPattern = regexp.MustCompile(`\d+[,.]\d+\s*€?`)

	// Matches percentages like "22%"
	percentPattern = regexp.MustCompile(`\d+%`)

	// Matches per-kilogram annotations like "EUR/kg", "€ / kg", "/kg"
	perKilogramPattern = regexp.MustCompile(`(?i)(?:eur|€|\$|£)?\s*/\s*kg\b`)

	// Matches weights like "1kg", "4Kg", "800G", "0,5 kg"
	weightTokenPattern = regexp.MustCompile(`(?i)\b\d+[,.]?\d*\s*(?:kg|g)\b`)

	// Matches standalone piece markers like "PZ", "pc", "pcs"
	pieceMarkerPattern = regexp.MustCompile(`(?i)\b(?:pz|pcs?)\b`)

	// Matches currency symbols and codes
	currencyPattern = regexp.MustCompile(`(?i)€|eur|\$|£`)

	// Matches anything that is not a letter, digit, underscore, whitespace or period
	disallowedCharPattern = regexp.MustCompile(`[^\p{L}\p{N}_\s.]`)
)

// NormalizeName cleans a raw receipt line into a product name.
// Prices, percentages, per-kg annotations, weights, piece markers and currency
// symbols are removed, other punctuation becomes a space and whitespace is collapsed.
// NormalizeName(NormalizeName(s)) == NormalizeName(s) for every s.
func NormalizeName(line string) string {
	cleaned := normalizePass(line)
	// A removal can join fragments into a new token ("1€.5" becomes "1.5"), so repeat until stable.
	// Every pass after the first only deletes text, which bounds the loop.
	for {
		next := normalizePass(cleaned)
		if next == cleaned {
			return cleaned
		}
		cleaned = next
	}
}

func normalizePass(s string) string {
	s = priceTokenPattern.ReplaceAllString(s, "")
	s = percentPattern.ReplaceAllString(s, "")
	s = perKilogramPattern.ReplaceAllString(s, "")
	s = weightTokenPattern.ReplaceAllString(s, "")
	s = pieceMarkerPattern.ReplaceAllString(s, "")
	s = currencyPattern.ReplaceAllString(s, "")
	s = disallowedCharPattern.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}
