package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pantrylens/backend/internal/domain"
)

// Quantity is an amount with its unit
type Quantity struct {
	Amount float64
	Unit   domain.Unit
}

// defaultQuantity is used when neither the description nor the paired line carries a signal
var defaultQuantity = Quantity{Amount: 1, Unit: domain.UnitPackage}

// quantityRule reads a quantity from one regex capture
type quantityRule struct {
	name    string
	pattern *regexp.Regexp
	unit    domain.Unit
	// fixed, when non-zero, is returned instead of the capture (piece markers carry no number)
	fixed float64
}

// Rules applied to the description line itself, e.g. "Potatoes 4Kg", "Carrots 800G", "Mango Pz"
var descriptionQuantityRules = []quantityRule{
	{name: "name_kg", pattern: regexp.MustCompile(`(?i)(\d+[,.]?\d*)\s*kg`), unit: domain.UnitKilogram},
	{name: "name_g", pattern: regexp.MustCompile(`(?i)(\d+)\s*(?:g|gr|grammi)\b`), unit: domain.UnitGram},
	{name: "name_piece", pattern: regexp.MustCompile(`(?i)\b(?:pz|pcs?)\b`), unit: domain.UnitPiece, fixed: 1},
}

// Rules applied to a paired weight/price line, e.g. "0,510 kg x 1,79 EUR/kg", "1 x 800g = 800g", "125 gr"
var pairedQuantityRules = []quantityRule{
	{name: "pair_decimal_kg", pattern: regexp.MustCompile(`(?i)(\d+[,.]\d+)\s*kg`), unit: domain.UnitKilogram},
	{name: "pair_integer_kg", pattern: regexp.MustCompile(`(?i)(\d+)\s*kg`), unit: domain.UnitKilogram},
	{name: "pair_equals_g", pattern: regexp.MustCompile(`(?i)=\s*(\d+)\s*g`), unit: domain.UnitGram},
	{name: "pair_g", pattern: regexp.MustCompile(`(?i)(\d+)\s*(?:g|gr|grammi)\b`), unit: domain.UnitGram},
	{name: "pair_multiplier", pattern: regexp.MustCompile(`(?i)(\d+)\s*x\b`), unit: domain.UnitPackage},
}

// ExtractQuantity infers quantity and unit for a receipt item.
// description is the raw candidate line; signals embedded there always win over
// the paired line. pair may be nil. The result always has a positive amount.
func ExtractQuantity(description string, pair *domain.RawLine) Quantity {
	if q, ok := applyQuantityRules(descriptionQuantityRules, description); ok {
		return q
	}
	if pair != nil {
		if q, ok := applyQuantityRules(pairedQuantityRules, pair.Text); ok {
			return q
		}
	}
	return defaultQuantity
}

func applyQuantityRules(rules []quantityRule, text string) (Quantity, bool) {
	for _, rule := range rules {
		match := rule.pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		if rule.fixed > 0 {
			return Quantity{Amount: rule.fixed, Unit: rule.unit}, true
		}
		amount, ok := parseAmount(match[1])
		if !ok {
			continue
		}
		return Quantity{Amount: amount, Unit: rule.unit}, true
	}
	return Quantity{}, false
}

// parseAmount parses a number using "," as the decimal separator. Non-positive values are rejected.
func parseAmount(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
