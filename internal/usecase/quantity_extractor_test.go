package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pantrylens/backend/internal/domain"
)

func TestExtractQuantity(t *testing.T) {
	testCases := []struct {
		name        string
		description string
		pair        string // empty means no paired line
		wantAmount  float64
		wantUnit    domain.Unit
	}{
		{name: "name wins over paired line", description: "Potatoes 4Kg", pair: "0,510 kg x 1,79 EUR/kg", wantAmount: 4, wantUnit: domain.UnitKilogram},
		{name: "decimal kilograms in name", description: "Chicken 1,5kg", wantAmount: 1.5, wantUnit: domain.UnitKilogram},
		{name: "grams in name", description: "Carote Igp 800G", wantAmount: 800, wantUnit: domain.UnitGram},
		{name: "piece marker in name", description: "Mango Pz", wantAmount: 1, wantUnit: domain.UnitPiece},
		{name: "no signal and no pair", description: "Mango", wantAmount: 1, wantUnit: domain.UnitPackage},
		{name: "decimal kilograms in pair", description: "FENNEL", pair: "0,510 kg x 1,79 EUR/kg", wantAmount: 0.51, wantUnit: domain.UnitKilogram},
		{name: "dot decimal in pair", description: "FENNEL", pair: "2.422 kg x 0.99 EUR/kg", wantAmount: 2.422, wantUnit: domain.UnitKilogram},
		{name: "integer kilograms in pair", description: "WATERMELON", pair: "2 kg x 0,99 EUR/kg", wantAmount: 2, wantUnit: domain.UnitKilogram},
		{name: "equals resolved grams", description: "YOGURT", pair: "1 x 800g = 800g", wantAmount: 800, wantUnit: domain.UnitGram},
		{name: "bare grams", description: "YOGURT", pair: "500 g", wantAmount: 500, wantUnit: domain.UnitGram},
		{name: "italian gram abbreviation in pair", description: "MOZZARELLA", pair: "125 gr", wantAmount: 125, wantUnit: domain.UnitGram},
		{name: "italian grams in name", description: "Pasta Fresca 500 grammi", wantAmount: 500, wantUnit: domain.UnitGram},
		{name: "multiplier is a package count", description: "EGGS", pair: "3 x 1,99", wantAmount: 3, wantUnit: domain.UnitPackage},
		{name: "zero weight is ignored", description: "BEANS", pair: "0 kg", wantAmount: 1, wantUnit: domain.UnitPackage},
		{name: "pair without signal", description: "BEANS", pair: "SPECIAL OFFER", wantAmount: 1, wantUnit: domain.UnitPackage},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var pair *domain.RawLine
			if tc.pair != "" {
				pair = &domain.RawLine{Index: 1, Text: tc.pair}
			}

			got := ExtractQuantity(tc.description, pair)
			assert.InDelta(t, tc.wantAmount, got.Amount, 1e-9)
			assert.Equal(t, tc.wantUnit, got.Unit)
			assert.Greater(t, got.Amount, 0.0)
			assert.True(t, got.Unit.Valid())
		})
	}
}

func TestParseAmount(t *testing.T) {
	v, ok := parseAmount("0,510")
	assert.True(t, ok)
	assert.InDelta(t, 0.51, v, 1e-9)

	_, ok = parseAmount("0")
	assert.False(t, ok)

	_, ok = parseAmount("abc")
	assert.False(t, ok)
}
