package usecase

import (
	"testing"
)

func TestNormalizeName(t *testing.T) {
	testCases := []struct {
		name string
		line string
		want string
	}{
		{name: "plain description", line: "FENNEL", want: "FENNEL"},
		{name: "removes trailing weight", line: "Potatoes 4Kg", want: "Potatoes"},
		{name: "removes gram weight", line: "Carote Igp 800G", want: "Carote Igp"},
		{name: "removes integer weight", line: "Chicken 1kg", want: "Chicken"},
		{name: "decimal weight loses its number as a price first", line: "Chicken 1,5 kg", want: "Chicken kg"},
		{name: "removes piece marker", line: "Mango Pz", want: "Mango"},
		{name: "removes english piece marker", line: "Eggs 6 pcs", want: "Eggs 6"},
		{name: "removes price with euro sign", line: "Yogurt 1,29€", want: "Yogurt"},
		{name: "removes percentage", line: "MOZZARELLA 22% 125G", want: "MOZZARELLA"},
		{name: "removes per kg annotation", line: "Grapes EUR/kg", want: "Grapes"},
		{name: "removes currency code", line: "Bread 2 EUR", want: "Bread 2"},
		{name: "punctuation becomes space", line: "Pane*Integrale", want: "Pane Integrale"},
		{name: "keeps periods", line: "  Latte   U.H.T.  ", want: "Latte U.H.T."},
		{name: "keeps accented letters", line: "CAFFÈ MACINATO", want: "CAFFÈ MACINATO"},
		{name: "token exposed by a removal is stripped too", line: "1€.5 apples", want: "apples"},
		{name: "empty", line: "", want: ""},
		{name: "only noise", line: "€ 3,50 -- %", want: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeName(tc.line); got != tc.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tc.line, got, tc.want)
			}
		})
	}
}

func TestNormalizeNameIdempotent(t *testing.T) {
	lines := []string{
		"FENNEL",
		"0,510 kg x 1,79 EUR/kg",
		"1 x 800g = 800g",
		"Potatoes 4Kg",
		"1€.5 apples",
		"2.€5kg rice",
		"12,5,5 pz pz",
		"$1.$2.3 flour",
		"MOZZ. BUFALA 125G 1,99€ -20%",
		"***SALMON***  FILLET\t300 g",
		"kgkg 5kgkg",
		"1,2,3,4,5",
		"pzpz 1pz p z",
		"€€EUREUR£$",
		"ÜBER-Käse 0,250kg",
	}

	for _, line := range lines {
		once := NormalizeName(line)
		twice := NormalizeName(once)
		if once != twice {
			t.Errorf("NormalizeName not idempotent for %q: %q then %q", line, once, twice)
		}
	}
}
