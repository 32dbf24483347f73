package usecase

import (
	"strings"

	"go.uber.org/zap"

	"github.com/pantrylens/backend/internal/domain"
)

// Rule names reported by the food classifier
const (
	ruleNonFood       = "non_food_keyword"
	ruleExactCatalog  = "exact_catalog"
	rulePartial       = "partial_catalog"
	ruleFoodIndicator = "food_indicator"
	ruleFallback      = "fallback"
)

// foodRule is one stage of the classifier. matched reports whether the rule
// decided; isFood is the decision.
type foodRule struct {
	name   string
	decide func(lowerName string) (isFood bool, matched bool)
}

// FoodClassifier decides whether a cleaned product name is food.
// Rules run in a fixed order and the first one that matches decides.
type FoodClassifier struct {
	rules  []foodRule
	logger *zap.Logger
}

// NewFoodClassifier builds the classifier rule chain from the catalog and lexicon
func NewFoodClassifier(catalog domain.ProductCatalog, lexicon domain.Lexicon, logger *zap.Logger) *FoodClassifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FoodClassifier{
		rules: []foodRule{
			nonFoodRule(lexicon.NonFoodKeywords),
			exactCatalogRule(catalog),
			partialCatalogRule(catalog),
			foodIndicatorRule(lexicon.FoodIndicators),
		},
		logger: logger,
	}
}

// IsFood reports whether name is a food product
func (c *FoodClassifier) IsFood(name string) bool {
	isFood, _ := c.Classify(name)
	return isFood
}

// Classify returns the decision and the name of the rule that made it
func (c *FoodClassifier) Classify(name string) (bool, string) {
	lowerName := strings.ToLower(strings.TrimSpace(name))
	for _, rule := range c.rules {
		if isFood, matched := rule.decide(lowerName); matched {
			c.logger.Debug("food classification",
				zap.String("name", name),
				zap.String("rule", rule.name),
				zap.Bool("food", isFood))
			return isFood, rule.name
		}
	}
	return false, ruleFallback
}

// nonFoodRule rejects names containing a non-food keyword, whatever the catalog says
func nonFoodRule(keywords []string) foodRule {
	return foodRule{
		name: ruleNonFood,
		decide: func(lowerName string) (bool, bool) {
			_, found := containsAny(lowerName, keywords)
			return false, found
		},
	}
}

func exactCatalogRule(catalog domain.ProductCatalog) foodRule {
	return foodRule{
		name: ruleExactCatalog,
		decide: func(lowerName string) (bool, bool) {
			_, found := catalog.Lookup(lowerName)
			return true, found
		},
	}
}

func partialCatalogRule(catalog domain.ProductCatalog) foodRule {
	return foodRule{
		name: rulePartial,
		decide: func(lowerName string) (bool, bool) {
			_, found := partialCatalogMatch(catalog, lowerName)
			return true, found
		},
	}
}

func foodIndicatorRule(words []string) foodRule {
	return foodRule{
		name: ruleFoodIndicator,
		decide: func(lowerName string) (bool, bool) {
			_, found := containsAny(lowerName, words)
			return true, found
		},
	}
}
