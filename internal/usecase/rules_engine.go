package usecase

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/nutriscan/backend/internal/domain"
)

// Score normalization constants. The transform is part of the catalog's
// versioned contract: score = clamp(baselineScore + raw*weightScale, 0, 100).
// Changing either constant silently changes the comparability of every
// historical score, so they are fixed here rather than configurable.
const (
	baselineScore = 50.0
	weightScale   = 0.5
	minScore      = 0.0
	maxScore      = 100.0
)

// thresholdExprRegex parses nutrient-threshold patterns like ">= 22.5"
var thresholdExprRegex = regexp.MustCompile(`^\s*(>=|<=|>|<)\s*(-?\d+(?:\.\d+)?)\s*$`)

// compiledRule is a catalog entry with its pattern parsed once at load time.
type compiledRule struct {
	def       domain.RuleDefinition
	matcher   *regexp.Regexp // ingredient-pattern
	op        string         // nutrient-threshold
	threshold float64        // nutrient-threshold
	flag      string         // additive-flag, lowercased
}

// RulesEngine evaluates the weighted rule catalog against a product.
// Pure and stateless after construction; safe for unrestricted parallel use.
type RulesEngine struct {
	rules []compiledRule
}

// NewRulesEngine compiles the catalog. An unparseable pattern or a
// non-finite weight is a data error in the catalog and fails construction
// rather than silently skipping the rule.
func NewRulesEngine(catalog []domain.RuleDefinition) (*RulesEngine, error) {
	rules := make([]compiledRule, 0, len(catalog))
	for _, def := range catalog {
		if math.IsNaN(def.Weight) || math.IsInf(def.Weight, 0) {
			return nil, fmt.Errorf("%w: rule %q has non-finite weight", domain.ErrScoreComputation, def.ID)
		}

		cr := compiledRule{def: def}
		switch def.Type {
		case domain.RuleIngredientPattern:
			re, err := regexp.Compile("(?i)" + def.Pattern)
			if err != nil {
				return nil, fmt.Errorf("%w: rule %q pattern: %v", domain.ErrScoreComputation, def.ID, err)
			}
			cr.matcher = re
		case domain.RuleNutrientThreshold:
			m := thresholdExprRegex.FindStringSubmatch(def.Pattern)
			if m == nil {
				return nil, fmt.Errorf("%w: rule %q threshold expression %q", domain.ErrScoreComputation, def.ID, def.Pattern)
			}
			value, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: rule %q threshold value: %v", domain.ErrScoreComputation, def.ID, err)
			}
			cr.op = m[1]
			cr.threshold = value
		case domain.RuleAdditiveFlag:
			cr.flag = strings.ToLower(strings.TrimSpace(def.Pattern))
			if cr.flag == "" {
				return nil, fmt.Errorf("%w: rule %q has an empty flag pattern", domain.ErrScoreComputation, def.ID)
			}
		default:
			return nil, fmt.Errorf("%w: rule %q has unknown type %q", domain.ErrScoreComputation, def.ID, def.Type)
		}
		rules = append(rules, cr)
	}
	return &RulesEngine{rules: rules}, nil
}

// Score evaluates every rule against the product in catalog order and
// returns the normalized [0,100] score with the matched-rule explanation.
// A product matching no rules scores the neutral baseline with an empty
// explanation. Overlapping rules contribute independently.
func (e *RulesEngine) Score(product *domain.Product) (float64, []domain.ExplanationEntry, error) {
	var raw float64
	explanation := make([]domain.ExplanationEntry, 0, 4)

	for _, rule := range e.rules {
		rationale, matched := rule.evaluate(product)
		if !matched {
			continue
		}
		raw += rule.def.Weight
		explanation = append(explanation, domain.ExplanationEntry{
			RuleID:       rule.def.ID,
			Category:     rule.def.Category,
			Contribution: rule.def.Weight,
			Rationale:    rationale,
		})
	}

	score := normalizeScore(raw)
	if score < minScore || score > maxScore || math.IsNaN(score) {
		return 0, nil, fmt.Errorf("%w: normalized score %f out of range", domain.ErrScoreComputation, score)
	}
	return score, explanation, nil
}

// evaluate returns the match rationale and whether the rule fired.
func (r *compiledRule) evaluate(product *domain.Product) (string, bool) {
	switch r.def.Type {
	case domain.RuleIngredientPattern:
		match := r.matcher.FindString(product.Ingredients)
		if match == "" {
			return "", false
		}
		return fmt.Sprintf("ingredients contain %q", strings.ToLower(match)), true

	case domain.RuleNutrientThreshold:
		value, ok := product.Nutriments.Value(r.def.Target)
		if !ok {
			// An unreported nutrient never matches; absence is not zero.
			return "", false
		}
		if !compareThreshold(value, r.op, r.threshold) {
			return "", false
		}
		return fmt.Sprintf("%s is %.3g per 100g (%s %.3g)", r.def.Target, value, r.op, r.threshold), true

	case domain.RuleAdditiveFlag:
		for _, tag := range product.Allergens {
			if strings.EqualFold(strings.TrimSpace(tag), r.flag) {
				return fmt.Sprintf("product is tagged %q", r.flag), true
			}
		}
		return "", false
	}
	return "", false
}

func compareThreshold(value float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return value > threshold
	case ">=":
		return value >= threshold
	case "<":
		return value < threshold
	case "<=":
		return value <= threshold
	}
	return false
}

// normalizeScore maps the raw weighted accumulator into [0,100] with a
// clamped linear transform centered on the neutral baseline.
func normalizeScore(raw float64) float64 {
	score := baselineScore + raw*weightScale
	if score < minScore {
		return minScore
	}
	if score > maxScore {
		return maxScore
	}
	return score
}
