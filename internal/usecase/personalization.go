package usecase

import (
	"fmt"

	"github.com/nutriscan/backend/internal/domain"
)

// goalEffects maps each recognized user goal to the rule categories it
// amplifies or dampens. The table is fixed and inspectable so that
// personalization stays deterministic and testable independent of any user.
// Multipliers above 1 amplify a category's contribution (penalty or bonus),
// below 1 dampen it. Goals stack multiplicatively when several affect the
// same category.
var goalEffects = map[string]map[string]float64{
	// Diet goals
	"low-sugar":  {"sweeteners": 2.0, "sugar": 2.0},
	"low-sodium": {"sodium": 2.0},
	"low-fat":    {"fat": 1.75, "saturated-fat": 2.0},
	"low-carb":   {"carbs": 1.75, "sugar": 1.5},
	"keto":       {"carbs": 2.0, "sugar": 2.0},
	"vegan":      {"additives": 1.25},

	// Health goals
	"heart-health":   {"saturated-fat": 2.0, "sodium": 1.75, "fiber": 1.5},
	"diabetes":       {"sugar": 2.5, "sweeteners": 2.0, "carbs": 1.5},
	"blood-pressure": {"sodium": 2.5},
	"gut-health":     {"fiber": 2.0, "additives": 1.5},

	// Body goals
	"lose-weight": {"calories": 1.75, "sugar": 1.5, "fat": 1.25},
	"gain-muscle": {"protein": 1.75, "calories": 0.75},
	"maintain":    {},

	// Lifestyle goals
	"clean-eating": {"additives": 2.0, "sweeteners": 1.5},
	"high-protein": {"protein": 1.75},
}

// PersonalizationEngine adjusts a rules score using a user's stated goals.
// Pure and stateless; the goal table is never mutated at request time.
type PersonalizationEngine struct {
	effects map[string]map[string]float64
}

func NewPersonalizationEngine() *PersonalizationEngine {
	return &PersonalizationEngine{effects: goalEffects}
}

// Personalize re-weights each explanation entry by the multipliers of the
// profile's goals, re-sums and re-normalizes through the same transform as
// the rules engine. A nil profile is the identity: the score and explanation
// come back unchanged. Unknown goals have no effect.
func (e *PersonalizationEngine) Personalize(
	rulesScore float64,
	explanation []domain.ExplanationEntry,
	profile *domain.UserProfile,
) (float64, []domain.ExplanationEntry) {
	if profile == nil {
		return rulesScore, explanation
	}

	multipliers := e.categoryMultipliers(profile)
	if len(multipliers) == 0 {
		return rulesScore, explanation
	}

	var raw float64
	adjusted := make([]domain.ExplanationEntry, len(explanation))
	for i, entry := range explanation {
		m, ok := multipliers[entry.Category]
		if !ok {
			m = 1
		}
		contribution := entry.Contribution * m
		raw += contribution

		entry.Contribution = contribution
		if m != 1 {
			entry.Rationale = fmt.Sprintf("%s; weighted x%.2g for your goals", entry.Rationale, m)
		}
		adjusted[i] = entry
	}

	return normalizeScore(raw), adjusted
}

// categoryMultipliers folds every declared goal into one multiplier per
// rule category.
func (e *PersonalizationEngine) categoryMultipliers(profile *domain.UserProfile) map[string]float64 {
	multipliers := make(map[string]float64)
	for _, goal := range profile.Goals() {
		effects, ok := e.effects[goal]
		if !ok {
			continue
		}
		for category, m := range effects {
			if existing, ok := multipliers[category]; ok {
				multipliers[category] = existing * m
			} else {
				multipliers[category] = m
			}
		}
	}
	return multipliers
}
