package domain

import "time"

// RuleType discriminates how a rule's pattern is evaluated against a product.
type RuleType string

const (
	// RuleIngredientPattern matches a regular expression against the
	// free-text ingredients list.
	RuleIngredientPattern RuleType = "ingredient-pattern"

	// RuleNutrientThreshold compares a named nutrient against a threshold
	// expression such as ">= 22.5".
	RuleNutrientThreshold RuleType = "nutrient-threshold"

	// RuleAdditiveFlag matches against the product's allergen/additive tags.
	RuleAdditiveFlag RuleType = "additive-flag"
)

// RuleDefinition is one entry of the scoring catalog. Rules are read-only
// inputs to scoring and are loaded once at process start.
type RuleDefinition struct {
	ID       string   `json:"id"`
	Type     RuleType `json:"type"`
	Target   string   `json:"target"`
	Pattern  string   `json:"pattern"`
	Weight   float64  `json:"weight"`
	Category string   `json:"category"`
	Notes    string   `json:"notes,omitempty"`
}

// ExplanationEntry records one matched rule and its contribution to a score.
type ExplanationEntry struct {
	RuleID       string  `json:"rule"`
	Category     string  `json:"category"`
	Contribution float64 `json:"contribution"`
	Rationale    string  `json:"rationale"`
}

// SwapCandidate is a same-category alternative with a strictly better
// personalized score.
type SwapCandidate struct {
	Barcode string  `json:"barcode"`
	Name    string  `json:"name"`
	Score   float64 `json:"score"`
}

// ScoreRecord is the persisted outcome of scoring one product for one
// (possibly anonymous) user. Records are immutable once written: a changed
// profile or catalog produces a new record, never an edit.
type ScoreRecord struct {
	ID                string             `json:"id"`
	UserID            string             `json:"userId,omitempty"`
	Barcode           string             `json:"barcode"`
	RulesScore        float64            `json:"rulesScore"`
	PersonalizedScore float64            `json:"personalizedScore"`
	Explanation       []ExplanationEntry `json:"explanation"`
	Swaps             []SwapCandidate    `json:"swaps,omitempty"`
	Details           map[string]float64 `json:"details,omitempty"`
	CreatedAt         time.Time          `json:"createdAt"`
}

// UserProfile holds a user's stated goals. Read-only input to the
// personalization engine.
type UserProfile struct {
	UserID         string   `json:"userId,omitempty"`
	BodyGoal       string   `json:"bodyGoal,omitempty"`
	HealthGoals    []string `json:"healthGoals,omitempty"`
	DietGoals      []string `json:"dietGoals,omitempty"`
	LifestyleGoals []string `json:"lifestyleGoals,omitempty"`
}

// Goals returns every declared goal as a flat list, body goal first.
func (p *UserProfile) Goals() []string {
	if p == nil {
		return nil
	}
	goals := make([]string, 0, 1+len(p.HealthGoals)+len(p.DietGoals)+len(p.LifestyleGoals))
	if p.BodyGoal != "" {
		goals = append(goals, p.BodyGoal)
	}
	goals = append(goals, p.HealthGoals...)
	goals = append(goals, p.DietGoals...)
	goals = append(goals, p.LifestyleGoals...)
	return goals
}
