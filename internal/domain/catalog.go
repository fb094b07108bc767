package domain

// DefaultRuleCatalog returns the built-in scoring catalog seeded on first
// start when the rules_catalog table is empty. Threshold cutoffs follow the
// UK FSA traffic-light limits for per-100g values. Catalog order is the
// declared evaluation order.
func DefaultRuleCatalog() []RuleDefinition {
	return []RuleDefinition{
		{
			ID:       "sweetener-hfcs",
			Type:     RuleIngredientPattern,
			Target:   "ingredients",
			Pattern:  `high[\s-]?fructose corn syrup`,
			Weight:   -20,
			Category: "sweeteners",
			Notes:    "HFCS is a strong marker of ultra-processed products",
		},
		{
			ID:       "sweetener-added-sugar",
			Type:     RuleIngredientPattern,
			Target:   "ingredients",
			Pattern:  `\b(?:corn syrup|glucose syrup|invert sugar|dextrose|maltodextrin)\b`,
			Weight:   -10,
			Category: "sweeteners",
		},
		{
			ID:       "sweetener-artificial",
			Type:     RuleIngredientPattern,
			Target:   "ingredients",
			Pattern:  `\b(?:aspartame|sucralose|acesulfame|saccharin)\b`,
			Weight:   -8,
			Category: "sweeteners",
		},
		{
			ID:       "additive-artificial-color",
			Type:     RuleIngredientPattern,
			Target:   "ingredients",
			Pattern:  `\b(?:red 40|yellow 5|yellow 6|blue 1|tartrazine|e1[0-8]\d)\b`,
			Weight:   -8,
			Category: "additives",
		},
		{
			ID:       "additive-preservative",
			Type:     RuleIngredientPattern,
			Target:   "ingredients",
			Pattern:  `\b(?:sodium benzoate|potassium sorbate|bha|bht|sodium nitrite)\b`,
			Weight:   -6,
			Category: "additives",
		},
		{
			ID:       "fat-hydrogenated",
			Type:     RuleIngredientPattern,
			Target:   "ingredients",
			Pattern:  `(?:partially )?hydrogenated .*oil`,
			Weight:   -18,
			Category: "fat",
			Notes:    "trans fat source",
		},
		{
			ID:       "sugar-high",
			Type:     RuleNutrientThreshold,
			Target:   NutrientSugars,
			Pattern:  "> 22.5",
			Weight:   -15,
			Category: "sugar",
			Notes:    "FSA high-sugar cutoff per 100g",
		},
		{
			ID:       "sugar-moderate",
			Type:     RuleNutrientThreshold,
			Target:   NutrientSugars,
			Pattern:  "> 5",
			Weight:   -5,
			Category: "sugar",
		},
		{
			ID:       "satfat-high",
			Type:     RuleNutrientThreshold,
			Target:   NutrientSaturatedFat,
			Pattern:  "> 5",
			Weight:   -12,
			Category: "saturated-fat",
		},
		{
			ID:       "fat-high",
			Type:     RuleNutrientThreshold,
			Target:   NutrientFat,
			Pattern:  "> 17.5",
			Weight:   -8,
			Category: "fat",
		},
		{
			ID:       "sodium-high",
			Type:     RuleNutrientThreshold,
			Target:   NutrientSodium,
			Pattern:  "> 0.6",
			Weight:   -12,
			Category: "sodium",
			Notes:    "0.6g sodium = 1.5g salt, FSA high-salt cutoff",
		},
		{
			ID:       "sodium-moderate",
			Type:     RuleNutrientThreshold,
			Target:   NutrientSodium,
			Pattern:  "> 0.12",
			Weight:   -4,
			Category: "sodium",
		},
		{
			ID:       "energy-dense",
			Type:     RuleNutrientThreshold,
			Target:   NutrientEnergyKcal,
			Pattern:  "> 400",
			Weight:   -6,
			Category: "calories",
		},
		{
			ID:       "fiber-good",
			Type:     RuleNutrientThreshold,
			Target:   NutrientFiber,
			Pattern:  ">= 6",
			Weight:   10,
			Category: "fiber",
		},
		{
			ID:       "protein-good",
			Type:     RuleNutrientThreshold,
			Target:   NutrientProtein,
			Pattern:  ">= 10",
			Weight:   8,
			Category: "protein",
		},
		{
			ID:       "whole-grain",
			Type:     RuleIngredientPattern,
			Target:   "ingredients",
			Pattern:  `\bwhole[\s-]?(?:grain|wheat|oat)`,
			Weight:   8,
			Category: "fiber",
		},
		{
			ID:       "allergen-palm-oil",
			Type:     RuleAdditiveFlag,
			Target:   "allergens",
			Pattern:  "palm-oil",
			Weight:   -4,
			Category: "additives",
		},
	}
}
