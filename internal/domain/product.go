package domain

// Nutriments holds the structured nutrient set for a product, per 100g.
// Every field is optional: providers report different subsets and an absent
// value is not the same as zero. Mass-based nutrients are grams, energy is
// kilocalories; adapters normalize units before a Product leaves their package.
type Nutriments struct {
	EnergyKcal    *float64 `json:"energyKcal,omitempty"`
	Carbohydrates *float64 `json:"carbohydrates,omitempty"`
	Sugars        *float64 `json:"sugars,omitempty"`
	Fiber         *float64 `json:"fiber,omitempty"`
	Protein       *float64 `json:"protein,omitempty"`
	Fat           *float64 `json:"fat,omitempty"`
	SaturatedFat  *float64 `json:"saturatedFat,omitempty"`
	Sodium        *float64 `json:"sodium,omitempty"`
	Salt          *float64 `json:"salt,omitempty"`
}

// Canonical nutrient names used as rule targets.
const (
	NutrientEnergyKcal    = "energy-kcal"
	NutrientCarbohydrates = "carbohydrates"
	NutrientSugars        = "sugars"
	NutrientFiber         = "fiber"
	NutrientProtein       = "protein"
	NutrientFat           = "fat"
	NutrientSaturatedFat  = "saturated-fat"
	NutrientSodium        = "sodium"
	NutrientSalt          = "salt"
)

// Value returns the nutrient with the given canonical name. The second return
// is false when the nutrient is unknown or was not reported by the provider.
func (n *Nutriments) Value(name string) (float64, bool) {
	var v *float64
	switch name {
	case NutrientEnergyKcal:
		v = n.EnergyKcal
	case NutrientCarbohydrates:
		v = n.Carbohydrates
	case NutrientSugars:
		v = n.Sugars
	case NutrientFiber:
		v = n.Fiber
	case NutrientProtein:
		v = n.Protein
	case NutrientFat:
		v = n.Fat
	case NutrientSaturatedFat:
		v = n.SaturatedFat
	case NutrientSodium:
		v = n.Sodium
	case NutrientSalt:
		v = n.Salt
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

// Product is the canonical nutrition record resolved for a barcode.
// Immutable once cached: a re-resolution overwrites the whole record,
// there is no partial field patch.
type Product struct {
	Barcode     string     `json:"barcode"`
	Name        string     `json:"name"`
	Brand       string     `json:"brand,omitempty"`
	Category    string     `json:"category,omitempty"`
	Ingredients string     `json:"ingredients,omitempty"`
	Nutriments  Nutriments `json:"nutriments"`
	Allergens   []string   `json:"allergens,omitempty"`
	Source      string     `json:"source"`
}

// Complete reports whether the product carries the required fields.
// Adapters returning incomplete products are treated as a miss by the
// aggregator, never surfaced to callers.
func (p *Product) Complete() bool {
	return p != nil && p.Barcode != "" && p.Name != ""
}
