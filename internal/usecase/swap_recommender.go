package usecase

import (
	"context"
	"sort"

	"github.com/nutriscan/backend/internal/domain"
)

// candidatePoolFactor controls how many same-category products are pulled
// from the store per requested swap, since most candidates will not beat
// the source score.
const candidatePoolFactor = 10

// SwapRecommender searches cached same-category products for alternatives
// that score strictly better for the same profile.
type SwapRecommender struct {
	products        domain.ProductRepository
	rules           *RulesEngine
	personalization *PersonalizationEngine
}

func NewSwapRecommender(
	products domain.ProductRepository,
	rules *RulesEngine,
	personalization *PersonalizationEngine,
) *SwapRecommender {
	return &SwapRecommender{
		products:        products,
		rules:           rules,
		personalization: personalization,
	}
}

// FindSwaps returns up to limit same-category alternatives whose
// personalized score under the given profile strictly beats baseScore,
// ordered descending by score with ties broken by barcode ascending.
// An empty result is a normal outcome, not an error.
func (r *SwapRecommender) FindSwaps(
	ctx context.Context,
	product *domain.Product,
	baseScore float64,
	profile *domain.UserProfile,
	limit int,
) ([]domain.SwapCandidate, error) {
	if limit <= 0 || product.Category == "" {
		return []domain.SwapCandidate{}, nil
	}

	candidates, err := r.products.FindByCategory(ctx, product.Category, product.Barcode, limit*candidatePoolFactor)
	if err != nil {
		return nil, err
	}

	swaps := make([]domain.SwapCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		rulesScore, explanation, err := r.rules.Score(candidate)
		if err != nil {
			return nil, err
		}
		score, _ := r.personalization.Personalize(rulesScore, explanation, profile)
		if score <= baseScore {
			continue
		}
		swaps = append(swaps, domain.SwapCandidate{
			Barcode: candidate.Barcode,
			Name:    candidate.Name,
			Score:   score,
		})
	}

	sort.Slice(swaps, func(i, j int) bool {
		if swaps[i].Score != swaps[j].Score {
			return swaps[i].Score > swaps[j].Score
		}
		return swaps[i].Barcode < swaps[j].Barcode
	})

	if len(swaps) > limit {
		swaps = swaps[:limit]
	}
	return swaps, nil
}
