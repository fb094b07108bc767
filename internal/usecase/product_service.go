package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/nutriscan/backend/internal/domain"
)

// barcodeRegex accepts EAN-8 through EAN-14 style digit strings. Checksum
// validation is a provider concern, not the service's.
var barcodeRegex = regexp.MustCompile(`^\d{4,14}$`)

// ProductServiceConfig holds configuration for the product service
type ProductServiceConfig struct {
	CacheTTL  time.Duration
	SwapLimit int
}

// LookupResult is the outcome of a barcode lookup: the resolved product and
// the score record persisted for it.
type LookupResult struct {
	Product   *domain.Product
	Record    *domain.ScoreRecord
	FromCache bool
}

// ProductService orchestrates a lookup: cache, single-flight resolution
// through the provider aggregator, scoring, personalization, swaps, and
// score persistence.
type ProductService struct {
	cache           domain.ProductCache
	products        domain.ProductRepository
	scores          domain.ScoreRepository
	profiles        domain.ProfileRepository
	resolver        domain.ProductResolver
	rules           *RulesEngine
	personalization *PersonalizationEngine
	swaps           *SwapRecommender
	log             *zap.SugaredLogger

	// flight coalesces concurrent resolutions of the same uncached barcode
	// into a single aggregator call.
	flight singleflight.Group

	cacheTTL  time.Duration
	swapLimit int
}

// NewProductService creates the lookup orchestrator with its dependencies.
func NewProductService(
	cache domain.ProductCache,
	products domain.ProductRepository,
	scores domain.ScoreRepository,
	profiles domain.ProfileRepository,
	resolver domain.ProductResolver,
	rules *RulesEngine,
	personalization *PersonalizationEngine,
	log *zap.SugaredLogger,
	config ProductServiceConfig,
) *ProductService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 720 * time.Hour
	}
	swapLimit := config.SwapLimit
	if swapLimit == 0 {
		swapLimit = 5
	}

	return &ProductService{
		cache:           cache,
		products:        products,
		scores:          scores,
		profiles:        profiles,
		resolver:        resolver,
		rules:           rules,
		personalization: personalization,
		swaps:           NewSwapRecommender(products, rules, personalization),
		log:             log,
		cacheTTL:        cacheTTL,
		swapLimit:       swapLimit,
	}
}

// Lookup resolves a barcode into its canonical product and scores it for the
// given profile. A nil profile yields personalizedScore == rulesScore.
// Flow: cache -> providers (single-flight) -> cache write -> rules engine ->
// personalization -> swaps -> score store write.
func (s *ProductService) Lookup(ctx context.Context, barcode string, profile *domain.UserProfile) (*LookupResult, error) {
	if !barcodeRegex.MatchString(barcode) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidBarcode, barcode)
	}

	product, fromCache, err := s.resolveProduct(ctx, barcode)
	if err != nil {
		return nil, err
	}

	record, err := s.scoreProduct(ctx, product, profile)
	if err != nil {
		return nil, err
	}

	return &LookupResult{Product: product, Record: record, FromCache: fromCache}, nil
}

// LookupForUser loads the user's stored profile and runs the lookup with it.
// A user without a stored profile gets the context-free score.
func (s *ProductService) LookupForUser(ctx context.Context, barcode, userID string) (*LookupResult, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrProfileNotFound) {
		return nil, err
	}
	return s.Lookup(ctx, barcode, profile)
}

// resolveProduct serves the barcode from the memory cache or the persisted
// store, falling back to a single-flight provider resolution on a full miss.
func (s *ProductService) resolveProduct(ctx context.Context, barcode string) (*domain.Product, bool, error) {
	if cached, err := s.cache.Get(ctx, barcode); err == nil {
		return cached, true, nil
	}

	stored, err := s.products.GetByBarcode(ctx, barcode)
	if err == nil {
		_ = s.cache.Set(ctx, stored, s.cacheTTL)
		return stored, true, nil
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		return nil, false, err
	}

	// Full miss: go to the providers, at most once per barcode across all
	// concurrent callers. The shared call runs on a detached context so an
	// abandoned caller cannot cancel a resolution other waiters depend on.
	resolveCtx := context.WithoutCancel(ctx)
	v, err, shared := s.flight.Do(barcode, func() (interface{}, error) {
		return s.resolveUncached(resolveCtx, barcode)
	})
	if err != nil {
		return nil, false, err
	}
	if shared {
		s.log.Debugw("resolution shared with concurrent caller", "barcode", barcode)
	}
	return v.(*domain.Product), false, nil
}

// resolveUncached is the body of the single-flight call: re-check the store
// (a concurrent winner may have written it between our miss and the flight
// acquiring the key), resolve through the aggregator, persist.
func (s *ProductService) resolveUncached(ctx context.Context, barcode string) (*domain.Product, error) {
	if stored, err := s.products.GetByBarcode(ctx, barcode); err == nil {
		return stored, nil
	}

	product, err := s.resolver.Resolve(ctx, barcode)
	if err != nil {
		return nil, err
	}

	// A write failure must surface rather than degrade to a miss, otherwise
	// a retry would trigger a duplicate external call.
	if err := s.products.Upsert(ctx, product); err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, product, s.cacheTTL); err != nil {
		s.log.Warnw("memory cache write failed", "barcode", barcode, "error", err)
	}

	s.log.Infow("product resolved", "barcode", barcode, "source", product.Source)
	return product, nil
}

// scoreProduct computes both scores, finds swaps, and persists the record.
func (s *ProductService) scoreProduct(ctx context.Context, product *domain.Product, profile *domain.UserProfile) (*domain.ScoreRecord, error) {
	rulesScore, explanation, err := s.rules.Score(product)
	if err != nil {
		return nil, err
	}

	personalizedScore, personalized := s.personalization.Personalize(rulesScore, explanation, profile)

	swaps, err := s.swaps.FindSwaps(ctx, product, personalizedScore, profile, s.swapLimit)
	if err != nil {
		return nil, err
	}

	record := &domain.ScoreRecord{
		ID:                uuid.NewString(),
		Barcode:           product.Barcode,
		RulesScore:        rulesScore,
		PersonalizedScore: personalizedScore,
		Explanation:       personalized,
		Swaps:             swaps,
		Details: map[string]float64{
			"rawContribution": sumContributions(explanation),
			"adjustedRaw":     sumContributions(personalized),
		},
		CreatedAt: time.Now().UTC(),
	}
	if profile != nil {
		record.UserID = profile.UserID
	}

	if _, err := s.scores.Save(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Search queries the local product store by name, brand, or category.
func (s *ProductService) Search(ctx context.Context, query string, limit int) ([]*domain.Product, int64, error) {
	if query == "" {
		return nil, 0, fmt.Errorf("%w: empty search query", domain.ErrInvalidRequest)
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.products.Search(ctx, query, limit)
}

// SaveProfile stores or replaces a user's goal profile.
func (s *ProductService) SaveProfile(ctx context.Context, profile *domain.UserProfile) error {
	if profile == nil || profile.UserID == "" {
		return fmt.Errorf("%w: profile requires a user id", domain.ErrInvalidRequest)
	}
	return s.profiles.Upsert(ctx, profile)
}

// GetProfile returns a user's stored goal profile.
func (s *ProductService) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", domain.ErrInvalidRequest)
	}
	return s.profiles.GetByUserID(ctx, userID)
}

// LatestScore loads the most recent persisted score record for a barcode.
func (s *ProductService) LatestScore(ctx context.Context, barcode, userID string) (*domain.ScoreRecord, error) {
	if !barcodeRegex.MatchString(barcode) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidBarcode, barcode)
	}
	return s.scores.Load(ctx, barcode, userID)
}

func sumContributions(entries []domain.ExplanationEntry) float64 {
	var total float64
	for _, entry := range entries {
		total += entry.Contribution
	}
	return total
}
