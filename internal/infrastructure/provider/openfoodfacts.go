package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nutriscan/backend/internal/domain"
)

// ProviderOpenFoodFacts identifies the Open Food Facts adapter.
const ProviderOpenFoodFacts = "openfoodfacts"

// OpenFoodFactsClient resolves barcodes against the Open Food Facts
// public product API.
type OpenFoodFactsClient struct {
	httpClient  *http.Client
	baseURL     string
	timeout     time.Duration
	maxRetries  int
	rateLimiter *rate.Limiter
	log         *zap.SugaredLogger
}

// NewOpenFoodFactsClient creates a new Open Food Facts adapter.
func NewOpenFoodFactsClient(baseURL string, timeout time.Duration, maxRetries int, log *zap.SugaredLogger) *OpenFoodFactsClient {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	// OFF asks API consumers to stay under 100 req/min for product reads.
	limiter := rate.NewLimiter(rate.Limit(100.0/60.0), 10)

	return &OpenFoodFactsClient{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		timeout:     timeout,
		maxRetries:  maxRetries,
		rateLimiter: limiter,
		log:         log,
	}
}

func (c *OpenFoodFactsClient) Name() string { return ProviderOpenFoodFacts }

// offResponse is the subset of the OFF v2 product payload this adapter
// consumes. Unknown provider fields are dropped here, at the boundary.
type offResponse struct {
	Status  int        `json:"status"`
	Product offProduct `json:"product"`
}

type offProduct struct {
	ProductName     string        `json:"product_name"`
	Brands          string        `json:"brands"`
	CategoriesTags  []string      `json:"categories_tags"`
	IngredientsText string        `json:"ingredients_text"`
	AllergensTags   []string      `json:"allergens_tags"`
	Nutriments      offNutriments `json:"nutriments"`
}

// offNutriments are already per-100g; masses in grams, energy in kcal.
type offNutriments struct {
	EnergyKcal    *float64 `json:"energy-kcal_100g"`
	Carbohydrates *float64 `json:"carbohydrates_100g"`
	Sugars        *float64 `json:"sugars_100g"`
	Fiber         *float64 `json:"fiber_100g"`
	Protein       *float64 `json:"proteins_100g"`
	Fat           *float64 `json:"fat_100g"`
	SaturatedFat  *float64 `json:"saturated-fat_100g"`
	Sodium        *float64 `json:"sodium_100g"`
	Salt          *float64 `json:"salt_100g"`
}

// Resolve fetches and normalizes the product for a barcode. Transient
// failures are retried with exponential backoff; 4xx responses fail fast.
func (c *OpenFoodFactsClient) Resolve(ctx context.Context, barcode string) (*domain.Product, error) {
	reqURL := fmt.Sprintf("%s/api/v2/product/%s.json", c.baseURL, barcode)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepWithContext(ctx, backoffDelay(attempt-1)); err != nil {
				return nil, err
			}
		}
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		body, status, err := c.get(ctx, reqURL)
		if err != nil {
			if transientError(err) {
				c.log.Warnw("openfoodfacts request timed out", "barcode", barcode, "attempt", attempt+1)
				lastErr = fmt.Errorf("%w: %v", domain.ErrProviderTimeout, err)
				continue
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
		}

		switch {
		case status == http.StatusNotFound:
			return nil, domain.ErrProductNotFound
		case status >= 400 && status < 500:
			return nil, fmt.Errorf("%w: openfoodfacts status %d", domain.ErrProviderFailure, status)
		case retryableStatus(status):
			c.log.Warnw("openfoodfacts transient error", "barcode", barcode, "status", status, "attempt", attempt+1)
			lastErr = fmt.Errorf("%w: openfoodfacts status %d", domain.ErrProviderFailure, status)
			continue
		}

		var resp offResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("%w: decode: %v", domain.ErrProviderFailure, err)
		}
		if resp.Status != 1 {
			return nil, domain.ErrProductNotFound
		}
		return mapOFFProduct(barcode, &resp.Product), nil
	}
	return nil, lastErr
}

func (c *OpenFoodFactsClient) get(ctx context.Context, reqURL string) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", "NutriScan/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

// mapOFFProduct normalizes an OFF payload into the canonical product shape.
func mapOFFProduct(barcode string, p *offProduct) *domain.Product {
	category := ""
	if len(p.CategoriesTags) > 0 {
		// Tags look like "en:breakfast-cereals"; keep the slug.
		category = strings.TrimPrefix(p.CategoriesTags[len(p.CategoriesTags)-1], "en:")
	}

	allergens := make([]string, 0, len(p.AllergensTags))
	for _, tag := range p.AllergensTags {
		allergens = append(allergens, strings.TrimPrefix(tag, "en:"))
	}

	brand := p.Brands
	if idx := strings.Index(brand, ","); idx > 0 {
		brand = strings.TrimSpace(brand[:idx])
	}

	return &domain.Product{
		Barcode:     barcode,
		Name:        strings.TrimSpace(p.ProductName),
		Brand:       brand,
		Category:    category,
		Ingredients: strings.TrimSpace(p.IngredientsText),
		Allergens:   allergens,
		Nutriments: domain.Nutriments{
			EnergyKcal:    nonNegative(p.Nutriments.EnergyKcal),
			Carbohydrates: nonNegative(p.Nutriments.Carbohydrates),
			Sugars:        nonNegative(p.Nutriments.Sugars),
			Fiber:         nonNegative(p.Nutriments.Fiber),
			Protein:       nonNegative(p.Nutriments.Protein),
			Fat:           nonNegative(p.Nutriments.Fat),
			SaturatedFat:  nonNegative(p.Nutriments.SaturatedFat),
			Sodium:        nonNegative(p.Nutriments.Sodium),
			Salt:          nonNegative(p.Nutriments.Salt),
		},
		Source: ProviderOpenFoodFacts,
	}
}

// nonNegative drops negative nutrient values, which violate the canonical
// schema and show up occasionally in crowd-sourced data.
func nonNegative(v *float64) *float64 {
	if v == nil || *v < 0 {
		return nil
	}
	return v
}
