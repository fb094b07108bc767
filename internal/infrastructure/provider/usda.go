package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nutriscan/backend/internal/domain"
)

// ProviderUSDA identifies the USDA FoodData Central adapter.
const ProviderUSDA = "usda"

// USDA FoodData Central nutrient IDs for the canonical nutrient set.
const (
	usdaNutrientEnergy       = 1008 // kcal
	usdaNutrientProtein      = 1003 // g
	usdaNutrientTotalFat     = 1004 // g
	usdaNutrientCarbohydrate = 1005 // g
	usdaNutrientFiber        = 1079 // g
	usdaNutrientSodium       = 1093 // mg
	usdaNutrientSaturatedFat = 1258 // g
	usdaNutrientSugars       = 2000 // g
)

// saltPerSodium converts grams of sodium to grams of salt equivalent.
const saltPerSodium = 2.5

// USDAClient resolves barcodes against the USDA FoodData Central branded
// food database.
type USDAClient struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	timeout     time.Duration
	maxRetries  int
	rateLimiter *rate.Limiter
	log         *zap.SugaredLogger
}

// NewUSDAClient creates a new USDA API client.
func NewUSDAClient(apiKey, baseURL string, timeout time.Duration, maxRetries int, log *zap.SugaredLogger) *USDAClient {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	// USDA allows 1000 requests per hour: 1000/3600 ≈ 0.278 requests/sec.
	limiter := rate.NewLimiter(rate.Limit(0.278), 10)

	return &USDAClient{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		apiKey:      apiKey,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		timeout:     timeout,
		maxRetries:  maxRetries,
		rateLimiter: limiter,
		log:         log,
	}
}

func (c *USDAClient) Name() string { return ProviderUSDA }

type usdaSearchResponse struct {
	Foods     []usdaFood `json:"foods"`
	TotalHits int        `json:"totalHits"`
}

type usdaFood struct {
	FdcID        int            `json:"fdcId"`
	Description  string         `json:"description"`
	GtinUpc      string         `json:"gtinUpc"`
	BrandOwner   string         `json:"brandOwner"`
	FoodCategory string         `json:"foodCategory"`
	Ingredients  string         `json:"ingredients"`
	Nutrients    []usdaNutrient `json:"foodNutrients"`
}

type usdaNutrient struct {
	NutrientID int     `json:"nutrientId"`
	UnitName   string  `json:"unitName"`
	Value      float64 `json:"value"`
}

// Resolve searches the branded food dataset by barcode and normalizes the
// exact GTIN/UPC match. Transient failures are retried with exponential
// backoff; client-class errors fail fast.
func (c *USDAClient) Resolve(ctx context.Context, barcode string) (*domain.Product, error) {
	endpoint := fmt.Sprintf("%s/v1/foods/search", c.baseURL)
	params := url.Values{}
	params.Add("query", barcode)
	params.Add("dataType", "Branded")
	params.Add("pageSize", "5")
	params.Add("api_key", c.apiKey)
	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

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
				c.log.Warnw("usda request timed out", "barcode", barcode, "attempt", attempt+1)
				lastErr = fmt.Errorf("%w: %v", domain.ErrProviderTimeout, err)
				continue
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
		}

		switch {
		case status == http.StatusNotFound:
			return nil, domain.ErrProductNotFound
		case status >= 400 && status < 500:
			return nil, fmt.Errorf("%w: usda status %d", domain.ErrProviderFailure, status)
		case retryableStatus(status):
			c.log.Warnw("usda transient error", "barcode", barcode, "status", status, "attempt", attempt+1)
			lastErr = fmt.Errorf("%w: usda status %d", domain.ErrProviderFailure, status)
			continue
		}

		var searchResp usdaSearchResponse
		if err := json.Unmarshal(body, &searchResp); err != nil {
			return nil, fmt.Errorf("%w: decode: %v", domain.ErrProviderFailure, err)
		}

		food := matchByGtin(searchResp.Foods, barcode)
		if food == nil {
			return nil, domain.ErrProductNotFound
		}
		return mapUSDAFood(barcode, food), nil
	}
	return nil, lastErr
}

func (c *USDAClient) get(ctx context.Context, reqURL string) ([]byte, int, error) {
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

// matchByGtin picks the food whose GTIN/UPC equals the requested barcode,
// ignoring leading zeros. Search hits without an exact match are ambiguous
// and treated as a miss.
func matchByGtin(foods []usdaFood, barcode string) *usdaFood {
	want := strings.TrimLeft(barcode, "0")
	for i := range foods {
		if strings.TrimLeft(foods[i].GtinUpc, "0") == want {
			return &foods[i]
		}
	}
	return nil
}

// mapUSDAFood normalizes a branded food into the canonical shape. Nutrient
// masses arrive in grams except sodium (milligrams); energy in kcal or kJ.
func mapUSDAFood(barcode string, food *usdaFood) *domain.Product {
	var n domain.Nutriments
	for _, nutrient := range food.Nutrients {
		value := nutrient.Value
		switch nutrient.NutrientID {
		case usdaNutrientEnergy:
			if strings.EqualFold(nutrient.UnitName, "kJ") {
				value /= 4.184
			}
			n.EnergyKcal = nonNegative(&value)
		case usdaNutrientProtein:
			n.Protein = nonNegative(&value)
		case usdaNutrientTotalFat:
			n.Fat = nonNegative(&value)
		case usdaNutrientCarbohydrate:
			n.Carbohydrates = nonNegative(&value)
		case usdaNutrientFiber:
			n.Fiber = nonNegative(&value)
		case usdaNutrientSaturatedFat:
			n.SaturatedFat = nonNegative(&value)
		case usdaNutrientSugars:
			n.Sugars = nonNegative(&value)
		case usdaNutrientSodium:
			grams := value / 1000
			n.Sodium = nonNegative(&grams)
			salt := grams * saltPerSodium
			n.Salt = nonNegative(&salt)
		}
	}

	return &domain.Product{
		Barcode:     barcode,
		Name:        strings.TrimSpace(food.Description),
		Brand:       strings.TrimSpace(food.BrandOwner),
		Category:    normalizeCategory(food.FoodCategory),
		Ingredients: strings.ToLower(strings.TrimSpace(food.Ingredients)),
		Nutriments:  n,
		Source:      ProviderUSDA,
	}
}

// normalizeCategory converts USDA category labels ("Breakfast Cereals")
// into the slug form shared with other providers.
func normalizeCategory(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	return strings.ReplaceAll(category, " ", "-")
}
