package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutriscan/backend/internal/domain"
)

const offFixture = `{
	"status": 1,
	"code": "3017620422003",
	"product": {
		"product_name": "Choco Spread",
		"brands": "ChocoCo, Other Brand",
		"categories_tags": ["en:breakfasts", "en:spreads", "en:chocolate-spreads"],
		"ingredients_text": "Sugar, palm oil, hazelnuts, high fructose corn syrup",
		"allergens_tags": ["en:nuts", "en:milk"],
		"nutriments": {
			"energy-kcal_100g": 539,
			"carbohydrates_100g": 57.5,
			"sugars_100g": 56.3,
			"fiber_100g": 0,
			"proteins_100g": 6.3,
			"fat_100g": 30.9,
			"saturated-fat_100g": 10.6,
			"sodium_100g": 0.0428,
			"salt_100g": 0.107,
			"some_future_field_100g": 12.3
		}
	}
}`

func newOFFClient(baseURL string, retries int) *OpenFoodFactsClient {
	return NewOpenFoodFactsClient(baseURL, 2*time.Second, retries, testLogger())
}

func TestOpenFoodFactsResolveMapsFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/product/3017620422003.json", r.URL.Path)
		fmt.Fprint(w, offFixture)
	}))
	defer server.Close()

	client := newOFFClient(server.URL, 0)
	product, err := client.Resolve(context.Background(), "3017620422003")
	require.NoError(t, err)

	assert.Equal(t, "3017620422003", product.Barcode)
	assert.Equal(t, "Choco Spread", product.Name)
	assert.Equal(t, "ChocoCo", product.Brand, "only the first listed brand is kept")
	assert.Equal(t, "chocolate-spreads", product.Category, "the most specific category tag wins")
	assert.Contains(t, product.Ingredients, "high fructose corn syrup")
	assert.Equal(t, []string{"nuts", "milk"}, product.Allergens)
	assert.Equal(t, ProviderOpenFoodFacts, product.Source)

	require.NotNil(t, product.Nutriments.EnergyKcal)
	assert.InDelta(t, 539, *product.Nutriments.EnergyKcal, 0.001)
	require.NotNil(t, product.Nutriments.Sugars)
	assert.InDelta(t, 56.3, *product.Nutriments.Sugars, 0.001)
	require.NotNil(t, product.Nutriments.Sodium)
	assert.InDelta(t, 0.0428, *product.Nutriments.Sodium, 0.0001)
	require.NotNil(t, product.Nutriments.Fiber)
	assert.Zero(t, *product.Nutriments.Fiber, "reported zero is kept, unlike an absent value")
}

func TestOpenFoodFactsResolveNotFound(t *testing.T) {
	t.Run("status zero payload", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status": 0, "status_verbose": "product not found"}`)
		}))
		defer server.Close()

		_, err := newOFFClient(server.URL, 0).Resolve(context.Background(), "0001")
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})

	t.Run("http 404", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, err := newOFFClient(server.URL, 0).Resolve(context.Background(), "0001")
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})
}

func TestOpenFoodFactsRetriesTransientFailures(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, offFixture)
	}))
	defer server.Close()

	client := newOFFClient(server.URL, 2)
	product, err := client.Resolve(context.Background(), "3017620422003")
	require.NoError(t, err)
	assert.Equal(t, 3, calls, "two transient failures then success")
	assert.Equal(t, "Choco Spread", product.Name)
}

func TestOpenFoodFactsClientErrorsFailFast(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := newOFFClient(server.URL, 3)
	_, err := client.Resolve(context.Background(), "0001")
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
	assert.Equal(t, 1, calls, "4xx responses must not be retried")
}

func TestOpenFoodFactsExhaustedRetriesSurfaceLastError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newOFFClient(server.URL, 1)
	_, err := client.Resolve(context.Background(), "0002")
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
}

func TestMapOFFProductDropsNegativeValues(t *testing.T) {
	neg := -3.0
	p := mapOFFProduct("0002", &offProduct{
		ProductName: "Odd Data",
		Nutriments:  offNutriments{Sugars: &neg},
	})
	assert.Nil(t, p.Nutriments.Sugars, "negative nutrient values violate the schema and are dropped")
}
