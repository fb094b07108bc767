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

const usdaFixture = `{
	"totalHits": 2,
	"foods": [
		{
			"fdcId": 1111111,
			"description": "SOME OTHER SNACK",
			"gtinUpc": "099900000000",
			"brandOwner": "Wrong Brand",
			"foodCategory": "Snacks",
			"ingredients": "CORN, SALT",
			"foodNutrients": []
		},
		{
			"fdcId": 2222222,
			"description": "CRUNCHY GRANOLA BAR",
			"gtinUpc": "0012345678905",
			"brandOwner": "Granola Co",
			"foodCategory": "Breakfast Cereals",
			"ingredients": "WHOLE GRAIN OATS, SUGAR, PALM OIL",
			"foodNutrients": [
				{"nutrientId": 1008, "unitName": "KCAL", "value": 471},
				{"nutrientId": 1003, "unitName": "G", "value": 7.1},
				{"nutrientId": 1004, "unitName": "G", "value": 17.6},
				{"nutrientId": 1005, "unitName": "G", "value": 70.6},
				{"nutrientId": 2000, "unitName": "G", "value": 29.4},
				{"nutrientId": 1079, "unitName": "G", "value": 5.9},
				{"nutrientId": 1258, "unitName": "G", "value": 5.9},
				{"nutrientId": 1093, "unitName": "MG", "value": 382}
			]
		}
	]
}`

func newUSDATestClient(baseURL string, retries int) *USDAClient {
	return NewUSDAClient("test-key", baseURL, 2*time.Second, retries, testLogger())
}

func TestUSDAResolveMatchesGtinAndNormalizesUnits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/foods/search", r.URL.Path)
		assert.Equal(t, "12345678905", r.URL.Query().Get("query"))
		assert.Equal(t, "Branded", r.URL.Query().Get("dataType"))
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		fmt.Fprint(w, usdaFixture)
	}))
	defer server.Close()

	client := newUSDATestClient(server.URL, 0)
	product, err := client.Resolve(context.Background(), "12345678905")
	require.NoError(t, err)

	assert.Equal(t, "12345678905", product.Barcode)
	assert.Equal(t, "CRUNCHY GRANOLA BAR", product.Name)
	assert.Equal(t, "Granola Co", product.Brand)
	assert.Equal(t, "breakfast-cereals", product.Category)
	assert.Equal(t, "whole grain oats, sugar, palm oil", product.Ingredients)
	assert.Equal(t, ProviderUSDA, product.Source)

	require.NotNil(t, product.Nutriments.Sodium)
	assert.InDelta(t, 0.382, *product.Nutriments.Sodium, 0.0001, "sodium milligrams convert to grams")
	require.NotNil(t, product.Nutriments.Salt)
	assert.InDelta(t, 0.955, *product.Nutriments.Salt, 0.0001, "salt derived from sodium")
	require.NotNil(t, product.Nutriments.EnergyKcal)
	assert.InDelta(t, 471, *product.Nutriments.EnergyKcal, 0.001)
	require.NotNil(t, product.Nutriments.Sugars)
	assert.InDelta(t, 29.4, *product.Nutriments.Sugars, 0.001)
}

func TestUSDAResolveEnergyKilojouleConversion(t *testing.T) {
	payload := `{"foods": [{
		"fdcId": 1,
		"description": "KJ PRODUCT",
		"gtinUpc": "4000000000001",
		"foodNutrients": [{"nutrientId": 1008, "unitName": "kJ", "value": 2092}]
	}]}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, payload)
	}))
	defer server.Close()

	product, err := newUSDATestClient(server.URL, 0).Resolve(context.Background(), "4000000000001")
	require.NoError(t, err)
	require.NotNil(t, product.Nutriments.EnergyKcal)
	assert.InDelta(t, 500, *product.Nutriments.EnergyKcal, 0.1)
}

func TestUSDAResolveNoGtinMatchIsAMiss(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, usdaFixture)
	}))
	defer server.Close()

	// The search returns hits, but none with this exact GTIN: ambiguous
	// results are a miss, never a fabricated product.
	_, err := newUSDATestClient(server.URL, 0).Resolve(context.Background(), "77777777")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestUSDAResolveLeadingZerosIgnoredInGtinMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, usdaFixture)
	}))
	defer server.Close()

	product, err := newUSDATestClient(server.URL, 0).Resolve(context.Background(), "0012345678905")
	require.NoError(t, err)
	assert.Equal(t, "CRUNCHY GRANOLA BAR", product.Name)
}

func TestUSDAResolveRetriesThenFailsFast(t *testing.T) {
	t.Run("5xx retried", func(t *testing.T) {
		var calls int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			fmt.Fprint(w, usdaFixture)
		}))
		defer server.Close()

		_, err := newUSDATestClient(server.URL, 2).Resolve(context.Background(), "12345678905")
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("4xx not retried", func(t *testing.T) {
		var calls int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		_, err := newUSDATestClient(server.URL, 3).Resolve(context.Background(), "12345678905")
		assert.ErrorIs(t, err, domain.ErrProviderFailure)
		assert.Equal(t, 1, calls)
	})
}
