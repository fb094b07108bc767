package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Load requires a USDA key whenever usda appears in the provider order,
// so the tests set one before exercising defaults.
func loadWithEnv(t *testing.T, env map[string]string) (*Config, error) {
	t.Helper()

	t.Setenv("NUTRISCAN_PROVIDERS_USDA_API_KEY", "test-key")
	for key, value := range env {
		t.Setenv(key, value)
	}
	return Load()
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadWithEnv(t, nil)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Environment)
	assert.Equal(t, []string{"openfoodfacts", "usda"}, cfg.Providers.Order)
	assert.Equal(t, 5*time.Second, cfg.Providers.Timeout)
	assert.Equal(t, 2, cfg.Providers.MaxRetries)
	assert.Equal(t, 15*time.Second, cfg.Providers.ResolveDeadline)
	assert.Equal(t, "https://world.openfoodfacts.org", cfg.Providers.OpenFoodFacts.BaseURL)
	assert.Equal(t, "https://api.nal.usda.gov/fdc", cfg.Providers.USDA.BaseURL)
	assert.Equal(t, "test-key", cfg.Providers.USDA.APIKey)
	assert.Equal(t, "nutriscan", cfg.Database.Name)
	assert.Equal(t, 720*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 5, cfg.Scoring.SwapLimit)
	assert.Equal(t, 100, cfg.RateLimit.PerIP)
}

func TestLoadEnvOverrides(t *testing.T) {
	cfg, err := loadWithEnv(t, map[string]string{
		"NUTRISCAN_SERVER_PORT":                "9090",
		"NUTRISCAN_PROVIDERS_TIMEOUT":          "2s",
		"NUTRISCAN_PROVIDERS_RESOLVE_DEADLINE": "30s",
		"NUTRISCAN_DATABASE_HOST":              "db.internal",
		"NUTRISCAN_DATABASE_PASSWORD":          "secret",
		"NUTRISCAN_SCORING_SWAP_LIMIT":         "3",
	})
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Providers.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Providers.ResolveDeadline)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, 3, cfg.Scoring.SwapLimit)
}

func TestLoadRejectsUSDAWithoutKey(t *testing.T) {
	t.Setenv("NUTRISCAN_PROVIDERS_USDA_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "USDA API key")
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	_, err := loadWithEnv(t, map[string]string{
		"NUTRISCAN_PROVIDERS_ORDER": "openfoodfacts,nutritionix",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestLoadRejectsDeadlineShorterThanTimeout(t *testing.T) {
	_, err := loadWithEnv(t, map[string]string{
		"NUTRISCAN_PROVIDERS_TIMEOUT":          "10s",
		"NUTRISCAN_PROVIDERS_RESOLVE_DEADLINE": "5s",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve_deadline")
}
