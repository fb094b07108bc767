package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Providers ProvidersConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Scoring   ScoringConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ProvidersConfig holds the nutrition data provider configuration.
// Order is the aggregator's priority list.
type ProvidersConfig struct {
	Order           []string         `mapstructure:"order"`
	Timeout         time.Duration    `mapstructure:"timeout"`
	MaxRetries      int              `mapstructure:"max_retries"`
	ResolveDeadline time.Duration    `mapstructure:"resolve_deadline"`
	OpenFoodFacts   ProviderEndpoint `mapstructure:"openfoodfacts"`
	USDA            ProviderEndpoint `mapstructure:"usda"`
}

// ProviderEndpoint holds one provider's endpoint settings
type ProviderEndpoint struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// CacheConfig holds in-memory cache settings
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// ScoringConfig holds scoring-related settings
type ScoringConfig struct {
	SwapLimit int `mapstructure:"swap_limit"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/nutriscan/")

	// Environment variable settings
	v.SetEnvPrefix("NUTRISCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Provider defaults
	v.SetDefault("providers.order", []string{"openfoodfacts", "usda"})
	v.SetDefault("providers.timeout", "5s")
	v.SetDefault("providers.max_retries", 2)
	v.SetDefault("providers.resolve_deadline", "15s")
	v.SetDefault("providers.openfoodfacts.base_url", "https://world.openfoodfacts.org")
	v.SetDefault("providers.usda.base_url", "https://api.nal.usda.gov/fdc")
	// Empty defaults register the keys so AutomaticEnv can fill them.
	v.SetDefault("providers.openfoodfacts.api_key", "")
	v.SetDefault("providers.usda.api_key", "")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "nutriscan")
	v.SetDefault("database.ssl_mode", "disable")

	// Cache defaults
	v.SetDefault("cache.ttl", "720h") // 30 days

	// Scoring defaults
	v.SetDefault("scoring.swap_limit", 5)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
}

// knownProviders are the adapter names the aggregator can instantiate
var knownProviders = map[string]bool{
	"openfoodfacts": true,
	"usda":          true,
}

// validate validates the configuration
func validate(config *Config) error {
	if len(config.Providers.Order) == 0 {
		return fmt.Errorf("at least one provider must be configured")
	}

	for _, name := range config.Providers.Order {
		if !knownProviders[name] {
			return fmt.Errorf("unknown provider %q in providers.order", name)
		}
		if name == "usda" && config.Providers.USDA.APIKey == "" {
			return fmt.Errorf("USDA API key is required when usda is in providers.order (set NUTRISCAN_PROVIDERS_USDA_API_KEY)")
		}
	}

	if config.Providers.Timeout <= 0 {
		return fmt.Errorf("providers.timeout must be positive")
	}
	if config.Providers.ResolveDeadline < config.Providers.Timeout {
		return fmt.Errorf("providers.resolve_deadline must be at least providers.timeout")
	}
	if config.Providers.MaxRetries < 0 {
		return fmt.Errorf("providers.max_retries must not be negative")
	}

	if config.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}

	return nil
}
