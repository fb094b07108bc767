package domain

import (
	"context"
	"time"
)

// ProviderAdapter resolves a barcode against one external nutrition data
// source and normalizes the response into the canonical Product shape.
// A miss is reported as ErrProductNotFound; transient upstream failures are
// retried inside the adapter and surface as ErrProviderFailure or
// ErrProviderTimeout only once the retry budget is spent.
type ProviderAdapter interface {
	Name() string
	Resolve(ctx context.Context, barcode string) (*Product, error)
}

// ProductResolver is the aggregated resolution entry point: providers are
// tried in priority order and the first complete product wins.
type ProductResolver interface {
	Resolve(ctx context.Context, barcode string) (*Product, error)
}

// ProductRepository is the persisted product cache keyed by barcode.
type ProductRepository interface {
	GetByBarcode(ctx context.Context, barcode string) (*Product, error)
	// Upsert overwrites the full row for an existing barcode; the cache
	// never merges partial data.
	Upsert(ctx context.Context, product *Product) error
	FindByCategory(ctx context.Context, category, excludeBarcode string, limit int) ([]*Product, error)
	Search(ctx context.Context, query string, limit int) ([]*Product, int64, error)
}

// ProductCache is the in-memory read-through layer in front of the
// persisted repository.
type ProductCache interface {
	Get(ctx context.Context, barcode string) (*Product, error)
	Set(ctx context.Context, product *Product, ttl time.Duration) error
	Delete(ctx context.Context, barcode string) error
}

// ScoreRepository persists score records. Append-only: records are never
// updated or deleted by this service.
type ScoreRepository interface {
	Save(ctx context.Context, record *ScoreRecord) (string, error)
	// Load returns the most recent record for the barcode. An empty userID
	// selects the context-free record written for anonymous lookups.
	Load(ctx context.Context, barcode, userID string) (*ScoreRecord, error)
}

// ProfileRepository persists user goal profiles.
type ProfileRepository interface {
	Upsert(ctx context.Context, profile *UserProfile) error
	GetByUserID(ctx context.Context, userID string) (*UserProfile, error)
}

// RuleRepository loads the versioned rule catalog at process start.
type RuleRepository interface {
	LoadCatalog(ctx context.Context) ([]RuleDefinition, error)
	// SeedDefaults installs the built-in catalog when the store is empty.
	SeedDefaults(ctx context.Context, catalog []RuleDefinition) error
}
