package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nutriscan/backend/internal/domain"
)

// Aggregator queries provider adapters in a fixed priority order, stopping
// at the first adapter that returns a complete normalized product. It never
// fabricates data: when every adapter misses or errors the outcome is
// NotFound or the last provider failure.
type Aggregator struct {
	adapters []domain.ProviderAdapter
	deadline time.Duration
	log      *zap.SugaredLogger
}

// NewAggregator creates an aggregator over the given adapters, tried in
// slice order. deadline bounds the whole resolution attempt across all
// providers; exceeding it is a timeout, not a NotFound.
func NewAggregator(adapters []domain.ProviderAdapter, deadline time.Duration, log *zap.SugaredLogger) *Aggregator {
	if deadline == 0 {
		deadline = 15 * time.Second
	}
	return &Aggregator{adapters: adapters, deadline: deadline, log: log}
}

// Resolve walks the priority list. Partial or ambiguous adapter responses
// count as a miss for that adapter and the walk continues.
func (a *Aggregator) Resolve(ctx context.Context, barcode string) (*domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, a.deadline)
	defer cancel()

	var lastFailure error
	failures := 0

	for _, adapter := range a.adapters {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: after %s", domain.ErrResolveTimeout, a.deadline)
		}

		product, err := adapter.Resolve(ctx, barcode)
		switch {
		case err == nil && product.Complete():
			product.Source = adapter.Name()
			return product, nil
		case err == nil:
			// Incomplete normalization counts as a miss for this adapter.
			a.log.Debugw("provider returned incomplete product", "provider", adapter.Name(), "barcode", barcode)
		case errors.Is(err, domain.ErrProductNotFound):
			a.log.Debugw("provider miss", "provider", adapter.Name(), "barcode", barcode)
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, domain.ErrProviderTimeout):
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: after %s", domain.ErrResolveTimeout, a.deadline)
			}
			a.log.Warnw("provider timed out, trying next", "provider", adapter.Name(), "barcode", barcode)
			failures++
			lastFailure = err
		default:
			a.log.Warnw("provider failed, trying next", "provider", adapter.Name(), "barcode", barcode, "error", err)
			failures++
			lastFailure = err
		}
	}

	// Only surface a provider error when every adapter failed; a mix of
	// misses and failures is still a NotFound.
	if failures == len(a.adapters) && lastFailure != nil {
		return nil, fmt.Errorf("%w: all providers failed: %v", domain.ErrProviderFailure, lastFailure)
	}
	return nil, domain.ErrProductNotFound
}
