package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nutriscan/backend/internal/domain"
)

// stubAdapter is a scripted domain.ProviderAdapter.
type stubAdapter struct {
	name    string
	product *domain.Product
	err     error
	delay   time.Duration
	calls   int
}

func (a *stubAdapter) Name() string { return a.name }

func (a *stubAdapter) Resolve(ctx context.Context, barcode string) (*domain.Product, error) {
	a.calls++
	if a.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(a.delay):
		}
	}
	if a.err != nil {
		return nil, a.err
	}
	return a.product, nil
}

func testLogger() *zap.SugaredLogger { return zap.NewNop().Sugar() }

func TestAggregatorFirstCompleteWins(t *testing.T) {
	first := &stubAdapter{name: "a", product: &domain.Product{Barcode: "0002", Name: "From A"}}
	second := &stubAdapter{name: "b", product: &domain.Product{Barcode: "0002", Name: "From B"}}
	agg := NewAggregator([]domain.ProviderAdapter{first, second}, time.Second, testLogger())

	product, err := agg.Resolve(context.Background(), "0002")
	require.NoError(t, err)
	assert.Equal(t, "From A", product.Name)
	assert.Equal(t, "a", product.Source)
	assert.Equal(t, 0, second.calls, "second provider must not be queried after a hit")
}

func TestAggregatorFallsBackAfterTimeout(t *testing.T) {
	// Provider A times out, provider B resolves: the final product carries
	// B's identity and no error is surfaced.
	slow := &stubAdapter{name: "a", err: domain.ErrProviderTimeout}
	fallback := &stubAdapter{name: "b", product: &domain.Product{Barcode: "0002", Name: "From B"}}
	agg := NewAggregator([]domain.ProviderAdapter{slow, fallback}, time.Second, testLogger())

	product, err := agg.Resolve(context.Background(), "0002")
	require.NoError(t, err)
	assert.Equal(t, "b", product.Source)
}

func TestAggregatorIncompleteProductIsAMiss(t *testing.T) {
	partial := &stubAdapter{name: "a", product: &domain.Product{Barcode: "0002"}} // no name
	complete := &stubAdapter{name: "b", product: &domain.Product{Barcode: "0002", Name: "From B"}}
	agg := NewAggregator([]domain.ProviderAdapter{partial, complete}, time.Second, testLogger())

	product, err := agg.Resolve(context.Background(), "0002")
	require.NoError(t, err)
	assert.Equal(t, "b", product.Source)
}

func TestAggregatorAllMissIsNotFound(t *testing.T) {
	a := &stubAdapter{name: "a", err: domain.ErrProductNotFound}
	b := &stubAdapter{name: "b", err: domain.ErrProductNotFound}
	agg := NewAggregator([]domain.ProviderAdapter{a, b}, time.Second, testLogger())

	_, err := agg.Resolve(context.Background(), "0001")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestAggregatorMixedMissAndFailureIsNotFound(t *testing.T) {
	failing := &stubAdapter{name: "a", err: errors.New("boom")}
	missing := &stubAdapter{name: "b", err: domain.ErrProductNotFound}
	agg := NewAggregator([]domain.ProviderAdapter{failing, missing}, time.Second, testLogger())

	_, err := agg.Resolve(context.Background(), "0001")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestAggregatorAllFailuresSurface(t *testing.T) {
	a := &stubAdapter{name: "a", err: errors.New("boom a")}
	b := &stubAdapter{name: "b", err: errors.New("boom b")}
	agg := NewAggregator([]domain.ProviderAdapter{a, b}, time.Second, testLogger())

	_, err := agg.Resolve(context.Background(), "0002")
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
}

func TestAggregatorDeadlineIsTimeoutNotNotFound(t *testing.T) {
	slow := &stubAdapter{name: "a", delay: 200 * time.Millisecond, product: &domain.Product{Barcode: "0002", Name: "Slow"}}
	never := &stubAdapter{name: "b", product: &domain.Product{Barcode: "0002", Name: "From B"}}
	agg := NewAggregator([]domain.ProviderAdapter{slow, never}, 50*time.Millisecond, testLogger())

	_, err := agg.Resolve(context.Background(), "0002")
	assert.ErrorIs(t, err, domain.ErrResolveTimeout)
	assert.NotErrorIs(t, err, domain.ErrProductNotFound)
}
