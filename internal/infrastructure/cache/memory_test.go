package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nutriscan/backend/internal/domain"
)

func testProduct(barcode string) *domain.Product {
	return &domain.Product{
		Barcode: barcode,
		Name:    "Test Product " + barcode,
		Source:  "openfoodfacts",
	}
}

func TestMemoryCacheSetAndGet(t *testing.T) {
	c := NewProductMemoryCache()
	ctx := context.Background()

	product := testProduct("1234567890123")
	if err := c.Set(ctx, product, time.Minute); err != nil {
		t.Fatalf("unexpected error on set: %v", err)
	}

	got, err := c.Get(ctx, "1234567890123")
	if err != nil {
		t.Fatalf("unexpected error on get: %v", err)
	}
	if got.Name != product.Name {
		t.Errorf("expected %q, got %q", product.Name, got.Name)
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	c := NewProductMemoryCache()

	_, err := c.Get(context.Background(), "0000000000000")
	if !errors.Is(err, domain.ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
}

func TestMemoryCacheExpiration(t *testing.T) {
	c := NewProductMemoryCache()
	ctx := context.Background()

	if err := c.Set(ctx, testProduct("1234567890123"), 10*time.Millisecond); err != nil {
		t.Fatalf("unexpected error on set: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	_, err := c.Get(ctx, "1234567890123")
	if !errors.Is(err, domain.ErrCacheMiss) {
		t.Fatalf("expected expired entry to miss, got %v", err)
	}
}

func TestMemoryCacheOverwrite(t *testing.T) {
	c := NewProductMemoryCache()
	ctx := context.Background()

	first := testProduct("1234567890123")
	second := testProduct("1234567890123")
	second.Name = "Re-resolved Product"

	_ = c.Set(ctx, first, time.Minute)
	_ = c.Set(ctx, second, time.Minute)

	got, err := c.Get(ctx, "1234567890123")
	if err != nil {
		t.Fatalf("unexpected error on get: %v", err)
	}
	if got.Name != "Re-resolved Product" {
		t.Errorf("expected overwrite to win, got %q", got.Name)
	}
	if c.Size() != 1 {
		t.Errorf("expected a single entry, got %d", c.Size())
	}
}

func TestMemoryCacheDelete(t *testing.T) {
	c := NewProductMemoryCache()
	ctx := context.Background()

	_ = c.Set(ctx, testProduct("1234567890123"), time.Minute)
	if err := c.Delete(ctx, "1234567890123"); err != nil {
		t.Fatalf("unexpected error on delete: %v", err)
	}

	if _, err := c.Get(ctx, "1234567890123"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Fatalf("expected miss after delete, got %v", err)
	}
}

func TestMemoryCacheClear(t *testing.T) {
	c := NewProductMemoryCache()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = c.Set(ctx, testProduct(fmt.Sprintf("400000000000%d", i)), time.Minute)
	}
	if c.Size() != 5 {
		t.Fatalf("expected 5 entries, got %d", c.Size())
	}

	c.Clear()
	if c.Size() != 0 {
		t.Errorf("expected empty cache after clear, got %d", c.Size())
	}
}

func TestMemoryCacheConcurrentAccess(t *testing.T) {
	c := NewProductMemoryCache()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			barcode := fmt.Sprintf("40000000000%02d", i%10)
			_ = c.Set(ctx, testProduct(barcode), time.Minute)
			_, _ = c.Get(ctx, barcode)
		}(i)
	}
	wg.Wait()

	if c.Size() != 10 {
		t.Errorf("expected 10 distinct entries, got %d", c.Size())
	}
}
