package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nutriscan/backend/internal/domain"
)

// ProductRepository is the gorm-backed persisted product cache.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// GetByBarcode returns the cached product or domain.ErrCacheMiss.
func (r *ProductRepository) GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	var row itemRow
	err := r.db.WithContext(ctx).Where("barcode = ?", barcode).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCacheMiss
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return rowToProduct(&row)
}

// Upsert writes the product, overwriting the full row when the barcode
// already exists. The cache never merges partial data.
func (r *ProductRepository) Upsert(ctx context.Context, product *domain.Product) error {
	row, err := productToRow(product)
	if err != nil {
		return err
	}

	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "barcode"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "brand", "category", "ingredients", "nutrition", "allergens", "source",
		}),
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return nil
}

// FindByCategory returns up to limit products in the category, excluding
// the given barcode, ordered by barcode for deterministic candidate pools.
func (r *ProductRepository) FindByCategory(ctx context.Context, category, excludeBarcode string, limit int) ([]*domain.Product, error) {
	var rows []itemRow
	err := r.db.WithContext(ctx).
		Where("category = ? AND barcode <> ?", category, excludeBarcode).
		Order("barcode asc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return rowsToProducts(rows)
}

// Search matches the query against product name, brand, and category.
func (r *ProductRepository) Search(ctx context.Context, query string, limit int) ([]*domain.Product, int64, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	filter := "LOWER(name) LIKE ? OR LOWER(brand) LIKE ? OR LOWER(category) LIKE ?"

	var total int64
	err := r.db.WithContext(ctx).Model(&itemRow{}).
		Where(filter, pattern, pattern, pattern).
		Count(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	var rows []itemRow
	err = r.db.WithContext(ctx).
		Where(filter, pattern, pattern, pattern).
		Order("name asc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	products, err := rowsToProducts(rows)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func productToRow(product *domain.Product) (*itemRow, error) {
	nutrition, err := json.Marshal(product.Nutriments)
	if err != nil {
		return nil, fmt.Errorf("%w: encode nutrition: %v", domain.ErrPersistence, err)
	}
	allergens, err := json.Marshal(product.Allergens)
	if err != nil {
		return nil, fmt.Errorf("%w: encode allergens: %v", domain.ErrPersistence, err)
	}

	barcode := product.Barcode
	return &itemRow{
		ID:          uuid.NewString(),
		Barcode:     &barcode,
		Name:        product.Name,
		Brand:       product.Brand,
		Category:    product.Category,
		Ingredients: product.Ingredients,
		Nutrition:   nutrition,
		Allergens:   allergens,
		Source:      product.Source,
	}, nil
}

func rowToProduct(row *itemRow) (*domain.Product, error) {
	product := &domain.Product{
		Name:        row.Name,
		Brand:       row.Brand,
		Category:    row.Category,
		Ingredients: row.Ingredients,
		Source:      row.Source,
	}
	if row.Barcode != nil {
		product.Barcode = *row.Barcode
	}
	if len(row.Nutrition) > 0 {
		if err := json.Unmarshal(row.Nutrition, &product.Nutriments); err != nil {
			return nil, fmt.Errorf("%w: decode nutrition: %v", domain.ErrPersistence, err)
		}
	}
	if len(row.Allergens) > 0 {
		if err := json.Unmarshal(row.Allergens, &product.Allergens); err != nil {
			return nil, fmt.Errorf("%w: decode allergens: %v", domain.ErrPersistence, err)
		}
	}
	return product, nil
}

func rowsToProducts(rows []itemRow) ([]*domain.Product, error) {
	products := make([]*domain.Product, 0, len(rows))
	for i := range rows {
		product, err := rowToProduct(&rows[i])
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, nil
}
