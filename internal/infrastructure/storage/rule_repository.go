package storage

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/nutriscan/backend/internal/domain"
)

// RuleRepository loads the versioned rule catalog from the rules_catalog
// table. The catalog is read once at process start and never mutated by
// the scoring path.
type RuleRepository struct {
	db *gorm.DB
}

func NewRuleRepository(db *gorm.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

// LoadCatalog returns every rule in declared evaluation order.
func (r *RuleRepository) LoadCatalog(ctx context.Context) ([]domain.RuleDefinition, error) {
	var rows []ruleRow
	if err := r.db.WithContext(ctx).Order("position asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	catalog := make([]domain.RuleDefinition, 0, len(rows))
	for _, row := range rows {
		catalog = append(catalog, domain.RuleDefinition{
			ID:       row.ID,
			Type:     domain.RuleType(row.Type),
			Target:   row.Target,
			Pattern:  row.Pattern,
			Weight:   row.Weight,
			Category: row.Category,
			Notes:    row.Notes,
		})
	}
	return catalog, nil
}

// SeedDefaults installs the given catalog when the table is empty. An
// already-populated table is left untouched: the catalog is externally
// managed once deployed.
func (r *RuleRepository) SeedDefaults(ctx context.Context, catalog []domain.RuleDefinition) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&ruleRow{}).Count(&count).Error; err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if count > 0 {
		return nil
	}

	rows := make([]ruleRow, 0, len(catalog))
	for i, def := range catalog {
		rows = append(rows, ruleRow{
			ID:       def.ID,
			Position: i,
			Type:     string(def.Type),
			Target:   def.Target,
			Pattern:  def.Pattern,
			Weight:   def.Weight,
			Category: def.Category,
			Notes:    def.Notes,
		})
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
		}
		return nil
	})
}
