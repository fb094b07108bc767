package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nutriscan/backend/internal/domain"
)

// ScoreRepository persists score records. Append-only: rows are created,
// never updated.
type ScoreRepository struct {
	db *gorm.DB
}

func NewScoreRepository(db *gorm.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// Save writes a new score record and returns its id.
func (r *ScoreRepository) Save(ctx context.Context, record *domain.ScoreRecord) (string, error) {
	id := record.ID
	if id == "" {
		id = uuid.NewString()
	}

	explanation, err := json.Marshal(record.Explanation)
	if err != nil {
		return "", fmt.Errorf("%w: encode explanation: %v", domain.ErrPersistence, err)
	}
	swaps, err := json.Marshal(record.Swaps)
	if err != nil {
		return "", fmt.Errorf("%w: encode swaps: %v", domain.ErrPersistence, err)
	}
	details, err := json.Marshal(record.Details)
	if err != nil {
		return "", fmt.Errorf("%w: encode details: %v", domain.ErrPersistence, err)
	}

	row := scoreRow{
		ID:                id,
		ItemID:            record.Barcode,
		Barcode:           record.Barcode,
		RulesScore:        record.RulesScore,
		PersonalizedScore: record.PersonalizedScore,
		Explanation:       explanation,
		Swaps:             swaps,
		Details:           details,
		CreatedAt:         record.CreatedAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if record.UserID != "" {
		userID := record.UserID
		row.UserID = &userID
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return id, nil
}

// Load returns the most recent record for the barcode. An empty userID
// selects records written for anonymous lookups.
func (r *ScoreRepository) Load(ctx context.Context, barcode, userID string) (*domain.ScoreRecord, error) {
	query := r.db.WithContext(ctx).Where("barcode = ?", barcode)
	if userID == "" {
		query = query.Where("user_id IS NULL")
	} else {
		query = query.Where("user_id = ?", userID)
	}

	var row scoreRow
	if err := query.Order("created_at desc").First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCacheMiss
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	record := &domain.ScoreRecord{
		ID:                row.ID,
		Barcode:           row.Barcode,
		RulesScore:        row.RulesScore,
		PersonalizedScore: row.PersonalizedScore,
		CreatedAt:         row.CreatedAt,
	}
	if row.UserID != nil {
		record.UserID = *row.UserID
	}
	if len(row.Explanation) > 0 {
		if err := json.Unmarshal(row.Explanation, &record.Explanation); err != nil {
			return nil, fmt.Errorf("%w: decode explanation: %v", domain.ErrPersistence, err)
		}
	}
	if len(row.Swaps) > 0 {
		if err := json.Unmarshal(row.Swaps, &record.Swaps); err != nil {
			return nil, fmt.Errorf("%w: decode swaps: %v", domain.ErrPersistence, err)
		}
	}
	if len(row.Details) > 0 {
		if err := json.Unmarshal(row.Details, &record.Details); err != nil {
			return nil, fmt.Errorf("%w: decode details: %v", domain.ErrPersistence, err)
		}
	}
	return record, nil
}
