package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nutriscan/backend/internal/domain"
)

// ProfileRepository persists user goal profiles.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Upsert stores or replaces the profile for a user.
func (r *ProfileRepository) Upsert(ctx context.Context, profile *domain.UserProfile) error {
	healthGoals, err := json.Marshal(profile.HealthGoals)
	if err != nil {
		return fmt.Errorf("%w: encode health goals: %v", domain.ErrPersistence, err)
	}
	dietGoals, err := json.Marshal(profile.DietGoals)
	if err != nil {
		return fmt.Errorf("%w: encode diet goals: %v", domain.ErrPersistence, err)
	}
	lifestyleGoals, err := json.Marshal(profile.LifestyleGoals)
	if err != nil {
		return fmt.Errorf("%w: encode lifestyle goals: %v", domain.ErrPersistence, err)
	}

	row := profileRow{
		UserID:         profile.UserID,
		BodyGoal:       profile.BodyGoal,
		HealthGoals:    healthGoals,
		DietGoals:      dietGoals,
		LifestyleGoals: lifestyleGoals,
	}

	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"body_goal", "health_goals", "diet_goals", "lifestyle_goals", "updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return nil
}

// GetByUserID returns the stored profile or domain.ErrProfileNotFound.
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*domain.UserProfile, error) {
	var row profileRow
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	profile := &domain.UserProfile{
		UserID:   row.UserID,
		BodyGoal: row.BodyGoal,
	}
	if len(row.HealthGoals) > 0 {
		if err := json.Unmarshal(row.HealthGoals, &profile.HealthGoals); err != nil {
			return nil, fmt.Errorf("%w: decode health goals: %v", domain.ErrPersistence, err)
		}
	}
	if len(row.DietGoals) > 0 {
		if err := json.Unmarshal(row.DietGoals, &profile.DietGoals); err != nil {
			return nil, fmt.Errorf("%w: decode diet goals: %v", domain.ErrPersistence, err)
		}
	}
	if len(row.LifestyleGoals) > 0 {
		if err := json.Unmarshal(row.LifestyleGoals, &profile.LifestyleGoals); err != nil {
			return nil, fmt.Errorf("%w: decode lifestyle goals: %v", domain.ErrPersistence, err)
		}
	}
	return profile, nil
}
