package storage

import (
	"time"

	"gorm.io/datatypes"
)

// itemRow is the persisted product cache row. Barcode is unique; a
// re-resolution overwrites the whole row.
type itemRow struct {
	ID          string  `gorm:"type:uuid;primaryKey"`
	Barcode     *string `gorm:"uniqueIndex"`
	Name        string
	Brand       string
	Category    string `gorm:"index"`
	Ingredients string
	Nutrition   datatypes.JSON
	Allergens   datatypes.JSON
	Source      string
	CreatedAt   time.Time
}

func (itemRow) TableName() string { return "items" }

// ruleRow is one catalog entry; position preserves the declared
// evaluation order.
type ruleRow struct {
	ID       string `gorm:"primaryKey"`
	Position int    `gorm:"index"`
	Type     string
	Target   string
	Pattern  string
	Weight   float64
	Category string
	Notes    string
}

func (ruleRow) TableName() string { return "rules_catalog" }

// scoreRow is an append-only score record.
type scoreRow struct {
	ID                string  `gorm:"type:uuid;primaryKey"`
	UserID            *string `gorm:"index"`
	ItemID            string  `gorm:"index"`
	Barcode           string  `gorm:"index"`
	RulesScore        float64
	PersonalizedScore float64
	Explanation       datatypes.JSON
	Swaps             datatypes.JSON
	Details           datatypes.JSON
	CreatedAt         time.Time `gorm:"index"`
}

func (scoreRow) TableName() string { return "scores" }

// profileRow stores a user's goal profile.
type profileRow struct {
	UserID         string `gorm:"primaryKey"`
	BodyGoal       string
	HealthGoals    datatypes.JSON
	DietGoals      datatypes.JSON
	LifestyleGoals datatypes.JSON
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (profileRow) TableName() string { return "profiles" }
