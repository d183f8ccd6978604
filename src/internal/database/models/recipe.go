package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Recipe represents a recipe owned by a single user. Tags and
// ingredients are attached through explicit join models so relation
// updates can clear and re-insert join rows inside one transaction.
type Recipe struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Title       string          `gorm:"size:255;not null"`
	TimeMinutes int             `gorm:"not null;default:0"`
	Price       decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	Link        string          `gorm:"size:255"`
	Description string          `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`

	// Relations
	User        *User        `gorm:"constraint:OnDelete:CASCADE"`
	Tags        []Tag        `gorm:"many2many:recipe_tags;"`
	Ingredients []Ingredient `gorm:"many2many:recipe_ingredients;"`
}

// RecipeTag represents the many-to-many relationship between recipes
// and tags. Only the two key columns exist so the model stays in sync
// with the join table the relation builds.
type RecipeTag struct {
	RecipeID uuid.UUID `gorm:"type:uuid;primaryKey"`
	TagID    uuid.UUID `gorm:"type:uuid;primaryKey"`

	// Relations
	Recipe Recipe `gorm:"constraint:OnDelete:CASCADE"`
	Tag    Tag    `gorm:"constraint:OnDelete:CASCADE"`
}

// RecipeIngredient represents the many-to-many relationship between
// recipes and ingredients
type RecipeIngredient struct {
	RecipeID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	IngredientID uuid.UUID `gorm:"type:uuid;primaryKey"`

	// Relations
	Recipe     Recipe     `gorm:"constraint:OnDelete:CASCADE"`
	Ingredient Ingredient `gorm:"constraint:OnDelete:CASCADE"`
}

func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.UserID == uuid.Nil {
		return gorm.ErrInvalidData
	}
	return nil
}
