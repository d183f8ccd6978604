package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ingredient represents a per-user ingredient, same shape and natural
// key as Tag.
type Ingredient struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_ingredients_user_name"`
	Name      string    `gorm:"size:255;not null;uniqueIndex:idx_ingredients_user_name"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// Relations
	User    *User    `gorm:"constraint:OnDelete:CASCADE"`
	Recipes []Recipe `gorm:"many2many:recipe_ingredients;"`
}

func (i *Ingredient) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
