package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tag represents a per-user label for recipes. The (user_id, name)
// pair is the natural key: the unique index makes concurrent
// get-or-create for the same name collapse to a single row.
type Tag struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_tags_user_name"`
	Name      string    `gorm:"size:255;not null;uniqueIndex:idx_tags_user_name"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// Relations
	User    *User    `gorm:"constraint:OnDelete:CASCADE"`
	Recipes []Recipe `gorm:"many2many:recipe_tags;"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
