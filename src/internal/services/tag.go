package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"github.com/cookbookd/cookbookd/src/internal/cache"
	"github.com/cookbookd/cookbookd/src/internal/database/models"
)

// TagService handles tag business logic
type TagService struct {
	db    *gorm.DB
	cfg   *viper.Viper
	cache *cache.Manager
}

// NewTagService creates a new tag service
func NewTagService(db *gorm.DB, cfg *viper.Viper, cacheManager *cache.Manager) *TagService {
	return &TagService{db: db, cfg: cfg, cache: cacheManager}
}

// CreateTag creates a tag for the user, or returns the existing one
// with the same name.
func (s *TagService) CreateTag(userID uuid.UUID, name string) (*models.Tag, error) {
	tag, err := getOrCreateTag(s.db, userID, name)
	if err != nil {
		return nil, err
	}
	return tag, nil
}

// ListTags returns the caller's tags in reverse name order. With
// assignedOnly, only tags attached to at least one of the caller's
// recipes are returned, each exactly once.
func (s *TagService) ListTags(userID uuid.UUID, assignedOnly bool) ([]models.Tag, error) {
	query := s.db.Model(&models.Tag{}).
		Where("tags.user_id = ?", userID).
		Order("tags.name DESC")

	if assignedOnly {
		query = query.
			Joins("JOIN recipe_tags ON recipe_tags.tag_id = tags.id").
			Joins("JOIN recipes ON recipes.id = recipe_tags.recipe_id AND recipes.deleted_at IS NULL").
			Where("recipes.user_id = ?", userID).
			Distinct("tags.*")
	}

	var tags []models.Tag
	if err := query.Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// GetTag retrieves one of the caller's tags
func (s *TagService) GetTag(tagID, userID uuid.UUID) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.First(&tag, "id = ? AND user_id = ?", tagID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}
	return &tag, nil
}

// UpdateTag renames one of the caller's tags
func (s *TagService) UpdateTag(tagID, userID uuid.UUID, name string) (*models.Tag, error) {
	tag, err := s.GetTag(tagID, userID)
	if err != nil {
		return nil, err
	}

	tag.Name = name
	if err := s.db.Save(tag).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, err
	}

	// The old name may still sit in cached recipe details.
	s.invalidateUser(userID)

	return tag, nil
}

// DeleteTag deletes one of the caller's tags and its recipe
// attachments.
func (s *TagService) DeleteTag(tagID, userID uuid.UUID) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Tag{}, "id = ? AND user_id = ?", tagID, userID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrTagNotFound
		}
		return tx.Delete(&models.RecipeTag{}, "tag_id = ?", tagID).Error
	})
	if err != nil {
		return err
	}

	s.invalidateUser(userID)
	return nil
}

// invalidateUser drops every cached read filed under the user, since
// a tag mutation can appear in any of their recipe details.
func (s *TagService) invalidateUser(userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	s.cache.DeletePattern(context.Background(), cache.UserScopePattern(userID.String()))
}
