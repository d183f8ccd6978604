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

// IngredientService handles ingredient business logic
type IngredientService struct {
	db    *gorm.DB
	cfg   *viper.Viper
	cache *cache.Manager
}

// NewIngredientService creates a new ingredient service
func NewIngredientService(db *gorm.DB, cfg *viper.Viper, cacheManager *cache.Manager) *IngredientService {
	return &IngredientService{db: db, cfg: cfg, cache: cacheManager}
}

// CreateIngredient creates an ingredient for the user, or returns the
// existing one with the same name.
func (s *IngredientService) CreateIngredient(userID uuid.UUID, name string) (*models.Ingredient, error) {
	ingredient, err := getOrCreateIngredient(s.db, userID, name)
	if err != nil {
		return nil, err
	}
	return ingredient, nil
}

// ListIngredients returns the caller's ingredients in reverse name
// order. With assignedOnly, only ingredients attached to at least one
// of the caller's recipes are returned, each exactly once.
func (s *IngredientService) ListIngredients(userID uuid.UUID, assignedOnly bool) ([]models.Ingredient, error) {
	query := s.db.Model(&models.Ingredient{}).
		Where("ingredients.user_id = ?", userID).
		Order("ingredients.name DESC")

	if assignedOnly {
		query = query.
			Joins("JOIN recipe_ingredients ON recipe_ingredients.ingredient_id = ingredients.id").
			Joins("JOIN recipes ON recipes.id = recipe_ingredients.recipe_id AND recipes.deleted_at IS NULL").
			Where("recipes.user_id = ?", userID).
			Distinct("ingredients.*")
	}

	var ingredients []models.Ingredient
	if err := query.Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

// GetIngredient retrieves one of the caller's ingredients
func (s *IngredientService) GetIngredient(ingredientID, userID uuid.UUID) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := s.db.First(&ingredient, "id = ? AND user_id = ?", ingredientID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIngredientNotFound
		}
		return nil, err
	}
	return &ingredient, nil
}

// UpdateIngredient renames one of the caller's ingredients
func (s *IngredientService) UpdateIngredient(ingredientID, userID uuid.UUID, name string) (*models.Ingredient, error) {
	ingredient, err := s.GetIngredient(ingredientID, userID)
	if err != nil {
		return nil, err
	}

	ingredient.Name = name
	if err := s.db.Save(ingredient).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, err
	}

	// The old name may still sit in cached recipe details.
	s.invalidateUser(userID)

	return ingredient, nil
}

// DeleteIngredient deletes one of the caller's ingredients and its
// recipe attachments.
func (s *IngredientService) DeleteIngredient(ingredientID, userID uuid.UUID) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Ingredient{}, "id = ? AND user_id = ?", ingredientID, userID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrIngredientNotFound
		}
		return tx.Delete(&models.RecipeIngredient{}, "ingredient_id = ?", ingredientID).Error
	})
	if err != nil {
		return err
	}

	s.invalidateUser(userID)
	return nil
}

// invalidateUser drops every cached read filed under the user, since
// an ingredient mutation can appear in any of their recipe details.
func (s *IngredientService) invalidateUser(userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	s.cache.DeletePattern(context.Background(), cache.UserScopePattern(userID.String()))
}
