package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"github.com/cookbookd/cookbookd/src/internal/cache"
	"github.com/cookbookd/cookbookd/src/internal/database/models"
)

var (
	ErrRecipeNotFound     = errors.New("recipe not found")
	ErrTagNotFound        = errors.New("tag not found")
	ErrIngredientNotFound = errors.New("ingredient not found")
	ErrDuplicateName      = errors.New("a record with this name already exists")
)

// RecipeService handles recipe business logic
type RecipeService struct {
	db    *gorm.DB
	cfg   *viper.Viper
	cache *cache.Manager
}

// NewRecipeService creates a new recipe service
func NewRecipeService(db *gorm.DB, cfg *viper.Viper, cacheManager *cache.Manager) *RecipeService {
	return &RecipeService{
		db:    db,
		cfg:   cfg,
		cache: cacheManager,
	}
}

// CreateRecipeInput represents input for creating a recipe
type CreateRecipeInput struct {
	Title       string
	TimeMinutes int
	Price       decimal.Decimal
	Link        string
	Description string
	Tags        []string
	Ingredients []string
}

// UpdateRecipeInput represents input for updating a recipe. Nil
// pointers mean the field was absent from the payload. A nil Tags or
// Ingredients slice leaves the relation set untouched; a non-nil
// (possibly empty) slice replaces it.
type UpdateRecipeInput struct {
	Title       *string
	TimeMinutes *int
	Price       *decimal.Decimal
	Link        *string
	Description *string
	Tags        []string
	Ingredients []string
}

// CreateRecipe creates a recipe and attaches the requested tag and
// ingredient names, creating records for names the user does not have
// yet.
func (s *RecipeService) CreateRecipe(userID uuid.UUID, input CreateRecipeInput) (*models.Recipe, error) {
	recipe := &models.Recipe{
		UserID:      userID,
		Title:       input.Title,
		TimeMinutes: input.TimeMinutes,
		Price:       input.Price,
		Link:        input.Link,
		Description: input.Description,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(recipe).Error; err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}
		if err := s.reconcileTags(tx, userID, recipe.ID, input.Tags); err != nil {
			return err
		}
		if err := s.reconcileIngredients(tx, userID, recipe.ID, input.Ingredients); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(recipe.ID, userID)

	return s.loadRecipe(recipe.ID)
}

// UpdateRecipe updates an existing recipe. Relation sets follow
// clear-and-replace semantics: when the tags or ingredients field is
// present at all, the prior set is cleared inside the same transaction
// before the requested names are re-attached.
func (s *RecipeService) UpdateRecipe(recipeID, userID uuid.UUID, input UpdateRecipeInput) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.First(&recipe, "id = ? AND user_id = ?", recipeID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if input.Title != nil {
			recipe.Title = *input.Title
		}
		if input.TimeMinutes != nil {
			recipe.TimeMinutes = *input.TimeMinutes
		}
		if input.Price != nil {
			recipe.Price = *input.Price
		}
		if input.Link != nil {
			recipe.Link = *input.Link
		}
		if input.Description != nil {
			recipe.Description = *input.Description
		}

		if err := tx.Save(&recipe).Error; err != nil {
			return fmt.Errorf("failed to update recipe: %w", err)
		}

		if input.Tags != nil {
			if err := tx.Delete(&models.RecipeTag{}, "recipe_id = ?", recipeID).Error; err != nil {
				return fmt.Errorf("failed to clear tags: %w", err)
			}
			if err := s.reconcileTags(tx, userID, recipeID, input.Tags); err != nil {
				return err
			}
		}

		if input.Ingredients != nil {
			if err := tx.Delete(&models.RecipeIngredient{}, "recipe_id = ?", recipeID).Error; err != nil {
				return fmt.Errorf("failed to clear ingredients: %w", err)
			}
			if err := s.reconcileIngredients(tx, userID, recipeID, input.Ingredients); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(recipeID, userID)

	return s.loadRecipe(recipeID)
}

// GetRecipe retrieves one of the caller's recipes. Recipes of other
// users report not found.
func (s *RecipeService) GetRecipe(recipeID, userID uuid.UUID) (*models.Recipe, error) {
	ctx := context.Background()
	cacheKey := cache.RecipeKey(userID.String(), recipeID.String())

	if s.cache != nil {
		var cached models.Recipe
		if err := s.cache.GetJSON(ctx, cacheKey, &cached); err == nil {
			if cached.UserID != userID {
				return nil, ErrRecipeNotFound
			}
			return &cached, nil
		}
	}

	var recipe models.Recipe
	err := s.db.Preload("Tags").Preload("Ingredients").
		First(&recipe, "id = ? AND user_id = ?", recipeID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}

	if s.cache != nil {
		s.cache.SetJSON(ctx, cacheKey, &recipe, cache.TTLMedium)
	}

	return &recipe, nil
}

// ListRecipes returns all of the caller's recipes, most recently
// created first.
func (s *RecipeService) ListRecipes(userID uuid.UUID) ([]models.Recipe, error) {
	var recipes []models.Recipe
	err := s.db.Preload("Tags").Preload("Ingredients").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&recipes).Error
	if err != nil {
		return nil, err
	}
	return recipes, nil
}

// DeleteRecipe deletes one of the caller's recipes together with its
// relation rows.
func (s *RecipeService) DeleteRecipe(recipeID, userID uuid.UUID) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Recipe{}, "id = ? AND user_id = ?", recipeID, userID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrRecipeNotFound
		}
		if err := tx.Delete(&models.RecipeTag{}, "recipe_id = ?", recipeID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.RecipeIngredient{}, "recipe_id = ?", recipeID).Error
	})
	if err != nil {
		return err
	}

	s.invalidate(recipeID, userID)
	return nil
}

// reconcileTags resolves each requested name to the caller's tag with
// that name, creating it when absent, and attaches it to the recipe.
// Duplicate names and already-attached tags are no-ops.
func (s *RecipeService) reconcileTags(tx *gorm.DB, userID, recipeID uuid.UUID, names []string) error {
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		tag, err := getOrCreateTag(tx, userID, name)
		if err != nil {
			return fmt.Errorf("failed to resolve tag %q: %w", name, err)
		}

		var count int64
		if err := tx.Model(&models.RecipeTag{}).
			Where("recipe_id = ? AND tag_id = ?", recipeID, tag.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if err := tx.Create(&models.RecipeTag{RecipeID: recipeID, TagID: tag.ID}).Error; err != nil {
			return fmt.Errorf("failed to attach tag %q: %w", name, err)
		}
	}
	return nil
}

func (s *RecipeService) reconcileIngredients(tx *gorm.DB, userID, recipeID uuid.UUID, names []string) error {
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		ingredient, err := getOrCreateIngredient(tx, userID, name)
		if err != nil {
			return fmt.Errorf("failed to resolve ingredient %q: %w", name, err)
		}

		var count int64
		if err := tx.Model(&models.RecipeIngredient{}).
			Where("recipe_id = ? AND ingredient_id = ?", recipeID, ingredient.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if err := tx.Create(&models.RecipeIngredient{RecipeID: recipeID, IngredientID: ingredient.ID}).Error; err != nil {
			return fmt.Errorf("failed to attach ingredient %q: %w", name, err)
		}
	}
	return nil
}

// getOrCreateTag looks up the (user, name) tag, creating it when
// absent. A unique-constraint violation means another request created
// the same tag concurrently, so it is retried once as a lookup.
func getOrCreateTag(tx *gorm.DB, userID uuid.UUID, name string) (*models.Tag, error) {
	var tag models.Tag
	err := tx.FirstOrCreate(&tag, models.Tag{UserID: userID, Name: name}).Error
	if err == nil {
		return &tag, nil
	}
	if isUniqueViolation(err) {
		if lookupErr := tx.Where("user_id = ? AND name = ?", userID, name).First(&tag).Error; lookupErr == nil {
			return &tag, nil
		}
	}
	return nil, err
}

func getOrCreateIngredient(tx *gorm.DB, userID uuid.UUID, name string) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	err := tx.FirstOrCreate(&ingredient, models.Ingredient{UserID: userID, Name: name}).Error
	if err == nil {
		return &ingredient, nil
	}
	if isUniqueViolation(err) {
		if lookupErr := tx.Where("user_id = ? AND name = ?", userID, name).First(&ingredient).Error; lookupErr == nil {
			return &ingredient, nil
		}
	}
	return nil, err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}

func (s *RecipeService) loadRecipe(recipeID uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.Preload("Tags").Preload("Ingredients").First(&recipe, "id = ?", recipeID).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (s *RecipeService) invalidate(recipeID, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	ctx := context.Background()
	s.cache.Delete(ctx, cache.RecipeKey(userID.String(), recipeID.String()))
	s.cache.Delete(ctx, cache.UserRecipesKey(userID.String()))
}
