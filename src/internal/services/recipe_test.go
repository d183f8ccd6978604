package services

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cookbookd/cookbookd/src/internal/cache"
	"github.com/cookbookd/cookbookd/src/internal/database"
	"github.com/cookbookd/cookbookd/src/internal/database/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, database.Migrate(db))

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	user := &models.User{
		Email:        email,
		PasswordHash: "not-a-real-hash",
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestRecipeService(t *testing.T) {
	db := setupTestDB(t)
	cfg := viper.New()

	recipeService := NewRecipeService(db, cfg, nil)
	require.NotNil(t, recipeService)

	user := createTestUser(t, db, "cook@example.com")
	other := createTestUser(t, db, "other@example.com")

	t.Run("CreateRecipe", func(t *testing.T) {
		recipe, err := recipeService.CreateRecipe(user.ID, CreateRecipeInput{
			Title:       "Thai prawn curry",
			TimeMinutes: 30,
			Price:       decimal.RequireFromString("12.50"),
			Link:        "https://example.com/curry",
			Description: "Spicy and quick",
		})
		require.NoError(t, err)
		assert.Equal(t, "Thai prawn curry", recipe.Title)
		assert.Equal(t, 30, recipe.TimeMinutes)
		assert.True(t, recipe.Price.Equal(decimal.RequireFromString("12.50")))
		assert.Equal(t, user.ID, recipe.UserID)
		assert.Empty(t, recipe.Tags)
		assert.Empty(t, recipe.Ingredients)
	})

	t.Run("CreateRecipeWithNewTags", func(t *testing.T) {
		recipe, err := recipeService.CreateRecipe(user.ID, CreateRecipeInput{
			Title:       "Avocado lime cheesecake",
			TimeMinutes: 60,
			Price:       decimal.RequireFromString("20.00"),
			Tags:        []string{"Vegan", "Dessert"},
		})
		require.NoError(t, err)
		require.Len(t, recipe.Tags, 2)

		var count int64
		require.NoError(t, db.Model(&models.Tag{}).Where("user_id = ?", user.ID).Count(&count).Error)
		assert.Equal(t, int64(2), count)
	})

	t.Run("CreateRecipeReusesExistingTag", func(t *testing.T) {
		first, err := recipeService.CreateRecipe(user.ID, CreateRecipeInput{
			Title: "Pongal", TimeMinutes: 60, Price: decimal.RequireFromString("4.50"),
			Tags: []string{"Breakfast"},
		})
		require.NoError(t, err)
		require.Len(t, first.Tags, 1)

		second, err := recipeService.CreateRecipe(user.ID, CreateRecipeInput{
			Title: "Idli", TimeMinutes: 40, Price: decimal.RequireFromString("3.00"),
			Tags: []string{"Breakfast"},
		})
		require.NoError(t, err)
		require.Len(t, second.Tags, 1)
		assert.Equal(t, first.Tags[0].ID, second.Tags[0].ID)

		var count int64
		require.NoError(t, db.Model(&models.Tag{}).
			Where("user_id = ? AND name = ?", user.ID, "Breakfast").
			Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("CreateRecipeWithIngredients", func(t *testing.T) {
		existing, err := getOrCreateIngredient(db, user.ID, "Lemon")
		require.NoError(t, err)

		recipe, err := recipeService.CreateRecipe(user.ID, CreateRecipeInput{
			Title: "Lemonade", TimeMinutes: 5, Price: decimal.RequireFromString("1.00"),
			Ingredients: []string{"Lemon", "Sugar"},
		})
		require.NoError(t, err)
		require.Len(t, recipe.Ingredients, 2)

		ids := []uuid.UUID{recipe.Ingredients[0].ID, recipe.Ingredients[1].ID}
		assert.Contains(t, ids, existing.ID)

		var count int64
		require.NoError(t, db.Model(&models.Ingredient{}).Where("user_id = ?", user.ID).Count(&count).Error)
		assert.Equal(t, int64(2), count)
	})

	t.Run("DuplicateNamesInPayloadAttachOnce", func(t *testing.T) {
		recipe, err := recipeService.CreateRecipe(user.ID, CreateRecipeInput{
			Title: "Soup", TimeMinutes: 20, Price: decimal.RequireFromString("5.00"),
			Tags: []string{"Dinner", "Dinner", " Dinner "},
		})
		require.NoError(t, err)
		assert.Len(t, recipe.Tags, 1)
	})

	t.Run("GetRecipe", func(t *testing.T) {
		created, err := recipeService.CreateRecipe(user.ID, CreateRecipeInput{
			Title: "Chili", TimeMinutes: 45, Price: decimal.RequireFromString("8.00"),
			Tags: []string{"Dinner"}, Ingredients: []string{"Beans"},
		})
		require.NoError(t, err)

		got, err := recipeService.GetRecipe(created.ID, user.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Len(t, got.Tags, 1)
		assert.Len(t, got.Ingredients, 1)
	})

	t.Run("GetRecipeOtherUserNotFound", func(t *testing.T) {
		created, err := recipeService.CreateRecipe(user.ID, CreateRecipeInput{
			Title: "Secret sauce", TimeMinutes: 10, Price: decimal.RequireFromString("2.00"),
		})
		require.NoError(t, err)

		_, err = recipeService.GetRecipe(created.ID, other.ID)
		assert.ErrorIs(t, err, ErrRecipeNotFound)
	})

	t.Run("ListRecipesScopedToUser", func(t *testing.T) {
		_, err := recipeService.CreateRecipe(other.ID, CreateRecipeInput{
			Title: "Other user's dish", TimeMinutes: 15, Price: decimal.RequireFromString("3.00"),
		})
		require.NoError(t, err)

		recipes, err := recipeService.ListRecipes(other.ID)
		require.NoError(t, err)
		require.Len(t, recipes, 1)
		assert.Equal(t, "Other user's dish", recipes[0].Title)

		mine, err := recipeService.ListRecipes(user.ID)
		require.NoError(t, err)
		for _, r := range mine {
			assert.Equal(t, user.ID, r.UserID)
		}
	})

	t.Run("UpdateRecipeFields", func(t *testing.T) {
		created, err := recipeService.CreateRecipe(user.ID, CreateRecipeInput{
			Title: "Pasta", TimeMinutes: 25, Price: decimal.RequireFromString("6.00"),
			Tags: []string{"Dinner"},
		})
		require.NoError(t, err)

		newTitle := "Pasta carbonara"
		newTime := 35
		updated, err := recipeService.UpdateRecipe(created.ID, user.ID, UpdateRecipeInput{
			Title:       &newTitle,
			TimeMinutes: &newTime,
		})
		require.NoError(t, err)
		assert.Equal(t, "Pasta carbonara", updated.Title)
		assert.Equal(t, 35, updated.TimeMinutes)
		// Absent relation fields leave the sets untouched.
		assert.Len(t, updated.Tags, 1)
	})

	t.Run("UpdateRecipeReplacesTagSet", func(t *testing.T) {
		created, err := recipeService.CreateRecipe(user.ID, CreateRecipeInput{
			Title: "Stew", TimeMinutes: 90, Price: decimal.RequireFromString("9.00"),
			Tags: []string{"Dinner", "Winter"},
		})
		require.NoError(t, err)
		require.Len(t, created.Tags, 2)

		updated, err := recipeService.UpdateRecipe(created.ID, user.ID, UpdateRecipeInput{
			Tags: []string{"Comfort food"},
		})
		require.NoError(t, err)
		require.Len(t, updated.Tags, 1)
		assert.Equal(t, "Comfort food", updated.Tags[0].Name)

		// The replaced tags still exist as records, just detached.
		var count int64
		require.NoError(t, db.Model(&models.Tag{}).
			Where("user_id = ? AND name = ?", user.ID, "Winter").
			Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("UpdateRecipeEmptySliceClears", func(t *testing.T) {
		created, err := recipeService.CreateRecipe(user.ID, CreateRecipeInput{
			Title: "Salad", TimeMinutes: 10, Price: decimal.RequireFromString("4.00"),
			Tags: []string{"Lunch"}, Ingredients: []string{"Lettuce"},
		})
		require.NoError(t, err)

		updated, err := recipeService.UpdateRecipe(created.ID, user.ID, UpdateRecipeInput{
			Tags:        []string{},
			Ingredients: []string{},
		})
		require.NoError(t, err)
		assert.Empty(t, updated.Tags)
		assert.Empty(t, updated.Ingredients)
	})

	t.Run("UpdateRecipeOtherUserNotFound", func(t *testing.T) {
		created, err := recipeService.CreateRecipe(user.ID, CreateRecipeInput{
			Title: "Private", TimeMinutes: 5, Price: decimal.RequireFromString("1.00"),
		})
		require.NoError(t, err)

		title := "Hijacked"
		_, err = recipeService.UpdateRecipe(created.ID, other.ID, UpdateRecipeInput{Title: &title})
		assert.ErrorIs(t, err, ErrRecipeNotFound)

		unchanged, err := recipeService.GetRecipe(created.ID, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Private", unchanged.Title)
	})

	t.Run("DeleteRecipe", func(t *testing.T) {
		created, err := recipeService.CreateRecipe(user.ID, CreateRecipeInput{
			Title: "Short lived", TimeMinutes: 5, Price: decimal.RequireFromString("1.00"),
			Tags: []string{"Fleeting"},
		})
		require.NoError(t, err)

		require.NoError(t, recipeService.DeleteRecipe(created.ID, user.ID))

		_, err = recipeService.GetRecipe(created.ID, user.ID)
		assert.ErrorIs(t, err, ErrRecipeNotFound)

		var joins int64
		require.NoError(t, db.Model(&models.RecipeTag{}).
			Where("recipe_id = ?", created.ID).Count(&joins).Error)
		assert.Equal(t, int64(0), joins)
	})

	t.Run("DeleteRecipeOtherUserNotFound", func(t *testing.T) {
		created, err := recipeService.CreateRecipe(user.ID, CreateRecipeInput{
			Title: "Keeper", TimeMinutes: 5, Price: decimal.RequireFromString("1.00"),
		})
		require.NoError(t, err)

		err = recipeService.DeleteRecipe(created.ID, other.ID)
		assert.ErrorIs(t, err, ErrRecipeNotFound)

		_, err = recipeService.GetRecipe(created.ID, user.ID)
		assert.NoError(t, err)
	})

	t.Run("CachedDetailDropsAfterTagMutation", func(t *testing.T) {
		cacheCfg := viper.New()
		cacheCfg.Set("cache.enabled", true)
		cacheCfg.Set("redis.enabled", false)
		manager := cache.NewManager(cacheCfg)

		cachedRecipes := NewRecipeService(db, cfg, manager)
		tagService := NewTagService(db, cfg, manager)
		ingredientService := NewIngredientService(db, cfg, manager)

		created, err := cachedRecipes.CreateRecipe(user.ID, CreateRecipeInput{
			Title: "Flatbread", TimeMinutes: 15, Price: decimal.RequireFromString("2.00"),
			Tags: []string{"Baked goods"}, Ingredients: []string{"Flour"},
		})
		require.NoError(t, err)

		// Warm the cache.
		warm, err := cachedRecipes.GetRecipe(created.ID, user.ID)
		require.NoError(t, err)
		require.Len(t, warm.Tags, 1)

		_, err = tagService.UpdateTag(warm.Tags[0].ID, user.ID, "Breads")
		require.NoError(t, err)

		renamed, err := cachedRecipes.GetRecipe(created.ID, user.ID)
		require.NoError(t, err)
		require.Len(t, renamed.Tags, 1)
		assert.Equal(t, "Breads", renamed.Tags[0].Name)

		require.NoError(t, ingredientService.DeleteIngredient(renamed.Ingredients[0].ID, user.ID))

		afterDelete, err := cachedRecipes.GetRecipe(created.ID, user.ID)
		require.NoError(t, err)
		assert.Empty(t, afterDelete.Ingredients)

		require.NoError(t, tagService.DeleteTag(renamed.Tags[0].ID, user.ID))

		afterTagDelete, err := cachedRecipes.GetRecipe(created.ID, user.ID)
		require.NoError(t, err)
		assert.Empty(t, afterTagDelete.Tags)
	})

	t.Run("TagsAreScopedPerUser", func(t *testing.T) {
		mine, err := recipeService.CreateRecipe(user.ID, CreateRecipeInput{
			Title: "Mine", TimeMinutes: 5, Price: decimal.RequireFromString("1.00"),
			Tags: []string{"Shared name"},
		})
		require.NoError(t, err)

		theirs, err := recipeService.CreateRecipe(other.ID, CreateRecipeInput{
			Title: "Theirs", TimeMinutes: 5, Price: decimal.RequireFromString("1.00"),
			Tags: []string{"Shared name"},
		})
		require.NoError(t, err)

		assert.NotEqual(t, mine.Tags[0].ID, theirs.Tags[0].ID)
	})
}
