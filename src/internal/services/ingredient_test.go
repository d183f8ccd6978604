package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngredientService(t *testing.T) {
	db := setupTestDB(t)
	cfg := viper.New()

	ingredientService := NewIngredientService(db, cfg, nil)
	recipeService := NewRecipeService(db, cfg, nil)

	user := createTestUser(t, db, "ingredients@example.com")
	other := createTestUser(t, db, "ingredients-other@example.com")

	t.Run("CreateIngredientReturnsExisting", func(t *testing.T) {
		first, err := ingredientService.CreateIngredient(user.ID, "Salt")
		require.NoError(t, err)

		second, err := ingredientService.CreateIngredient(user.ID, "Salt")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("ListIngredientsReverseNameOrder", func(t *testing.T) {
		_, err := ingredientService.CreateIngredient(user.ID, "Turmeric")
		require.NoError(t, err)
		_, err = ingredientService.CreateIngredient(user.ID, "Basil")
		require.NoError(t, err)

		ingredients, err := ingredientService.ListIngredients(user.ID, false)
		require.NoError(t, err)
		require.Len(t, ingredients, 3)
		assert.Equal(t, "Turmeric", ingredients[0].Name)
		assert.Equal(t, "Salt", ingredients[1].Name)
		assert.Equal(t, "Basil", ingredients[2].Name)
	})

	t.Run("ListIngredientsScopedToUser", func(t *testing.T) {
		_, err := ingredientService.CreateIngredient(other.ID, "Saffron")
		require.NoError(t, err)

		ingredients, err := ingredientService.ListIngredients(user.ID, false)
		require.NoError(t, err)
		assert.Len(t, ingredients, 3)
	})

	t.Run("ListIngredientsAssignedOnly", func(t *testing.T) {
		_, err := recipeService.CreateRecipe(user.ID, CreateRecipeInput{
			Title: "Golden milk", TimeMinutes: 10,
			Price:       decimal.RequireFromString("2.50"),
			Ingredients: []string{"Turmeric"},
		})
		require.NoError(t, err)
		_, err = recipeService.CreateRecipe(user.ID, CreateRecipeInput{
			Title: "Turmeric rice", TimeMinutes: 25,
			Price:       decimal.RequireFromString("4.00"),
			Ingredients: []string{"Turmeric"},
		})
		require.NoError(t, err)

		ingredients, err := ingredientService.ListIngredients(user.ID, true)
		require.NoError(t, err)
		require.Len(t, ingredients, 1)
		assert.Equal(t, "Turmeric", ingredients[0].Name)
	})

	t.Run("UpdateIngredient", func(t *testing.T) {
		ingredient, err := ingredientService.CreateIngredient(user.ID, "Corriander")
		require.NoError(t, err)

		updated, err := ingredientService.UpdateIngredient(ingredient.ID, user.ID, "Coriander")
		require.NoError(t, err)
		assert.Equal(t, "Coriander", updated.Name)
	})

	t.Run("UpdateIngredientDuplicateName", func(t *testing.T) {
		ingredient, err := ingredientService.CreateIngredient(user.ID, "Rock salt")
		require.NoError(t, err)

		_, err = ingredientService.UpdateIngredient(ingredient.ID, user.ID, "Salt")
		assert.ErrorIs(t, err, ErrDuplicateName)
	})

	t.Run("DeleteIngredientOtherUserNotFound", func(t *testing.T) {
		ingredient, err := ingredientService.CreateIngredient(user.ID, "Pepper")
		require.NoError(t, err)

		err = ingredientService.DeleteIngredient(ingredient.ID, other.ID)
		assert.ErrorIs(t, err, ErrIngredientNotFound)

		_, err = ingredientService.GetIngredient(ingredient.ID, user.ID)
		assert.NoError(t, err)
	})

	t.Run("DeleteIngredientDetachesFromRecipes", func(t *testing.T) {
		recipe, err := recipeService.CreateRecipe(user.ID, CreateRecipeInput{
			Title: "Toast", TimeMinutes: 5,
			Price:       decimal.RequireFromString("1.00"),
			Ingredients: []string{"Butter"},
		})
		require.NoError(t, err)
		require.Len(t, recipe.Ingredients, 1)

		require.NoError(t, ingredientService.DeleteIngredient(recipe.Ingredients[0].ID, user.ID))

		reloaded, err := recipeService.GetRecipe(recipe.ID, user.ID)
		require.NoError(t, err)
		assert.Empty(t, reloaded.Ingredients)
	})
}
