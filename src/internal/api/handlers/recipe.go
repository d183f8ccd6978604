package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	apperrors "github.com/cookbookd/cookbookd/src/internal/errors"
	"github.com/cookbookd/cookbookd/src/internal/database/models"
	"github.com/cookbookd/cookbookd/src/internal/services"
)

// RecipeHandler handles recipe endpoints
type RecipeHandler struct {
	recipes *services.RecipeService
}

// NewRecipeHandler creates a new recipe handler
func NewRecipeHandler(recipes *services.RecipeService) *RecipeHandler {
	return &RecipeHandler{recipes: recipes}
}

// NameRef references a tag or ingredient by name in a recipe payload
type NameRef struct {
	Name string `json:"name" validate:"required,max=255"`
}

// CreateRecipeRequest represents a recipe creation or full-update
// request
type CreateRecipeRequest struct {
	Title       string           `json:"title" validate:"required,max=255"`
	TimeMinutes *int             `json:"time_minutes" validate:"required,gte=0"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	Link        string           `json:"link" validate:"omitempty,max=255"`
	Description string           `json:"description"`
	Tags        []NameRef        `json:"tags" validate:"omitempty,dive"`
	Ingredients []NameRef        `json:"ingredients" validate:"omitempty,dive"`
}

// UpdateRecipeRequest represents a partial update. Nil fields were
// absent from the payload; a present tags/ingredients array (even
// empty) replaces the relation set.
type UpdateRecipeRequest struct {
	Title       *string          `json:"title" validate:"omitempty,max=255"`
	TimeMinutes *int             `json:"time_minutes" validate:"omitempty,gte=0"`
	Price       *decimal.Decimal `json:"price"`
	Link        *string          `json:"link" validate:"omitempty,max=255"`
	Description *string          `json:"description"`
	Tags        []NameRef        `json:"tags" validate:"omitempty,dive"`
	Ingredients []NameRef        `json:"ingredients" validate:"omitempty,dive"`
}

// RecipeResponse is the list projection of a recipe
type RecipeResponse struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	TimeMinutes int             `json:"time_minutes"`
	Price       decimal.Decimal `json:"price"`
	Link        string          `json:"link"`
	Tags        []NameResponse  `json:"tags"`
	Ingredients []NameResponse  `json:"ingredients"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// RecipeDetailResponse adds the fields only the detail endpoints
// return
type RecipeDetailResponse struct {
	RecipeResponse
	Description string `json:"description"`
}

// NameResponse is the wire shape of a tag or ingredient
type NameResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// List returns the caller's recipes, newest first
func (h *RecipeHandler) List(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	recipes, err := h.recipes.ListRecipes(userID)
	if err != nil {
		return apperrors.DatabaseError("failed to list recipes", err)
	}

	resp := make([]RecipeResponse, 0, len(recipes))
	for i := range recipes {
		resp = append(resp, buildRecipeResponse(&recipes[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

// Create creates a recipe, reconciling any tag and ingredient name
// references
func (h *RecipeHandler) Create(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req CreateRecipeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	recipe, err := h.recipes.CreateRecipe(userID, services.CreateRecipeInput{
		Title:       req.Title,
		TimeMinutes: *req.TimeMinutes,
		Price:       *req.Price,
		Link:        req.Link,
		Description: req.Description,
		Tags:        refNames(req.Tags),
		Ingredients: refNames(req.Ingredients),
	})
	if err != nil {
		return apperrors.DatabaseError("failed to create recipe", err)
	}

	return c.JSON(http.StatusCreated, buildRecipeDetailResponse(recipe))
}

// Get returns one of the caller's recipes with tags and ingredients
func (h *RecipeHandler) Get(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.NotFoundError("recipe")
	}

	recipe, err := h.recipes.GetRecipe(recipeID, userID)
	if err != nil {
		if errors.Is(err, services.ErrRecipeNotFound) {
			return apperrors.NotFoundError("recipe")
		}
		return apperrors.DatabaseError("failed to fetch recipe", err)
	}

	return c.JSON(http.StatusOK, buildRecipeDetailResponse(recipe))
}

// Update applies a partial update
func (h *RecipeHandler) Update(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.NotFoundError("recipe")
	}

	var req UpdateRecipeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	recipe, err := h.recipes.UpdateRecipe(recipeID, userID, services.UpdateRecipeInput{
		Title:       req.Title,
		TimeMinutes: req.TimeMinutes,
		Price:       req.Price,
		Link:        req.Link,
		Description: req.Description,
		Tags:        refNames(req.Tags),
		Ingredients: refNames(req.Ingredients),
	})
	if err != nil {
		if errors.Is(err, services.ErrRecipeNotFound) {
			return apperrors.NotFoundError("recipe")
		}
		return apperrors.DatabaseError("failed to update recipe", err)
	}

	return c.JSON(http.StatusOK, buildRecipeDetailResponse(recipe))
}

// Replace applies a full update; all required recipe fields must be
// present
func (h *RecipeHandler) Replace(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.NotFoundError("recipe")
	}

	var req CreateRecipeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	recipe, err := h.recipes.UpdateRecipe(recipeID, userID, services.UpdateRecipeInput{
		Title:       &req.Title,
		TimeMinutes: req.TimeMinutes,
		Price:       req.Price,
		Link:        &req.Link,
		Description: &req.Description,
		Tags:        refNames(req.Tags),
		Ingredients: refNames(req.Ingredients),
	})
	if err != nil {
		if errors.Is(err, services.ErrRecipeNotFound) {
			return apperrors.NotFoundError("recipe")
		}
		return apperrors.DatabaseError("failed to update recipe", err)
	}

	return c.JSON(http.StatusOK, buildRecipeDetailResponse(recipe))
}

// Delete deletes one of the caller's recipes
func (h *RecipeHandler) Delete(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.NotFoundError("recipe")
	}

	if err := h.recipes.DeleteRecipe(recipeID, userID); err != nil {
		if errors.Is(err, services.ErrRecipeNotFound) {
			return apperrors.NotFoundError("recipe")
		}
		return apperrors.DatabaseError("failed to delete recipe", err)
	}

	return c.NoContent(http.StatusNoContent)
}

// refNames preserves the absent (nil) vs empty ([]) distinction
// the relation-set update semantics depend on.
func refNames(refs []NameRef) []string {
	if refs == nil {
		return nil
	}
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.Name)
	}
	return names
}

func buildRecipeResponse(recipe *models.Recipe) RecipeResponse {
	tags := make([]NameResponse, 0, len(recipe.Tags))
	for _, t := range recipe.Tags {
		tags = append(tags, NameResponse{ID: t.ID, Name: t.Name})
	}
	ingredients := make([]NameResponse, 0, len(recipe.Ingredients))
	for _, i := range recipe.Ingredients {
		ingredients = append(ingredients, NameResponse{ID: i.ID, Name: i.Name})
	}
	return RecipeResponse{
		ID:          recipe.ID,
		Title:       recipe.Title,
		TimeMinutes: recipe.TimeMinutes,
		Price:       recipe.Price,
		Link:        recipe.Link,
		Tags:        tags,
		Ingredients: ingredients,
		CreatedAt:   recipe.CreatedAt,
		UpdatedAt:   recipe.UpdatedAt,
	}
}

func buildRecipeDetailResponse(recipe *models.Recipe) RecipeDetailResponse {
	return RecipeDetailResponse{
		RecipeResponse: buildRecipeResponse(recipe),
		Description:    recipe.Description,
	}
}
