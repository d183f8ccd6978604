package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "github.com/cookbookd/cookbookd/src/internal/errors"
	"github.com/cookbookd/cookbookd/src/internal/services"
)

// IngredientHandler handles ingredient endpoints.
type IngredientHandler struct {
	ingredients *services.IngredientService
}

// NewIngredientHandler creates a new ingredient handler.
func NewIngredientHandler(ingredients *services.IngredientService) *IngredientHandler {
	return &IngredientHandler{ingredients: ingredients}
}

// CreateIngredientRequest represents an ingredient creation request.
type CreateIngredientRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// UpdateIngredientRequest represents an ingredient rename.
type UpdateIngredientRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// List returns the caller's ingredients, newest names first. With
// assigned_only=1 only ingredients used by at least one of the
// caller's recipes are returned, each at most once.
func (h *IngredientHandler) List(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	assignedOnly := parseAssignedOnly(c.QueryParam("assigned_only"))

	ingredients, err := h.ingredients.ListIngredients(userID, assignedOnly)
	if err != nil {
		return apperrors.DatabaseError("failed to list ingredients", err)
	}

	out := make([]NameResponse, 0, len(ingredients))
	for _, i := range ingredients {
		out = append(out, NameResponse{ID: i.ID, Name: i.Name})
	}
	return c.JSON(http.StatusOK, out)
}

// Create creates an ingredient, reusing an existing one with the same name.
func (h *IngredientHandler) Create(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req CreateIngredientRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ingredient, err := h.ingredients.CreateIngredient(userID, req.Name)
	if err != nil {
		return apperrors.DatabaseError("failed to create ingredient", err)
	}

	return c.JSON(http.StatusCreated, NameResponse{ID: ingredient.ID, Name: ingredient.Name})
}

// Update renames an ingredient.
func (h *IngredientHandler) Update(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	ingredientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.NotFoundError("ingredient")
	}

	var req UpdateIngredientRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ingredient, err := h.ingredients.UpdateIngredient(ingredientID, userID, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrIngredientNotFound):
			return apperrors.NotFoundError("ingredient")
		case errors.Is(err, services.ErrDuplicateName):
			return apperrors.ConflictError("ingredient name already in use")
		}
		return apperrors.DatabaseError("failed to update ingredient", err)
	}

	return c.JSON(http.StatusOK, NameResponse{ID: ingredient.ID, Name: ingredient.Name})
}

// Delete removes an ingredient and detaches it from the caller's recipes.
func (h *IngredientHandler) Delete(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	ingredientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.NotFoundError("ingredient")
	}

	if err := h.ingredients.DeleteIngredient(ingredientID, userID); err != nil {
		if errors.Is(err, services.ErrIngredientNotFound) {
			return apperrors.NotFoundError("ingredient")
		}
		return apperrors.DatabaseError("failed to delete ingredient", err)
	}

	return c.NoContent(http.StatusNoContent)
}
