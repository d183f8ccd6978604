package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "github.com/cookbookd/cookbookd/src/internal/errors"
	"github.com/cookbookd/cookbookd/src/internal/services"
)

// TagHandler handles tag endpoints.
type TagHandler struct {
	tags *services.TagService
}

// NewTagHandler creates a new tag handler.
func NewTagHandler(tags *services.TagService) *TagHandler {
	return &TagHandler{tags: tags}
}

// CreateTagRequest represents a tag creation request.
type CreateTagRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// UpdateTagRequest represents a tag rename.
type UpdateTagRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// List returns the caller's tags, newest names first. With
// assigned_only=1 only tags attached to at least one of the caller's
// recipes are returned, each at most once.
func (h *TagHandler) List(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	assignedOnly := parseAssignedOnly(c.QueryParam("assigned_only"))

	tags, err := h.tags.ListTags(userID, assignedOnly)
	if err != nil {
		return apperrors.DatabaseError("failed to list tags", err)
	}

	out := make([]NameResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, NameResponse{ID: t.ID, Name: t.Name})
	}
	return c.JSON(http.StatusOK, out)
}

// Create creates a tag, reusing an existing one with the same name.
func (h *TagHandler) Create(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req CreateTagRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	tag, err := h.tags.CreateTag(userID, req.Name)
	if err != nil {
		return apperrors.DatabaseError("failed to create tag", err)
	}

	return c.JSON(http.StatusCreated, NameResponse{ID: tag.ID, Name: tag.Name})
}

// Update renames a tag.
func (h *TagHandler) Update(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	tagID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.NotFoundError("tag")
	}

	var req UpdateTagRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	tag, err := h.tags.UpdateTag(tagID, userID, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTagNotFound):
			return apperrors.NotFoundError("tag")
		case errors.Is(err, services.ErrDuplicateName):
			return apperrors.ConflictError("tag name already in use")
		}
		return apperrors.DatabaseError("failed to update tag", err)
	}

	return c.JSON(http.StatusOK, NameResponse{ID: tag.ID, Name: tag.Name})
}

// Delete removes a tag and detaches it from the caller's recipes.
func (h *TagHandler) Delete(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	tagID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.NotFoundError("tag")
	}

	if err := h.tags.DeleteTag(tagID, userID); err != nil {
		if errors.Is(err, services.ErrTagNotFound) {
			return apperrors.NotFoundError("tag")
		}
		return apperrors.DatabaseError("failed to delete tag", err)
	}

	return c.NoContent(http.StatusNoContent)
}

// parseAssignedOnly treats "1" and "true" as on; anything else,
// including "0" and absence, is off.
func parseAssignedOnly(raw string) bool {
	return raw == "1" || raw == "true"
}
