package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/cookbookd/cookbookd/src/internal/auth"
	"github.com/cookbookd/cookbookd/src/internal/database/models"
	apperrors "github.com/cookbookd/cookbookd/src/internal/errors"
)

// AuthHandler handles registration, login, and the current-user profile.
type AuthHandler struct {
	db          *gorm.DB
	authService *auth.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(db *gorm.DB, authService *auth.AuthService) *AuthHandler {
	return &AuthHandler{
		db:          db,
		authService: authService,
	}
}

// RegisterRequest represents a registration request.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"max=255"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents a successful login.
type LoginResponse struct {
	AccessToken string        `json:"access_token"`
	ExpiresAt   time.Time     `json:"expires_at"`
	User        *UserResponse `json:"user"`
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Register handles user registration.
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var existing models.User
	if err := h.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return apperrors.ConflictError("email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.DatabaseError("failed to check existing user", err)
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return apperrors.InternalError("failed to hash password").WithCause(err)
	}

	user := models.User{
		Email:        req.Email,
		PasswordHash: hashed,
		Name:         req.Name,
		IsActive:     true,
	}
	if err := h.db.Create(&user).Error; err != nil {
		return apperrors.DatabaseError("failed to create user", err)
	}

	return c.JSON(http.StatusCreated, buildUserResponse(&user))
}

// Login verifies credentials and issues an access token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.UnauthorizedError("invalid credentials")
		}
		return apperrors.DatabaseError("failed to look up user", err)
	}

	if !user.IsActive {
		return apperrors.UnauthorizedError("account is disabled")
	}
	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return apperrors.UnauthorizedError("invalid credentials")
	}

	token, expiresAt, err := h.authService.GenerateToken(&user)
	if err != nil {
		return apperrors.InternalError("failed to generate token").WithCause(err)
	}

	now := time.Now().UTC()
	if err := h.db.Model(&user).Update("last_login_at", now).Error; err != nil {
		c.Logger().Warnf("failed to record last login: %v", err)
	}

	return c.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User:        buildUserResponse(&user),
	})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.UnauthorizedError("user no longer exists")
		}
		return apperrors.DatabaseError("failed to load user", err)
	}

	return c.JSON(http.StatusOK, buildUserResponse(&user))
}

// UpdateMeRequest represents a profile update. Absent fields are untouched.
type UpdateMeRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=255"`
	Password *string `json:"password" validate:"omitempty,min=8"`
}

// UpdateMe updates the authenticated user's name or password.
func (h *AuthHandler) UpdateMe(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req UpdateMeRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.UnauthorizedError("user no longer exists")
		}
		return apperrors.DatabaseError("failed to load user", err)
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Password != nil {
		hashed, err := auth.HashPassword(*req.Password)
		if err != nil {
			return apperrors.InternalError("failed to hash password").WithCause(err)
		}
		user.PasswordHash = hashed
	}

	if err := h.db.Save(&user).Error; err != nil {
		return apperrors.DatabaseError("failed to update user", err)
	}

	return c.JSON(http.StatusOK, buildUserResponse(&user))
}

func buildUserResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
	}
}
