package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cookbookd/cookbookd/src/internal/api/handlers"
	"github.com/cookbookd/cookbookd/src/internal/auth"
	"github.com/cookbookd/cookbookd/src/internal/services"
)

// setupRoutes configures all application routes.
func (s *Server) setupRoutes() {
	authMiddleware := auth.NewMiddleware(s.auth)

	recipeService := services.NewRecipeService(s.db, s.config, s.cache)
	tagService := services.NewTagService(s.db, s.config, s.cache)
	ingredientService := services.NewIngredientService(s.db, s.config, s.cache)

	authHandler := handlers.NewAuthHandler(s.db, s.auth)
	recipeHandler := handlers.NewRecipeHandler(recipeService)
	tagHandler := handlers.NewTagHandler(tagService)
	ingredientHandler := handlers.NewIngredientHandler(ingredientService)

	// Health check
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/healthz", s.handleHealthz)

	apiV1 := s.echo.Group("/api/v1")

	// Authentication routes
	authGroup := apiV1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)

	// Current user routes
	userGroup := apiV1.Group("/users", authMiddleware.Auth())
	userGroup.GET("/me", authHandler.Me)
	userGroup.PATCH("/me", authHandler.UpdateMe)

	// Recipe routes
	recipeGroup := apiV1.Group("/recipes", authMiddleware.Auth())
	recipeGroup.GET("", recipeHandler.List)
	recipeGroup.POST("", recipeHandler.Create)
	recipeGroup.GET("/:id", recipeHandler.Get)
	recipeGroup.PUT("/:id", recipeHandler.Replace)
	recipeGroup.PATCH("/:id", recipeHandler.Update)
	recipeGroup.DELETE("/:id", recipeHandler.Delete)

	// Tag routes
	tagGroup := apiV1.Group("/tags", authMiddleware.Auth())
	tagGroup.GET("", tagHandler.List)
	tagGroup.POST("", tagHandler.Create)
	tagGroup.PATCH("/:id", tagHandler.Update)
	tagGroup.DELETE("/:id", tagHandler.Delete)

	// Ingredient routes
	ingredientGroup := apiV1.Group("/ingredients", authMiddleware.Auth())
	ingredientGroup.GET("", ingredientHandler.List)
	ingredientGroup.POST("", ingredientHandler.Create)
	ingredientGroup.PATCH("/:id", ingredientHandler.Update)
	ingredientGroup.DELETE("/:id", ingredientHandler.Delete)
}

func (s *Server) handleHealth(c echo.Context) error {
	status := "ok"
	dbStatus := "ok"

	sqlDB, err := s.db.DB()
	if err != nil || sqlDB.Ping() != nil {
		status = "degraded"
		dbStatus = "unreachable"
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":   status,
		"database": dbStatus,
		"uptime":   time.Since(s.startTime).Round(time.Second).String(),
		"version":  s.config.GetString("app.version"),
	})
}

func (s *Server) handleHealthz(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
