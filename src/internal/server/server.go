package server

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	echoMiddleware "github.com/cookbookd/cookbookd/src/internal/api/middleware"
	"github.com/cookbookd/cookbookd/src/internal/auth"
	"github.com/cookbookd/cookbookd/src/internal/cache"
	apperrors "github.com/cookbookd/cookbookd/src/internal/errors"
)

// Server represents the main application server.
type Server struct {
	echo      *echo.Echo
	config    *viper.Viper
	db        *gorm.DB
	cache     *cache.Manager
	auth      *auth.AuthService
	startTime time.Time
}

// New creates a new server instance.
func New(e *echo.Echo, cfg *viper.Viper, db *gorm.DB) *Server {
	cacheManager := cache.NewManager(cfg)

	authService := auth.NewAuthService(
		cfg.GetString("security.secret_key"),
		cfg.GetString("security.jwt.issuer"),
		cfg.GetDuration("security.jwt.access_token_ttl"),
	)

	s := &Server{
		echo:      e,
		config:    cfg,
		db:        db,
		cache:     cacheManager,
		auth:      authService,
		startTime: time.Now(),
	}

	e.HideBanner = true
	e.Validator = NewEchoValidator()

	errorHandler := apperrors.NewHandler(cfg.GetString("app.env") == "production")
	e.HTTPErrorHandler = errorHandler.HTTPErrorHandler

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Start starts the server.
func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cache != nil {
		s.cache.Close()
	}
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "  ${time_rfc3339} | ${status} | ${latency_human} | ${method} ${uri}\n",
	}))
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())

	s.echo.Use(echoMiddleware.CORS(s.config))
	s.echo.Use(echoMiddleware.RateLimit(s.config))
}
