package database

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/spf13/viper"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cookbookd/cookbookd/src/internal/database/models"
)

// Initialize initializes the database connection
func Initialize(cfg *viper.Viper) (*gorm.DB, error) {
	var dialector gorm.Dialector

	dbType := cfg.GetString("database.type")
	dbDSN := cfg.GetString("database.dsn")
	switch dbType {
	case "postgres", "postgresql":
		dialector = postgres.Open(dbDSN)
	case "mysql":
		dialector = mysql.Open(dbDSN)
	case "sqlite", "":
		dialector = sqlite.Open(dbDSN)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}

	// Silent in production, Info when debugging
	logLevel := logger.Silent
	if cfg.GetBool("debug") {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	maxConns := cfg.GetInt("database.max_connections")
	if maxConns <= 0 {
		maxConns = 25
	}
	sqlDB.SetMaxOpenConns(maxConns)
	sqlDB.SetMaxIdleConns(maxConns / 2)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.GetInt("database.max_idle_time")) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate creates or updates the schema for all models, including the
// composite unique indexes on (user_id, name) that back the
// get-or-create natural keys.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Recipe{}, "Tags", &models.RecipeTag{}); err != nil {
		return fmt.Errorf("failed to set up recipe_tags join table: %w", err)
	}
	if err := db.SetupJoinTable(&models.Recipe{}, "Ingredients", &models.RecipeIngredient{}); err != nil {
		return fmt.Errorf("failed to set up recipe_ingredients join table: %w", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Recipe{},
		&models.Tag{},
		&models.Ingredient{},
		&models.RecipeTag{},
		&models.RecipeIngredient{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
