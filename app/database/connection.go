package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/klaker79/MindLoop-CostOS-sub001/app/config"
	"github.com/klaker79/MindLoop-CostOS-sub001/app/models"
)

var db *gorm.DB

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return db
}

// SetDB sets the database instance (useful for testing)
func SetDB(instance *gorm.DB) {
	db = instance
}

// buildDSN constructs the database connection string from environment variables
// Priority: DATABASE_URL > individual variables (DB_HOST, DB_PORT, etc.) > defaults
func buildDSN() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		log.Printf("Using DATABASE_URL for database connection")
		return dsn
	}

	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	dbname := os.Getenv("DB_NAME")
	sslmode := os.Getenv("DB_SSLMODE")

	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "5432"
	}
	if user == "" {
		user = "postgres"
	}
	if password == "" {
		password = "postgres"
	}
	if dbname == "" {
		dbname = "costos"
	}
	if sslmode == "" {
		sslmode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	log.Printf("Built database connection from individual variables: host=%s port=%s dbname=%s sslmode=%s",
		host, port, dbname, sslmode)

	return dsn
}

// buildDSNFromConfig builds DSN from AppConfig
func buildDSNFromConfig(cfg *config.AppConfig) string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Database,
		cfg.Database.SSLMode,
	)

	log.Printf("Built database connection from config.json: host=%s port=%d dbname=%s sslmode=%s",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.Database, cfg.Database.SSLMode)

	return dsn
}

// Initialize sets up the database connection using environment variables.
func Initialize() error {
	return InitializeWithConfig(nil)
}

// InitializeWithConfig sets up the database connection with optional AppConfig
func InitializeWithConfig(appConfig *config.AppConfig) error {
	var err error
	var dsn string

	if appConfig != nil {
		dsn = buildDSNFromConfig(appConfig)
	} else {
		dsn = buildDSN()
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		PrepareStmt: true,
	}

	db, err = gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// InitializeLocal opens a CGO-free SQLite database at the given path. Used
// when no PostgreSQL server is configured and for local development.
func InitializeLocal(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	var err error
	db, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return fmt.Errorf("failed to connect to local database: %w", err)
	}

	if err := RunMigrations(); err != nil {
		return fmt.Errorf("failed to run local migrations: %w", err)
	}

	return nil
}

// RunMigrations runs database migrations
func RunMigrations() error {
	err := db.AutoMigrate(
		// Catalog models
		&models.Ingredient{},
		&models.IngredientMovement{},
		&models.Recipe{},
		&models.RecipeLine{},

		// Sales models
		&models.Sale{},
		&models.FixedExpense{},

		// Purchasing models
		&models.Supplier{},
		&models.PurchaseOrder{},
		&models.OrderLine{},

		// Reconciliation models
		&models.ReconciliationDraft{},
	)

	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	createIndexes()

	return nil
}

// createIndexes creates indexes the AutoMigrate tags do not cover.
func createIndexes() {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_sales_sold_at ON sales(sold_at)",
		"CREATE INDEX IF NOT EXISTS idx_movements_created_at ON ingredient_movements(created_at)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status ON purchase_orders(status)",
	}

	for _, idx := range indexes {
		if err := db.Exec(idx).Error; err != nil {
			log.Printf("Warning: failed to create index: %v", err)
		}
	}
}
