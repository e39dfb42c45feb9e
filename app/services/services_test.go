package services

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/klaker79/MindLoop-CostOS-sub001/app/models"
)

// newTestDB opens an isolated in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// A pooled :memory: DSN would hand each connection its own empty
	// database; pin everything to one connection.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get underlying database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.Ingredient{},
		&models.IngredientMovement{},
		&models.Recipe{},
		&models.RecipeLine{},
		&models.Sale{},
		&models.FixedExpense{},
		&models.Supplier{},
		&models.PurchaseOrder{},
		&models.OrderLine{},
		&models.ReconciliationDraft{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func mustCreate(t *testing.T, db *gorm.DB, value interface{}) {
	t.Helper()
	if err := db.Create(value).Error; err != nil {
		t.Fatalf("failed to create %T: %v", value, err)
	}
}

func ingredientStock(t *testing.T, db *gorm.DB, id uint) float64 {
	t.Helper()
	var ingredient models.Ingredient
	if err := db.First(&ingredient, id).Error; err != nil {
		t.Fatalf("failed to load ingredient %d: %v", id, err)
	}
	return ingredient.Stock
}

func almostEqual(a, b float64) bool {
	const eps = 1e-9
	diff := a - b
	return diff < eps && diff > -eps
}

func testDate(day int, hour int) time.Time {
	return time.Date(2026, time.March, day, hour, 0, 0, 0, time.UTC)
}
