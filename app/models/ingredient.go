package models

import (
	"time"

	"gorm.io/gorm"
)

// Ingredient represents a raw material tracked by the inventory engine.
// Precio is a running weighted average maintained by the persistence layer
// on reception; calculation components read it but never write it.
type Ingredient struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Name           string         `gorm:"not null;index" json:"nombre"`
	Unit           string         `gorm:"default:unidades" json:"unidad"` // unidades, kg, gramos, litros, ml
	Price          float64        `gorm:"default:0" json:"precio"`
	Stock          float64        `gorm:"default:0" json:"stock_actual"` // Allows decimals for kg, liters
	MinStock       float64        `gorm:"default:0" json:"stock_minimo"`
	PurchaseFormat string         `json:"formato_compra"`                         // e.g. "caja 24 uds"
	QtyPerFormat   float64        `gorm:"default:0" json:"cantidad_por_formato"`
	IsActive       bool           `gorm:"default:true" json:"activo"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// Movement types for IngredientMovement
const (
	MovementPurchase   = "compra"
	MovementSale       = "venta"
	MovementAdjustment = "ajuste"
	MovementShrinkage  = "merma"
)

// IngredientMovement tracks every ingredient stock change, including the
// signed shrinkage records produced by a reconciliation commit.
type IngredientMovement struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	IngredientID uint      `gorm:"not null;index" json:"ingrediente_id"`
	Type         string    `gorm:"not null" json:"tipo"` // compra, venta, ajuste, merma
	Quantity     float64   `gorm:"not null" json:"cantidad"` // Positive for additions, negative for deductions
	PreviousQty  float64   `json:"stock_anterior"`
	NewQty       float64   `json:"stock_nuevo"`
	Reference    string    `json:"referencia"` // Order number, reconciliation session, etc.
	Reason       string    `json:"motivo"`
	Notes        string    `json:"notas"`
	CreatedAt    time.Time `json:"created_at"`

	// Relations
	Ingredient *Ingredient `gorm:"foreignKey:IngredientID" json:"ingrediente,omitempty"`
}

// StockDelta is an additive stock mutation instruction. Deltas compose under
// addition, so concurrent receptions and sales never overwrite each other.
type StockDelta struct {
	ID    uint    `json:"id"`
	Delta float64 `json:"delta"`
}

// DeltaApplied reports one successfully applied delta in a bulk mutation.
type DeltaApplied struct {
	ID       uint    `json:"id"`
	Delta    float64 `json:"delta-applied"`
	NewStock float64 `json:"newStock"`
}

// DeltaError reports one failed delta in a bulk mutation.
type DeltaError struct {
	ID    uint   `json:"id"`
	Error string `json:"error"`
}

// BulkDeltaResult is the mixed outcome of a bulk stock mutation. Successes
// are not rolled back when siblings fail; the caller decides what depends on
// full success.
type BulkDeltaResult struct {
	Applied []DeltaApplied `json:"applied"`
	Failed  []DeltaError   `json:"failed"`
}

// AllApplied reports whether every delta in the batch landed.
func (r BulkDeltaResult) AllApplied() bool {
	return len(r.Failed) == 0
}

// TableName specifies the table name for Ingredient
func (Ingredient) TableName() string {
	return "ingredients"
}

// TableName specifies the table name for IngredientMovement
func (IngredientMovement) TableName() string {
	return "ingredient_movements"
}
