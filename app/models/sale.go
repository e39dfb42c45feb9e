package models

import (
	"time"

	"gorm.io/gorm"
)

// Sale represents one recorded sale of a recipe. Sales are immutable once
// recorded except for deletion.
type Sale struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	RecipeID  uint           `gorm:"not null;index" json:"receta_id"`
	Quantity  float64        `gorm:"not null" json:"cantidad"`
	Total     float64        `gorm:"not null" json:"total"`
	SoldAt    time.Time      `gorm:"index" json:"fecha"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Recipe *Recipe `gorm:"foreignKey:RecipeID" json:"receta,omitempty"`
}

// FixedExpense is a monthly fixed cost. The engine only ever sums these.
type FixedExpense struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Concept       string         `gorm:"not null" json:"concepto"`
	MonthlyAmount float64        `gorm:"not null" json:"monto_mensual"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for Sale
func (Sale) TableName() string {
	return "sales"
}

// TableName specifies the table name for FixedExpense
func (FixedExpense) TableName() string {
	return "fixed_expenses"
}
