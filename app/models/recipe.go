package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Recipe represents a sellable dish with its bill of materials.
type Recipe struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"not null;index" json:"nombre"`
	SellingPrice float64        `gorm:"default:0" json:"precio_venta"`
	Portions     int            `gorm:"default:1" json:"porciones"`
	Lines        []RecipeLine   `gorm:"foreignKey:RecipeID" json:"ingredientes"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// RecipeLine links a recipe to one ingredient with the quantity consumed per
// batch. YieldPercent is the fraction of raw quantity that survives prep
// loss; zero or negative means "not measured" and is treated as 100.
type RecipeLine struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	RecipeID     uint    `gorm:"not null;index" json:"receta_id"`
	IngredientID uint    `gorm:"not null;index" json:"ingrediente_id"`
	Quantity     float64 `gorm:"not null" json:"cantidad"`
	YieldPercent float64 `gorm:"default:0" json:"rendimiento"`

	// Relations
	Ingredient *Ingredient `gorm:"foreignKey:IngredientID" json:"ingrediente,omitempty"`
}

// recipeLineAlias mirrors RecipeLine for decoding. Persisted data carries the
// ingredient reference under two spellings; both must resolve identically.
type recipeLineAlias struct {
	ID              uint    `json:"id"`
	RecipeID        uint    `json:"receta_id"`
	IngredientID    uint    `json:"ingrediente_id"`
	IngredientIDAlt uint    `json:"ingredienteId"`
	Quantity        float64 `json:"cantidad"`
	YieldPercent    float64 `json:"rendimiento"`
}

// UnmarshalJSON normalizes the two accepted ingredient-reference spellings
// (ingrediente_id and ingredienteId) into the canonical field, so the rest
// of the engine never sees the alias.
func (l *RecipeLine) UnmarshalJSON(data []byte) error {
	var a recipeLineAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	l.ID = a.ID
	l.RecipeID = a.RecipeID
	l.IngredientID = a.IngredientID
	if l.IngredientID == 0 {
		l.IngredientID = a.IngredientIDAlt
	}
	l.Quantity = a.Quantity
	l.YieldPercent = a.YieldPercent
	return nil
}

// EffectivePortions guards against zero/absent portion counts so that
// cost-per-portion never divides by zero.
func (r *Recipe) EffectivePortions() int {
	if r.Portions < 1 {
		return 1
	}
	return r.Portions
}

// TableName specifies the table name for Recipe
func (Recipe) TableName() string {
	return "recipes"
}

// TableName specifies the table name for RecipeLine
func (RecipeLine) TableName() string {
	return "recipe_lines"
}
