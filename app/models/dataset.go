package models

import "time"

// Dataset is the explicit context object the calculation components operate
// on: one consistent snapshot of the catalog, replacing ambient globals.
// The dataset service owns when it is refreshed.
type Dataset struct {
	Ingredients []Ingredient    `json:"ingredientes"`
	Recipes     []Recipe        `json:"recetas"`
	Sales       []Sale          `json:"ventas"`
	Orders      []PurchaseOrder `json:"pedidos"`
	Suppliers   []Supplier      `json:"proveedores"`
	Expenses    []FixedExpense  `json:"gastos_fijos"`
	LoadedAt    time.Time       `json:"loaded_at"`
}

// IngredientIndex builds an id lookup over the snapshot's ingredients.
func (d *Dataset) IngredientIndex() map[uint]*Ingredient {
	index := make(map[uint]*Ingredient, len(d.Ingredients))
	for i := range d.Ingredients {
		index[d.Ingredients[i].ID] = &d.Ingredients[i]
	}
	return index
}

// RecipeIndex builds an id lookup over the snapshot's recipes.
func (d *Dataset) RecipeIndex() map[uint]*Recipe {
	index := make(map[uint]*Recipe, len(d.Recipes))
	for i := range d.Recipes {
		index[d.Recipes[i].ID] = &d.Recipes[i]
	}
	return index
}
