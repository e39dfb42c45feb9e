package services

import (
	"github.com/klaker79/MindLoop-CostOS-sub001/app/models"
)

// CostingService computes recipe costs and margins from supplied data. All
// methods are pure and safe for concurrent use.
type CostingService struct{}

// NewCostingService creates a new costing service
func NewCostingService() *CostingService {
	return &CostingService{}
}

// RecipeCostResult is the outcome of costing one recipe. Missing ingredients
// are skipped rather than failing the whole recipe, and surfaced so the
// caller can tell a partial costing from a complete one.
type RecipeCostResult struct {
	RecipeID           uint    `json:"receta_id"`
	TotalCost          float64 `json:"coste_total"`
	CostPerPortion     float64 `json:"coste_por_porcion"`
	MarginPercent      float64 `json:"margen"`
	FoodCostPercent    float64 `json:"food_cost"`
	MissingIngredients []uint  `json:"ingredientes_faltantes,omitempty"`
}

// IngredientLineCost converts (unit price, quantity, yield %) into the cost
// of one recipe line. Yield below 100 inflates cost because more raw
// material is needed per usable unit. A yield of zero or less is a
// data-entry omission and is treated as 100 (no measured loss), so this
// never divides by zero.
func (s *CostingService) IngredientLineCost(unitPrice, quantity, yieldPercent float64) float64 {
	y := yieldPercent
	if y <= 0 {
		y = 100
	}
	return (unitPrice / (y / 100)) * quantity
}

// RecipeCost aggregates a recipe's bill of materials into its total cost.
// Lines referencing ingredients absent from the index are skipped and
// reported in MissingIngredients.
func (s *CostingService) RecipeCost(recipe *models.Recipe, ingredients map[uint]*models.Ingredient) RecipeCostResult {
	result := RecipeCostResult{RecipeID: recipe.ID}

	for _, line := range recipe.Lines {
		ingredient, ok := ingredients[line.IngredientID]
		if !ok {
			result.MissingIngredients = append(result.MissingIngredients, line.IngredientID)
			continue
		}
		result.TotalCost += s.IngredientLineCost(ingredient.Price, line.Quantity, line.YieldPercent)
	}

	result.CostPerPortion = result.TotalCost / float64(recipe.EffectivePortions())
	result.MarginPercent = s.MarginPercent(recipe.SellingPrice, result.TotalCost)
	result.FoodCostPercent = s.FoodCostPercent(recipe.SellingPrice, result.TotalCost)
	return result
}

// MarginPercent returns the margin over selling price as a percentage.
// A selling price of zero or less yields 0, never NaN or Infinity.
func (s *CostingService) MarginPercent(sellingPrice, cost float64) float64 {
	if sellingPrice <= 0 {
		return 0
	}
	return ((sellingPrice - cost) / sellingPrice) * 100
}

// FoodCostPercent returns the complementary cost share of the selling
// price, under the same zero guard as MarginPercent.
func (s *CostingService) FoodCostPercent(sellingPrice, cost float64) float64 {
	if sellingPrice <= 0 {
		return 0
	}
	return (cost / sellingPrice) * 100
}

// CostAllRecipes prices every recipe in the dataset against its ingredient
// catalog.
func (s *CostingService) CostAllRecipes(dataset *models.Dataset) []RecipeCostResult {
	index := dataset.IngredientIndex()
	results := make([]RecipeCostResult, 0, len(dataset.Recipes))
	for i := range dataset.Recipes {
		results = append(results, s.RecipeCost(&dataset.Recipes[i], index))
	}
	return results
}
