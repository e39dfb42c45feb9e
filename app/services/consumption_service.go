package services

import (
	"math"
	"sort"
	"time"

	"github.com/klaker79/MindLoop-CostOS-sub001/app/models"
)

// DefaultConsumptionWindowDays is the trailing window used when the caller
// does not supply one.
const DefaultConsumptionWindowDays = 7

// DaysOfStockIndeterminate is the sentinel reported when an ingredient shows
// no consumption inside the window; the real figure would be unbounded.
const DaysOfStockIndeterminate = 999

// Alert levels for stock coverage, most urgent first.
const (
	AlertCritical = "critico"
	AlertLow      = "bajo"
	AlertMedium   = "medio"
	AlertOK       = "ok"
)

// IngredientConsumption is the projected consumption picture for one
// ingredient over the trailing window.
type IngredientConsumption struct {
	IngredientID     uint    `json:"ingrediente_id"`
	Name             string  `json:"nombre"`
	Stock            float64 `json:"stock_actual"`
	TotalConsumed    float64 `json:"consumo_total"`
	DailyConsumption float64 `json:"consumo_diario"`
	DaysOfStock      int     `json:"dias_stock"`
	Alert            string  `json:"alerta"`
	Message          string  `json:"mensaje,omitempty"`
}

// ConsumptionService derives per-ingredient daily consumption from the sales
// history and recipe bills of materials. Pure over the supplied dataset.
type ConsumptionService struct{}

// NewConsumptionService creates a new consumption service
func NewConsumptionService() *ConsumptionService {
	return &ConsumptionService{}
}

// Analyze projects daily consumption and stock coverage for every ingredient
// in the dataset, over a trailing window of windowDays ending at ref.
func (s *ConsumptionService) Analyze(dataset *models.Dataset, windowDays int, ref time.Time) []IngredientConsumption {
	if windowDays <= 0 {
		windowDays = DefaultConsumptionWindowDays
	}
	windowStart := ref.AddDate(0, 0, -windowDays)

	consumed := s.consumedPerIngredient(dataset, windowStart, ref)

	results := make([]IngredientConsumption, 0, len(dataset.Ingredients))
	for i := range dataset.Ingredients {
		ingredient := &dataset.Ingredients[i]

		entry := IngredientConsumption{
			IngredientID:  ingredient.ID,
			Name:          ingredient.Name,
			Stock:         ingredient.Stock,
			TotalConsumed: consumed[ingredient.ID],
		}
		entry.DailyConsumption = entry.TotalConsumed / float64(windowDays)

		if entry.DailyConsumption == 0 {
			entry.DaysOfStock = DaysOfStockIndeterminate
			entry.Message = "sin datos de consumo"
		} else {
			entry.DaysOfStock = int(math.Floor(ingredient.Stock / entry.DailyConsumption))
		}
		entry.Alert = alertLevel(entry.DaysOfStock)

		results = append(results, entry)
	}
	return results
}

// ProjectReorderNeeds returns only the ingredients whose projected coverage
// is at or below horizonDays, most urgent first. Ties keep input order.
func (s *ConsumptionService) ProjectReorderNeeds(dataset *models.Dataset, windowDays, horizonDays int, ref time.Time) []IngredientConsumption {
	all := s.Analyze(dataset, windowDays, ref)

	needs := make([]IngredientConsumption, 0)
	for _, entry := range all {
		if entry.DaysOfStock <= horizonDays {
			needs = append(needs, entry)
		}
	}

	sort.SliceStable(needs, func(i, j int) bool {
		return needs[i].DaysOfStock < needs[j].DaysOfStock
	})
	return needs
}

// consumedPerIngredient sums saleQuantity × recipeLineQuantity over every
// in-window sale, for every recipe line referencing each ingredient.
func (s *ConsumptionService) consumedPerIngredient(dataset *models.Dataset, from, to time.Time) map[uint]float64 {
	recipes := dataset.RecipeIndex()

	consumed := make(map[uint]float64)
	for _, sale := range dataset.Sales {
		if sale.SoldAt.Before(from) || sale.SoldAt.After(to) {
			continue
		}
		recipe, ok := recipes[sale.RecipeID]
		if !ok {
			// Sales against deleted recipes are skipped, not fatal.
			continue
		}
		for _, line := range recipe.Lines {
			consumed[line.IngredientID] += sale.Quantity * line.Quantity
		}
	}
	return consumed
}

// alertLevel bands days-of-stock into urgency levels. Thresholds are
// inclusive and evaluated in ascending order; first match wins.
func alertLevel(daysOfStock int) string {
	switch {
	case daysOfStock <= 2:
		return AlertCritical
	case daysOfStock <= 5:
		return AlertLow
	case daysOfStock <= 7:
		return AlertMedium
	default:
		return AlertOK
	}
}
