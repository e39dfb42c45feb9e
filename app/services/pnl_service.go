package services

import (
	"github.com/klaker79/MindLoop-CostOS-sub001/app/config"
	"github.com/klaker79/MindLoop-CostOS-sub001/app/models"
)

// ProfitLossResult combines revenue, cost of goods and fixed costs into the
// margin, break-even and thermometer figures the dashboard consumes.
type ProfitLossResult struct {
	Revenue                 float64 `json:"ingresos"`
	CostOfGoods             float64 `json:"coste_ventas"`
	FixedCosts              float64 `json:"gastos_fijos"`
	GrossMargin             float64 `json:"margen_bruto"`
	NetProfit               float64 `json:"beneficio_neto"`
	RentabilityPercent      float64 `json:"rentabilidad"`
	ContributionMarginRatio float64 `json:"ratio_contribucion"`
	BreakEvenRevenue        float64 `json:"punto_equilibrio"`

	// CompletionPercent is the raw progress toward break-even.
	CompletionPercent float64 `json:"porcentaje_equilibrio"`
	// ThermometerHeight is the presentation convention for progress-bar
	// displays: CompletionPercent halved and clamped to [0, 100], so that
	// exactly reaching break-even lands at the midpoint of the scale. It is
	// deliberately a separate field from CompletionPercent.
	ThermometerHeight float64 `json:"altura_termometro"`

	InLoss bool `json:"en_perdidas"`
}

// ProfitLossService computes P&L and break-even figures. Pure computation;
// the business assumptions (default contribution margin when no sales
// exist, and its floor) come from configuration.
type ProfitLossService struct {
	defaultContributionMargin float64
	contributionMarginFloor   float64
}

// NewProfitLossService creates a new P&L service with the configured
// business assumptions.
func NewProfitLossService(cfg *config.BusinessConfig) *ProfitLossService {
	return &ProfitLossService{
		defaultContributionMargin: cfg.DefaultContributionMargin,
		contributionMarginFloor:   cfg.ContributionMarginFloor,
	}
}

// Compute produces the full P&L picture for a period.
func (s *ProfitLossService) Compute(revenue, costOfGoods, fixedCosts float64) ProfitLossResult {
	result := ProfitLossResult{
		Revenue:     revenue,
		CostOfGoods: costOfGoods,
		FixedCosts:  fixedCosts,
	}

	result.GrossMargin = revenue - costOfGoods
	result.NetProfit = result.GrossMargin - fixedCosts

	if revenue > 0 {
		result.RentabilityPercent = (result.NetProfit / revenue) * 100
		result.ContributionMarginRatio = result.GrossMargin / revenue
	} else {
		// No sales yet: assume the configured margin until data arrives.
		result.ContributionMarginRatio = s.defaultContributionMargin
	}

	// Floor the ratio so the break-even figure is never unbounded or
	// negative.
	if result.ContributionMarginRatio <= 0 {
		result.ContributionMarginRatio = s.contributionMarginFloor
	}

	result.BreakEvenRevenue = fixedCosts / result.ContributionMarginRatio

	switch {
	case result.BreakEvenRevenue > 0:
		result.CompletionPercent = (revenue / result.BreakEvenRevenue) * 100
	case fixedCosts == 0:
		// Nothing to cover.
		result.CompletionPercent = 100
	default:
		result.CompletionPercent = 0
	}

	result.ThermometerHeight = clampPercent(result.CompletionPercent / 2)
	result.InLoss = revenue < result.BreakEvenRevenue

	return result
}

// ComputeForDataset sums the dataset's sales inside the period, prices the
// corresponding recipe consumption, and aggregates the fixed expenses.
func (s *ProfitLossService) ComputeForDataset(dataset *models.Dataset, costing *CostingService, period DateRange) ProfitLossResult {
	ingredients := dataset.IngredientIndex()
	recipes := dataset.RecipeIndex()

	var revenue, costOfGoods float64
	for _, sale := range dataset.Sales {
		if !period.Contains(sale.SoldAt) {
			continue
		}
		revenue += sale.Total

		recipe, ok := recipes[sale.RecipeID]
		if !ok {
			continue
		}
		cost := costing.RecipeCost(recipe, ingredients)
		costOfGoods += cost.TotalCost * sale.Quantity
	}

	var fixedCosts float64
	for _, expense := range dataset.Expenses {
		fixedCosts += expense.MonthlyAmount
	}

	return s.Compute(revenue, costOfGoods, fixedCosts)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
