package services

import (
	"math"
	"testing"

	"github.com/klaker79/MindLoop-CostOS-sub001/app/config"
	"github.com/klaker79/MindLoop-CostOS-sub001/app/models"
)

func newTestPnL() *ProfitLossService {
	return NewProfitLossService(&config.BusinessConfig{
		DefaultContributionMargin: 0.7,
		ContributionMarginFloor:   0.1,
	})
}

func TestComputeBreakEven(t *testing.T) {
	svc := newTestPnL()

	// Contribution margin 0.4 with fixed costs 5000.
	result := svc.Compute(1000, 600, 5000)

	if !almostEqual(result.ContributionMarginRatio, 0.4) {
		t.Errorf("ContributionMarginRatio = %v, want 0.4", result.ContributionMarginRatio)
	}
	if !almostEqual(result.BreakEvenRevenue, 12500) {
		t.Errorf("BreakEvenRevenue = %v, want 12500", result.BreakEvenRevenue)
	}
	if !result.InLoss {
		t.Error("revenue 1000 against break-even 12500 should be in loss")
	}
}

func TestComputeRatioFloor(t *testing.T) {
	svc := newTestPnL()

	// Selling below cost: computed ratio is negative, must floor at 0.1.
	result := svc.Compute(1000, 1500, 5000)

	if !almostEqual(result.ContributionMarginRatio, 0.1) {
		t.Errorf("ContributionMarginRatio = %v, want floored 0.1", result.ContributionMarginRatio)
	}
	if !almostEqual(result.BreakEvenRevenue, 50000) {
		t.Errorf("BreakEvenRevenue = %v, want 50000", result.BreakEvenRevenue)
	}
	if math.IsInf(result.BreakEvenRevenue, 0) {
		t.Error("BreakEvenRevenue must never be infinite")
	}
}

func TestComputeNoSalesUsesDefaultRatio(t *testing.T) {
	svc := newTestPnL()

	result := svc.Compute(0, 0, 7000)

	if !almostEqual(result.ContributionMarginRatio, 0.7) {
		t.Errorf("ContributionMarginRatio = %v, want default 0.7", result.ContributionMarginRatio)
	}
	if !almostEqual(result.BreakEvenRevenue, 10000) {
		t.Errorf("BreakEvenRevenue = %v, want 10000", result.BreakEvenRevenue)
	}
	if result.RentabilityPercent != 0 {
		t.Errorf("RentabilityPercent = %v, want 0 with no revenue", result.RentabilityPercent)
	}
}

func TestComputeNothingToCover(t *testing.T) {
	svc := newTestPnL()

	result := svc.Compute(0, 0, 0)

	if !almostEqual(result.CompletionPercent, 100) {
		t.Errorf("CompletionPercent = %v, want 100 when there are no fixed costs", result.CompletionPercent)
	}
	if !almostEqual(result.ThermometerHeight, 50) {
		t.Errorf("ThermometerHeight = %v, want 50", result.ThermometerHeight)
	}
}

func TestComputeThermometer(t *testing.T) {
	svc := newTestPnL()

	// Ratio 0.5, fixed 1000 → break-even 2000; revenue exactly there.
	result := svc.Compute(2000, 1000, 1000)

	if !almostEqual(result.BreakEvenRevenue, 2000) {
		t.Fatalf("BreakEvenRevenue = %v, want 2000", result.BreakEvenRevenue)
	}
	if !almostEqual(result.CompletionPercent, 100) {
		t.Errorf("CompletionPercent = %v, want 100 at break-even", result.CompletionPercent)
	}
	// Reaching break-even lands at the midpoint of the thermometer.
	if !almostEqual(result.ThermometerHeight, 50) {
		t.Errorf("ThermometerHeight = %v, want 50", result.ThermometerHeight)
	}
	if result.InLoss {
		t.Error("exactly at break-even is not in loss")
	}

	// Far past break-even the height clamps at 100.
	past := svc.Compute(10000, 5000, 1000)
	if !almostEqual(past.ThermometerHeight, 100) {
		t.Errorf("ThermometerHeight = %v, want clamped 100", past.ThermometerHeight)
	}
}

func TestComputeProfitFigures(t *testing.T) {
	svc := newTestPnL()

	result := svc.Compute(10000, 4000, 3000)

	if !almostEqual(result.GrossMargin, 6000) {
		t.Errorf("GrossMargin = %v, want 6000", result.GrossMargin)
	}
	if !almostEqual(result.NetProfit, 3000) {
		t.Errorf("NetProfit = %v, want 3000", result.NetProfit)
	}
	if !almostEqual(result.RentabilityPercent, 30) {
		t.Errorf("RentabilityPercent = %v, want 30", result.RentabilityPercent)
	}
	if result.InLoss {
		t.Error("should not be in loss")
	}
}

func TestComputeForDataset(t *testing.T) {
	svc := newTestPnL()
	costing := NewCostingService()
	periods := NewPeriodService()

	ref := testDate(20, 18)
	month, err := periods.Resolve(PeriodMonth, ref)
	if err != nil {
		t.Fatal(err)
	}

	dataset := &models.Dataset{
		Ingredients: []models.Ingredient{
			{ID: 1, Price: 2},
		},
		Recipes: []models.Recipe{
			{ID: 10, SellingPrice: 12, Lines: []models.RecipeLine{
				{IngredientID: 1, Quantity: 1.5}, // cost 3 per unit sold
			}},
		},
		Sales: []models.Sale{
			{RecipeID: 10, Quantity: 2, Total: 24, SoldAt: testDate(10, 12)},
			// Previous month, excluded from the period.
			{RecipeID: 10, Quantity: 5, Total: 60, SoldAt: testDate(10, 12).AddDate(0, -1, 0)},
		},
		Expenses: []models.FixedExpense{
			{Concept: "Alquiler", MonthlyAmount: 1200},
			{Concept: "Luz", MonthlyAmount: 300},
		},
	}

	result := svc.ComputeForDataset(dataset, costing, month)

	if !almostEqual(result.Revenue, 24) {
		t.Errorf("Revenue = %v, want 24", result.Revenue)
	}
	if !almostEqual(result.CostOfGoods, 6) {
		t.Errorf("CostOfGoods = %v, want 6", result.CostOfGoods)
	}
	if !almostEqual(result.FixedCosts, 1500) {
		t.Errorf("FixedCosts = %v, want 1500", result.FixedCosts)
	}
}
