package services

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/klaker79/MindLoop-CostOS-sub001/app/database"
	"github.com/klaker79/MindLoop-CostOS-sub001/app/models"
)

// StockService applies stock mutations. All mutations are additive deltas,
// never absolute overwrites, so they compose with concurrent writers.
type StockService struct {
	db *gorm.DB
}

// NewStockService creates a new stock service
func NewStockService() *StockService {
	return &StockService{
		db: database.GetDB(),
	}
}

// ApplyDeltas applies a batch of additive stock deltas. Each delta runs in
// its own transaction: successes stay applied when siblings fail, and the
// caller receives the full per-item breakdown. A missing ingredient is a
// hard per-item failure.
func (s *StockService) ApplyDeltas(deltas []models.StockDelta, reference string) models.BulkDeltaResult {
	var result models.BulkDeltaResult

	for _, delta := range deltas {
		newStock, err := s.applyDelta(delta, reference, models.MovementAdjustment, "", "")
		if err != nil {
			log.Printf("Error applying stock delta for ingredient %d: %v", delta.ID, err)
			result.Failed = append(result.Failed, models.DeltaError{
				ID:    delta.ID,
				Error: err.Error(),
			})
			continue
		}
		result.Applied = append(result.Applied, models.DeltaApplied{
			ID:       delta.ID,
			Delta:    delta.Delta,
			NewStock: newStock,
		})
	}

	return result
}

// AdjustStock applies one manual stock adjustment with its reason, recording
// the movement in the same transaction.
func (s *StockService) AdjustStock(ingredientID uint, quantity float64, reason string) (float64, error) {
	return s.applyDelta(models.StockDelta{ID: ingredientID, Delta: quantity}, "Ajuste manual", models.MovementAdjustment, reason, "")
}

// applyDelta adds delta.Delta to the ingredient's stock and records the
// movement atomically. Returns the resulting stock level.
func (s *StockService) applyDelta(delta models.StockDelta, reference, movementType, reason, notes string) (float64, error) {
	var newStock float64

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var ingredient models.Ingredient
		if err := tx.First(&ingredient, delta.ID).Error; err != nil {
			return fmt.Errorf("ingredient %d not found: %w", delta.ID, err)
		}

		previousStock := ingredient.Stock

		// Additive update at the SQL level so concurrent writers compose.
		if err := tx.Model(&models.Ingredient{}).
			Where("id = ?", delta.ID).
			Update("stock", gorm.Expr("stock + ?", delta.Delta)).Error; err != nil {
			return fmt.Errorf("failed to update stock for ingredient %d: %w", delta.ID, err)
		}

		if err := tx.First(&ingredient, delta.ID).Error; err != nil {
			return fmt.Errorf("failed to reload ingredient %d: %w", delta.ID, err)
		}
		newStock = ingredient.Stock

		movement := models.IngredientMovement{
			IngredientID: delta.ID,
			Type:         movementType,
			Quantity:     delta.Delta,
			PreviousQty:  previousStock,
			NewQty:       newStock,
			Reference:    reference,
			Reason:       reason,
			Notes:        notes,
		}
		return tx.Create(&movement).Error
	})

	return newStock, err
}

// GetLowStockIngredients gets ingredients with stock at or below minimum
func (s *StockService) GetLowStockIngredients() ([]models.Ingredient, error) {
	var ingredients []models.Ingredient
	err := s.db.Where("is_active = ? AND stock <= min_stock", true).
		Order("stock ASC").
		Find(&ingredients).Error
	return ingredients, err
}

// GetIngredientMovements retrieves all movements for an ingredient
func (s *StockService) GetIngredientMovements(ingredientID uint) ([]models.IngredientMovement, error) {
	var movements []models.IngredientMovement
	err := s.db.Where("ingredient_id = ?", ingredientID).
		Order("created_at DESC").
		Find(&movements).Error
	return movements, err
}
