package services

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/klaker79/MindLoop-CostOS-sub001/app/database"
	"github.com/klaker79/MindLoop-CostOS-sub001/app/models"
)

// SalesService records sales and deducts the theoretical ingredient
// consumption they imply. Theoretical stock is what reconciliation later
// compares against the physical count.
type SalesService struct {
	db *gorm.DB
}

// NewSalesService creates a new sales service
func NewSalesService() *SalesService {
	return &SalesService{
		db: database.GetDB(),
	}
}

// RecordSale records one sale and deducts each recipe-line ingredient from
// stock. Low or exhausted stock produces warnings, never blocks the sale.
func (s *SalesService) RecordSale(recipeID uint, quantity, total float64, soldAt time.Time) (*models.Sale, []string, error) {
	var warnings []string

	sale := &models.Sale{
		RecipeID: recipeID,
		Quantity: quantity,
		Total:    total,
		SoldAt:   soldAt,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.Preload("Lines").First(&recipe, recipeID).Error; err != nil {
			return fmt.Errorf("recipe %d not found: %w", recipeID, err)
		}

		if err := tx.Create(sale).Error; err != nil {
			return err
		}

		for _, line := range recipe.Lines {
			totalQuantity := line.Quantity * quantity

			var ingredient models.Ingredient
			if err := tx.First(&ingredient, line.IngredientID).Error; err != nil {
				// Deleted ingredients are skipped, not fatal to the sale.
				log.Printf("Error loading ingredient %d: %v", line.IngredientID, err)
				continue
			}

			previousStock := ingredient.Stock

			if err := tx.Model(&models.Ingredient{}).
				Where("id = ?", line.IngredientID).
				Update("stock", gorm.Expr("stock - ?", totalQuantity)).Error; err != nil {
				return fmt.Errorf("failed to deduct stock for ingredient %d: %w", line.IngredientID, err)
			}

			if err := tx.First(&ingredient, line.IngredientID).Error; err != nil {
				return fmt.Errorf("failed to reload ingredient %d: %w", line.IngredientID, err)
			}

			if ingredient.Stock <= 0 {
				warnings = append(warnings, fmt.Sprintf(
					"AGOTADO: %s (quedan %.2f %s)",
					ingredient.Name, ingredient.Stock, ingredient.Unit,
				))
			} else if ingredient.Stock <= ingredient.MinStock {
				warnings = append(warnings, fmt.Sprintf(
					"STOCK BAJO: %s (quedan %.2f %s)",
					ingredient.Name, ingredient.Stock, ingredient.Unit,
				))
			}

			movement := models.IngredientMovement{
				IngredientID: line.IngredientID,
				Type:         models.MovementSale,
				Quantity:     -totalQuantity,
				PreviousQty:  previousStock,
				NewQty:       ingredient.Stock,
				Reference:    fmt.Sprintf("Venta receta %d x %.2f", recipeID, quantity),
			}
			if err := tx.Create(&movement).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return sale, warnings, nil
}

// DeleteSale removes a sale and restores the ingredient stock it consumed.
func (s *SalesService) DeleteSale(saleID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var sale models.Sale
		if err := tx.First(&sale, saleID).Error; err != nil {
			return fmt.Errorf("sale %d not found: %w", saleID, err)
		}

		var recipe models.Recipe
		if err := tx.Preload("Lines").First(&recipe, sale.RecipeID).Error; err == nil {
			for _, line := range recipe.Lines {
				totalQuantity := line.Quantity * sale.Quantity

				var ingredient models.Ingredient
				if err := tx.First(&ingredient, line.IngredientID).Error; err != nil {
					log.Printf("Error loading ingredient %d: %v", line.IngredientID, err)
					continue
				}

				previousStock := ingredient.Stock

				if err := tx.Model(&models.Ingredient{}).
					Where("id = ?", line.IngredientID).
					Update("stock", gorm.Expr("stock + ?", totalQuantity)).Error; err != nil {
					return fmt.Errorf("failed to restore stock for ingredient %d: %w", line.IngredientID, err)
				}

				movement := models.IngredientMovement{
					IngredientID: line.IngredientID,
					Type:         models.MovementAdjustment,
					Quantity:     totalQuantity,
					PreviousQty:  previousStock,
					NewQty:       previousStock + totalQuantity,
					Reference:    fmt.Sprintf("Venta %d eliminada", saleID),
				}
				if err := tx.Create(&movement).Error; err != nil {
					return err
				}
			}
		}

		return tx.Delete(&models.Sale{}, saleID).Error
	})
}

// GetSalesInRange retrieves the sales inside a resolved period.
func (s *SalesService) GetSalesInRange(period DateRange) ([]models.Sale, error) {
	var sales []models.Sale
	err := s.db.Where("sold_at BETWEEN ? AND ?", period.Start, period.End).
		Order("sold_at DESC").
		Find(&sales).Error
	return sales, err
}
