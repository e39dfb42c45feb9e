package services

import (
	"gorm.io/gorm"

	"github.com/klaker79/MindLoop-CostOS-sub001/app/database"
	"github.com/klaker79/MindLoop-CostOS-sub001/app/models"
)

// CatalogService handles ingredient, recipe, supplier and fixed-expense
// management. Stock itself is only ever touched through the delta paths in
// StockService and the reconciliation/reception commits.
type CatalogService struct {
	db *gorm.DB
}

// NewCatalogService creates a new catalog service
func NewCatalogService() *CatalogService {
	return &CatalogService{
		db: database.GetDB(),
	}
}

// CRUD Operations for Ingredients

// GetAllIngredients retrieves all ingredients
func (s *CatalogService) GetAllIngredients() ([]models.Ingredient, error) {
	var ingredients []models.Ingredient
	err := s.db.Order("name ASC").Find(&ingredients).Error
	return ingredients, err
}

// GetIngredient retrieves a single ingredient by ID
func (s *CatalogService) GetIngredient(id uint) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	err := s.db.First(&ingredient, id).Error
	return &ingredient, err
}

// CreateIngredient creates a new ingredient
func (s *CatalogService) CreateIngredient(ingredient *models.Ingredient) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ingredient).Error; err != nil {
			return err
		}

		// Create initial movement if stock > 0
		if ingredient.Stock > 0 {
			movement := models.IngredientMovement{
				IngredientID: ingredient.ID,
				Type:         models.MovementAdjustment,
				Quantity:     ingredient.Stock,
				PreviousQty:  0,
				NewQty:       ingredient.Stock,
				Reference:    "Stock inicial",
			}
			if err := tx.Create(&movement).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// UpdateIngredient updates an existing ingredient. A stock change through
// this path is recorded as a manual adjustment.
func (s *CatalogService) UpdateIngredient(ingredient *models.Ingredient) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var current models.Ingredient
		if err := tx.First(&current, ingredient.ID).Error; err != nil {
			return err
		}

		if current.Stock != ingredient.Stock {
			movement := models.IngredientMovement{
				IngredientID: ingredient.ID,
				Type:         models.MovementAdjustment,
				Quantity:     ingredient.Stock - current.Stock,
				PreviousQty:  current.Stock,
				NewQty:       ingredient.Stock,
				Reference:    "Ajuste manual",
			}
			if err := tx.Create(&movement).Error; err != nil {
				return err
			}
		}

		return tx.Save(ingredient).Error
	})
}

// DeleteIngredient deletes an ingredient and its recipe references
func (s *CatalogService) DeleteIngredient(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ingredient_id = ?", id).Delete(&models.RecipeLine{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Ingredient{}, id).Error
	})
}

// CRUD Operations for Recipes

// GetAllRecipes retrieves all recipes with their lines
func (s *CatalogService) GetAllRecipes() ([]models.Recipe, error) {
	var recipes []models.Recipe
	err := s.db.Preload("Lines").Order("name ASC").Find(&recipes).Error
	return recipes, err
}

// GetRecipe retrieves a single recipe by ID
func (s *CatalogService) GetRecipe(id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.Preload("Lines.Ingredient").First(&recipe, id).Error
	return &recipe, err
}

// CreateRecipe creates a new recipe with its lines
func (s *CatalogService) CreateRecipe(recipe *models.Recipe) error {
	return s.db.Create(recipe).Error
}

// SetRecipeLines sets all lines for a recipe (replaces existing)
func (s *CatalogService) SetRecipeLines(recipeID uint, lines []models.RecipeLine) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeLine{}).Error; err != nil {
			return err
		}

		for _, line := range lines {
			line.ID = 0
			line.RecipeID = recipeID
			if err := tx.Create(&line).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// DeleteRecipe deletes a recipe and its lines
func (s *CatalogService) DeleteRecipe(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeLine{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Recipe{}, id).Error
	})
}

// Suppliers and fixed expenses

// GetAllSuppliers retrieves all suppliers
func (s *CatalogService) GetAllSuppliers() ([]models.Supplier, error) {
	var suppliers []models.Supplier
	err := s.db.Order("name ASC").Find(&suppliers).Error
	return suppliers, err
}

// CreateSupplier creates a new supplier
func (s *CatalogService) CreateSupplier(supplier *models.Supplier) error {
	return s.db.Create(supplier).Error
}

// GetAllExpenses retrieves all fixed expenses
func (s *CatalogService) GetAllExpenses() ([]models.FixedExpense, error) {
	var expenses []models.FixedExpense
	err := s.db.Find(&expenses).Error
	return expenses, err
}

// SaveExpense creates or updates a fixed expense
func (s *CatalogService) SaveExpense(expense *models.FixedExpense) error {
	return s.db.Save(expense).Error
}

// DeleteExpense deletes a fixed expense
func (s *CatalogService) DeleteExpense(id uint) error {
	return s.db.Delete(&models.FixedExpense{}, id).Error
}
