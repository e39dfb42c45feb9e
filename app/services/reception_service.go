package services

import (
	"fmt"
	"log"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/klaker79/MindLoop-CostOS-sub001/app/database"
	"github.com/klaker79/MindLoop-CostOS-sub001/app/models"
)

// VarianceEpsilon is the tolerance above which an ordered/received
// difference flags a line as "varianza".
const VarianceEpsilon = 0.01

// LineReception is the computed reception picture for one order line.
// Variances are nil for not-delivered lines: "not applicable" is distinct
// from "no variance".
type LineReception struct {
	LineID           uint     `json:"id"`
	IngredientID     uint     `json:"ingrediente_id"`
	QuantityVariance *float64 `json:"varianza_cantidad,omitempty"`
	PriceVariance    *float64 `json:"varianza_precio,omitempty"`
	Status           string   `json:"estado"`
	Subtotal         float64  `json:"subtotal"`
}

// ReceptionResult reports a reception attempt: computed totals, per-line
// variances, and the mixed outcome of the stock delta batch. Received is
// true only when every delta applied and the order transitioned.
type ReceptionResult struct {
	OrderID       uint                   `json:"pedido_id"`
	Lines         []LineReception        `json:"lineas"`
	TotalOrdered  float64                `json:"total_pedido"`
	TotalReceived float64                `json:"total_recibido"`
	OrderVariance float64                `json:"varianza"`
	Deltas        models.BulkDeltaResult `json:"deltas"`
	Received      bool                   `json:"recibido"`
}

// ReceptionService processes purchase-order receptions: variance
// computation, additive stock application, and the one-shot
// pendiente → recibido transition.
type ReceptionService struct {
	db *gorm.DB
}

// NewReceptionService creates a new reception service
func NewReceptionService() *ReceptionService {
	return &ReceptionService{
		db: database.GetDB(),
	}
}

// formatSize returns how many stock units one priced unit of the line
// represents. Ingredients bought by format (e.g. "caja 24 uds") carry their
// prices per format; everything else is priced per stock unit.
func formatSize(ingredient *models.Ingredient) float64 {
	if ingredient != nil && ingredient.QtyPerFormat > 0 {
		return ingredient.QtyPerFormat
	}
	return 1
}

// AnnotateLine computes one line's variances and resolves its status. A
// line auto-flags to "varianza" when either variance exceeds the epsilon,
// unless it was explicitly marked not-delivered, in which case it
// contributes nothing to totals and its variances are not applicable.
func (s *ReceptionService) AnnotateLine(line *models.OrderLine, ingredient *models.Ingredient) LineReception {
	reception := LineReception{
		LineID:       line.ID,
		IngredientID: line.IngredientID,
		Status:       line.Status,
	}

	if line.Status == models.LineStatusNotDelivered {
		reception.Subtotal = 0
		return reception
	}

	qtyVariance := line.Received - line.Ordered
	priceVariance := line.RealPrice - line.OrderedPrice
	reception.QuantityVariance = &qtyVariance
	reception.PriceVariance = &priceVariance

	if math.Abs(qtyVariance) > VarianceEpsilon || math.Abs(priceVariance) > VarianceEpsilon {
		reception.Status = models.LineStatusVariance
	} else {
		reception.Status = models.LineStatusOK
	}
	line.Status = reception.Status

	reception.Subtotal = line.Received * line.RealPrice / formatSize(ingredient)
	return reception
}

// ComputeReception annotates every line and derives the order totals.
// totalOrdered covers all lines; totalReceived only lines that were
// actually delivered.
func (s *ReceptionService) ComputeReception(order *models.PurchaseOrder, ingredients map[uint]*models.Ingredient) *ReceptionResult {
	result := &ReceptionResult{OrderID: order.ID}

	for i := range order.Lines {
		line := &order.Lines[i]
		ingredient := ingredients[line.IngredientID]
		reception := s.AnnotateLine(line, ingredient)

		result.TotalOrdered += line.Ordered * line.OrderedPrice / formatSize(ingredient)
		result.TotalReceived += reception.Subtotal
		result.Lines = append(result.Lines, reception)
	}

	result.OrderVariance = result.TotalReceived - result.TotalOrdered
	return result
}

// BuildStockDeltas emits one additive delta per line that actually brought
// stock in: received quantity above zero and not marked not-delivered.
func (s *ReceptionService) BuildStockDeltas(order *models.PurchaseOrder) []models.StockDelta {
	var deltas []models.StockDelta
	for _, line := range order.Lines {
		if line.Status == models.LineStatusNotDelivered || line.Received <= 0 {
			continue
		}
		deltas = append(deltas, models.StockDelta{
			ID:    line.IngredientID,
			Delta: line.Received,
		})
	}
	return deltas
}

// ReceiveOrder applies a reception. Each line's stock delta runs in its own
// transaction (stock add, weighted-average price update, compra movement),
// so successes stay applied when siblings fail. The order transitions to
// recibido only when every delta landed; on any failure it stays pendiente.
// The caller resolves the failed lines from the returned report and re-runs
// only the remainder.
func (s *ReceptionService) ReceiveOrder(order *models.PurchaseOrder) (*ReceptionResult, error) {
	if order.Status != models.OrderStatusPending {
		return nil, fmt.Errorf("order %d is not pending (status %s)", order.ID, order.Status)
	}

	// Re-check against storage so a stale in-memory copy cannot re-apply an
	// already received order. A failed read refuses the reception; proceeding
	// blind would bypass the guard.
	if order.ID != 0 {
		var current models.PurchaseOrder
		if err := s.db.First(&current, order.ID).Error; err != nil {
			return nil, fmt.Errorf("could not verify status of order %d: %w", order.ID, err)
		}
		if current.Status != models.OrderStatusPending {
			return nil, fmt.Errorf("order %d is not pending (status %s)", order.ID, current.Status)
		}
	}

	result := s.ComputeReception(order, s.loadOrderIngredients(order))

	for i := range order.Lines {
		line := &order.Lines[i]
		if line.Status == models.LineStatusNotDelivered || line.Received <= 0 {
			continue
		}

		newStock, err := s.applyLine(order, line)
		if err != nil {
			log.Printf("Error applying reception line for ingredient %d: %v", line.IngredientID, err)
			result.Deltas.Failed = append(result.Deltas.Failed, models.DeltaError{
				ID:    line.IngredientID,
				Error: err.Error(),
			})
			continue
		}
		result.Deltas.Applied = append(result.Deltas.Applied, models.DeltaApplied{
			ID:       line.IngredientID,
			Delta:    line.Received,
			NewStock: newStock,
		})
	}

	// Persist line annotations and totals regardless of the outcome; the
	// status flip is the only thing withheld on partial failure.
	order.TotalOrdered = result.TotalOrdered
	order.TotalReceived = result.TotalReceived
	order.Variance = result.OrderVariance

	if result.Deltas.AllApplied() {
		now := time.Now()
		order.Status = models.OrderStatusReceived
		order.ReceivedAt = &now
		result.Received = true
	}

	if err := s.saveOrder(order); err != nil {
		return result, fmt.Errorf("failed to save order %d: %w", order.ID, err)
	}

	return result, nil
}

// loadOrderIngredients fetches the ingredients the order's lines reference.
// Missing ones simply stay absent from the map; the per-line application
// reports them as hard failures.
func (s *ReceptionService) loadOrderIngredients(order *models.PurchaseOrder) map[uint]*models.Ingredient {
	ids := make([]uint, 0, len(order.Lines))
	for _, line := range order.Lines {
		ids = append(ids, line.IngredientID)
	}

	var ingredients []models.Ingredient
	if err := s.db.Where("id IN ?", ids).Find(&ingredients).Error; err != nil {
		log.Printf("Error loading ingredients for order %d: %v", order.ID, err)
		return nil
	}

	index := make(map[uint]*models.Ingredient, len(ingredients))
	for i := range ingredients {
		index[ingredients[i].ID] = &ingredients[i]
	}
	return index
}

// applyLine adds the received quantity to stock, folds the real price into
// the ingredient's running weighted-average price, and records the compra
// movement, all in one transaction.
func (s *ReceptionService) applyLine(order *models.PurchaseOrder, line *models.OrderLine) (float64, error) {
	var newStock float64

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var ingredient models.Ingredient
		if err := tx.First(&ingredient, line.IngredientID).Error; err != nil {
			return fmt.Errorf("ingredient %d not found: %w", line.IngredientID, err)
		}

		previousStock := ingredient.Stock

		if err := tx.Model(&models.Ingredient{}).
			Where("id = ?", line.IngredientID).
			Update("stock", gorm.Expr("stock + ?", line.Received)).Error; err != nil {
			return fmt.Errorf("failed to update stock for ingredient %d: %w", line.IngredientID, err)
		}

		if err := tx.First(&ingredient, line.IngredientID).Error; err != nil {
			return fmt.Errorf("failed to reload ingredient %d: %w", line.IngredientID, err)
		}
		newStock = ingredient.Stock

		unitPrice := line.RealPrice / formatSize(&ingredient)
		if price, ok := weightedAveragePrice(previousStock, ingredient.Price, line.Received, unitPrice); ok {
			if err := tx.Model(&models.Ingredient{}).
				Where("id = ?", line.IngredientID).
				Update("price", price).Error; err != nil {
				return fmt.Errorf("failed to update price for ingredient %d: %w", line.IngredientID, err)
			}
		}

		movement := models.IngredientMovement{
			IngredientID: line.IngredientID,
			Type:         models.MovementPurchase,
			Quantity:     line.Received,
			PreviousQty:  previousStock,
			NewQty:       newStock,
			Reference:    fmt.Sprintf("Pedido %d", order.ID),
		}
		return tx.Create(&movement).Error
	})

	return newStock, err
}

// weightedAveragePrice folds a reception into the running average unit
// price. Skipped when the entered price is not usable or the combined
// quantity would not be positive.
func weightedAveragePrice(prevStock, prevPrice, qty, price float64) (float64, bool) {
	if price <= 0 || qty <= 0 {
		return 0, false
	}
	if prevStock <= 0 || prevPrice <= 0 {
		return price, true
	}
	return (prevStock*prevPrice + qty*price) / (prevStock + qty), true
}

func (s *ReceptionService) saveOrder(order *models.PurchaseOrder) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for i := range order.Lines {
			line := &order.Lines[i]
			if line.ID == 0 {
				continue
			}
			if err := tx.Model(&models.OrderLine{}).
				Where("id = ?", line.ID).
				Updates(map[string]interface{}{
					"received":   line.Received,
					"real_price": line.RealPrice,
					"status":     line.Status,
				}).Error; err != nil {
				return err
			}
		}

		return tx.Model(&models.PurchaseOrder{}).
			Where("id = ?", order.ID).
			Updates(map[string]interface{}{
				"status":         order.Status,
				"received_at":    order.ReceivedAt,
				"total_ordered":  order.TotalOrdered,
				"total_received": order.TotalReceived,
				"variance":       order.Variance,
			}).Error
	})
}
