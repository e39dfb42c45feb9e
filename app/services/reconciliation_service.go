package services

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/klaker79/MindLoop-CostOS-sub001/app/database"
	"github.com/klaker79/MindLoop-CostOS-sub001/app/models"
)

// BalanceEpsilon is the tolerance under which a split set is considered to
// exactly cover the observed stock difference.
const BalanceEpsilon = 0.01

// Problems reported for a reconciliation entry
const (
	ProblemUnbalanced      = "descuadre"
	ProblemInvalidQuantity = "cantidad_invalida"
	ProblemInvalidReason   = "motivo_invalido"
)

// ReconciliationSession holds one in-progress reconciliation: the captured
// theoretical/counted pairs and the causal splits explaining each gap. It
// exists only until committed or cancelled.
type ReconciliationSession struct {
	ID      string                 `json:"id"`
	Entries []models.StockSnapshot `json:"entradas"`
}

// EntryIssue identifies one entry blocking a commit and how far it is from
// balancing.
type EntryIssue struct {
	IngredientID uint    `json:"ingrediente_id"`
	Remaining    float64 `json:"sin_asignar"`
	Problem      string  `json:"problema"`
}

// ValidationError reports every offending entry of a reconciliation batch,
// not just the first one. The batch is rejected as a whole.
type ValidationError struct {
	Issues []EntryIssue
}

func (e *ValidationError) Error() string {
	ids := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		ids[i] = fmt.Sprintf("%d (%s, sin asignar %.2f)", issue.IngredientID, issue.Problem, issue.Remaining)
	}
	return "reconciliation not balanced for ingredients: " + strings.Join(ids, ", ")
}

// ReconciliationService reconciles theoretical stock against physical
// counts and commits the causally explained differences.
type ReconciliationService struct {
	db *gorm.DB
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService() *ReconciliationService {
	return &ReconciliationService{
		db: database.GetDB(),
	}
}

// BuildSession starts a reconciliation session from theoretical/counted
// pairs. Entries with a discrepancy and no splits get one proposed split
// covering the whole difference: "caducidad" for shortages, "error_conteo"
// for surpluses. Proposals are starting points; the caller may add, edit or
// remove splits freely before committing.
func (s *ReconciliationService) BuildSession(entries []models.StockSnapshot) *ReconciliationSession {
	session := &ReconciliationSession{
		ID:      uuid.NewString(),
		Entries: make([]models.StockSnapshot, len(entries)),
	}
	copy(session.Entries, entries)

	for i := range session.Entries {
		entry := &session.Entries[i]
		diff := entry.Diff()
		if len(entry.Splits) > 0 || math.Abs(diff) < BalanceEpsilon {
			continue
		}

		reason := models.ReasonExpiry
		if diff > 0 {
			reason = models.ReasonCountError
		}
		entry.Splits = []models.AdjustmentSplit{{
			Quantity: math.Abs(diff),
			Reason:   reason,
		}}
	}

	return session
}

// Validate checks every entry of the session. An entry is balanced iff the
// sum of its split magnitudes equals the absolute stock difference within
// BalanceEpsilon; split magnitudes must be positive and reasons must belong
// to the closed set. Returns one issue per offending entry.
func (s *ReconciliationService) Validate(session *ReconciliationSession) []EntryIssue {
	var issues []EntryIssue

	for _, entry := range session.Entries {
		diff := entry.Diff()

		var allocated float64
		problem := ""
		for _, split := range entry.Splits {
			if split.Quantity <= 0 {
				problem = ProblemInvalidQuantity
			}
			if !models.ValidAdjustmentReason(split.Reason) {
				problem = ProblemInvalidReason
			}
			allocated += split.Quantity
		}

		remaining := math.Abs(diff) - allocated
		if problem == "" && math.Abs(remaining) >= BalanceEpsilon {
			problem = ProblemUnbalanced
		}

		if problem != "" {
			issues = append(issues, EntryIssue{
				IngredientID: entry.IngredientID,
				Remaining:    remaining,
				Problem:      problem,
			})
		}
	}

	return issues
}

// BuildCommit translates a balanced session into the signed commit payload.
// Splits are entered as positive magnitudes; the sign of the original
// difference is reapplied here: shortages persist as negative quantities
// (stock leaving), surpluses as positive (stock found).
func (s *ReconciliationService) BuildCommit(session *ReconciliationSession) (*models.ReconciliationCommit, error) {
	if issues := s.Validate(session); len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}

	commit := &models.ReconciliationCommit{
		Snapshots: session.Entries,
	}

	for _, entry := range session.Entries {
		sign := 1.0
		if entry.Diff() < 0 {
			sign = -1.0
		}
		for _, split := range entry.Splits {
			commit.Adjustments = append(commit.Adjustments, models.Adjustment{
				IngredientID: entry.IngredientID,
				Quantity:     sign * split.Quantity,
				Reason:       split.Reason,
				Notes:        split.Notes,
			})
		}
		commit.FinalStock = append(commit.FinalStock, models.FinalStock{
			ID:    entry.IngredientID,
			Stock: entry.CountedStock,
		})
	}

	return commit, nil
}

// Commit validates the whole batch and, only if every entry balances,
// persists it in one transaction: each ingredient's stock becomes its
// counted value (the new ground truth) and every adjustment lands as a
// signed shrinkage movement for the audit history. This is the only path by
// which counted-stock corrections reach storage.
func (s *ReconciliationService) Commit(session *ReconciliationSession) (*models.ReconciliationCommit, error) {
	commit, err := s.BuildCommit(session)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Stock levels before the commit, so each movement carries its
		// previous/new trail.
		running := make(map[uint]float64, len(commit.FinalStock))

		for _, final := range commit.FinalStock {
			var ingredient models.Ingredient
			if err := tx.First(&ingredient, final.ID).Error; err != nil {
				return fmt.Errorf("ingredient %d not found: %w", final.ID, err)
			}
			running[final.ID] = ingredient.Stock

			if err := tx.Model(&models.Ingredient{}).
				Where("id = ?", final.ID).
				Update("stock", final.Stock).Error; err != nil {
				return fmt.Errorf("failed to set counted stock for ingredient %d: %w", final.ID, err)
			}
		}

		for _, adjustment := range commit.Adjustments {
			previous := running[adjustment.IngredientID]
			next := previous + adjustment.Quantity
			running[adjustment.IngredientID] = next

			movement := models.IngredientMovement{
				IngredientID: adjustment.IngredientID,
				Type:         models.MovementShrinkage,
				Quantity:     adjustment.Quantity,
				PreviousQty:  previous,
				NewQty:       next,
				Reference:    fmt.Sprintf("Reconciliación %s", session.ID),
				Reason:       adjustment.Reason,
				Notes:        adjustment.Notes,
			}
			if err := tx.Create(&movement).Error; err != nil {
				return fmt.Errorf("failed to record adjustment for ingredient %d: %w", adjustment.IngredientID, err)
			}
		}

		return s.deleteDraftTx(tx, session.ID)
	})
	if err != nil {
		return nil, err
	}

	return commit, nil
}

// SaveDraft persists an in-progress session so an interrupted count can be
// resumed later.
func (s *ReconciliationService) SaveDraft(session *ReconciliationSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("could not serialize reconciliation draft: %w", err)
	}

	draft := models.ReconciliationDraft{
		ID:      session.ID,
		Payload: string(payload),
	}
	return s.db.Save(&draft).Error
}

// LoadDraft restores a saved session. A corrupt payload is an error value,
// never a panic.
func (s *ReconciliationService) LoadDraft(id string) (*ReconciliationSession, error) {
	var draft models.ReconciliationDraft
	if err := s.db.First(&draft, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("draft %s not found: %w", id, err)
	}

	var session ReconciliationSession
	if err := json.Unmarshal([]byte(draft.Payload), &session); err != nil {
		return nil, fmt.Errorf("could not parse reconciliation draft %s: %w", id, err)
	}
	return &session, nil
}

func (s *ReconciliationService) deleteDraftTx(tx *gorm.DB, id string) error {
	return tx.Where("id = ?", id).Delete(&models.ReconciliationDraft{}).Error
}
