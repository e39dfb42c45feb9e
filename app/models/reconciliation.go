package models

import "time"

// Adjustment reason codes. Closed set; anything else is a validation error.
const (
	ReasonExpiry       = "caducidad"
	ReasonDonation     = "invitacion"
	ReasonAccident     = "accidente"
	ReasonKitchenError = "error_cocina"
	ReasonCountError   = "error_conteo"
	ReasonOther        = "otro"
)

// AdjustmentReasons lists the valid reason codes for a split.
var AdjustmentReasons = []string{
	ReasonExpiry,
	ReasonDonation,
	ReasonAccident,
	ReasonKitchenError,
	ReasonCountError,
	ReasonOther,
}

// ValidAdjustmentReason reports whether the given code belongs to the
// closed reason set.
func ValidAdjustmentReason(reason string) bool {
	for _, r := range AdjustmentReasons {
		if r == reason {
			return true
		}
	}
	return false
}

// AdjustmentSplit explains part of a stock discrepancy with a causal reason.
// Quantity is always a positive magnitude; the sign is reapplied from the
// snapshot's diff at commit time.
type AdjustmentSplit struct {
	Quantity float64 `json:"cantidad"`
	Reason   string  `json:"motivo"`
	Notes    string  `json:"notas"`
}

// StockSnapshot is one ingredient's theoretical vs. counted stock pair,
// captured for the duration of a reconciliation session and discarded once
// the session is applied or cancelled.
type StockSnapshot struct {
	IngredientID     uint              `json:"ingrediente_id"`
	TheoreticalStock float64           `json:"stock_teorico"`
	CountedStock     float64           `json:"stock_real"`
	Splits           []AdjustmentSplit `json:"desgloses"`
}

// Diff is countedStock − theoreticalStock: negative for shortage, positive
// for surplus.
func (s StockSnapshot) Diff() float64 {
	return s.CountedStock - s.TheoreticalStock
}

// Adjustment is one signed, persisted shrinkage record: negative quantity
// for stock leaving, positive for stock found.
type Adjustment struct {
	IngredientID uint    `json:"ingrediente_id"`
	Quantity     float64 `json:"cantidad"`
	Reason       string  `json:"motivo"`
	Notes        string  `json:"notas"`
}

// FinalStock carries the counted ground truth an ingredient's stock is set
// to on commit.
type FinalStock struct {
	ID    uint    `json:"id"`
	Stock float64 `json:"stock_real"`
}

// ReconciliationCommit is the full commit payload handed to persistence.
type ReconciliationCommit struct {
	Adjustments []Adjustment    `json:"adjustments"`
	Snapshots   []StockSnapshot `json:"snapshots"`
	FinalStock  []FinalStock    `json:"finalStock"`
}

// ReconciliationDraft stores an in-progress reconciliation session as a JSON
// payload so an interrupted count can be resumed.
type ReconciliationDraft struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Payload   string    `gorm:"type:text" json:"payload"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for ReconciliationDraft
func (ReconciliationDraft) TableName() string {
	return "reconciliation_drafts"
}
