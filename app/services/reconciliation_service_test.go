package services

import (
	"errors"
	"testing"

	"github.com/klaker79/MindLoop-CostOS-sub001/app/models"
)

func TestBuildSessionProposals(t *testing.T) {
	svc := &ReconciliationService{}

	session := svc.BuildSession([]models.StockSnapshot{
		{IngredientID: 1, TheoreticalStock: 10, CountedStock: 7},    // shortage
		{IngredientID: 2, TheoreticalStock: 5, CountedStock: 6.5},   // surplus
		{IngredientID: 3, TheoreticalStock: 4, CountedStock: 4},     // balanced
		{IngredientID: 4, TheoreticalStock: 8, CountedStock: 8.005}, // inside epsilon
	})

	if session.ID == "" {
		t.Error("session should get an id")
	}

	shortage := session.Entries[0]
	if len(shortage.Splits) != 1 {
		t.Fatalf("shortage should get one proposed split, got %d", len(shortage.Splits))
	}
	if shortage.Splits[0].Reason != models.ReasonExpiry {
		t.Errorf("shortage proposal reason = %q, want %q", shortage.Splits[0].Reason, models.ReasonExpiry)
	}
	if !almostEqual(shortage.Splits[0].Quantity, 3) {
		t.Errorf("shortage proposal quantity = %v, want 3", shortage.Splits[0].Quantity)
	}

	surplus := session.Entries[1]
	if len(surplus.Splits) != 1 || surplus.Splits[0].Reason != models.ReasonCountError {
		t.Errorf("surplus should propose one %q split, got %+v", models.ReasonCountError, surplus.Splits)
	}
	if !almostEqual(surplus.Splits[0].Quantity, 1.5) {
		t.Errorf("surplus proposal quantity = %v, want 1.5", surplus.Splits[0].Quantity)
	}

	if len(session.Entries[2].Splits) != 0 {
		t.Error("balanced entry should get no proposal")
	}
	if len(session.Entries[3].Splits) != 0 {
		t.Error("difference inside epsilon should get no proposal")
	}
}

func TestValidate(t *testing.T) {
	svc := &ReconciliationService{}

	tests := []struct {
		name        string
		entry       models.StockSnapshot
		wantProblem string
	}{
		{
			"balanced single split",
			models.StockSnapshot{IngredientID: 1, TheoreticalStock: 10, CountedStock: 7,
				Splits: []models.AdjustmentSplit{{Quantity: 3, Reason: models.ReasonExpiry}}},
			"",
		},
		{
			"balanced multi split",
			models.StockSnapshot{IngredientID: 1, TheoreticalStock: 10, CountedStock: 7,
				Splits: []models.AdjustmentSplit{
					{Quantity: 2, Reason: models.ReasonExpiry},
					{Quantity: 1, Reason: models.ReasonAccident},
				}},
			"",
		},
		{
			"within epsilon",
			models.StockSnapshot{IngredientID: 1, TheoreticalStock: 10, CountedStock: 7,
				Splits: []models.AdjustmentSplit{{Quantity: 3.005, Reason: models.ReasonExpiry}}},
			"",
		},
		{
			"unallocated remainder",
			models.StockSnapshot{IngredientID: 1, TheoreticalStock: 10, CountedStock: 7,
				Splits: []models.AdjustmentSplit{{Quantity: 2, Reason: models.ReasonExpiry}}},
			ProblemUnbalanced,
		},
		{
			"over allocated",
			models.StockSnapshot{IngredientID: 1, TheoreticalStock: 10, CountedStock: 7,
				Splits: []models.AdjustmentSplit{{Quantity: 4, Reason: models.ReasonExpiry}}},
			ProblemUnbalanced,
		},
		{
			"non positive magnitude",
			models.StockSnapshot{IngredientID: 1, TheoreticalStock: 10, CountedStock: 7,
				Splits: []models.AdjustmentSplit{
					{Quantity: -3, Reason: models.ReasonExpiry},
					{Quantity: 6, Reason: models.ReasonExpiry},
				}},
			ProblemInvalidQuantity,
		},
		{
			"unknown reason",
			models.StockSnapshot{IngredientID: 1, TheoreticalStock: 10, CountedStock: 7,
				Splits: []models.AdjustmentSplit{{Quantity: 3, Reason: "evaporacion"}}},
			ProblemInvalidReason,
		},
		{
			"no discrepancy and no splits",
			models.StockSnapshot{IngredientID: 1, TheoreticalStock: 5, CountedStock: 5},
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := svc.Validate(&ReconciliationSession{Entries: []models.StockSnapshot{tt.entry}})
			if tt.wantProblem == "" {
				if len(issues) != 0 {
					t.Errorf("expected no issues, got %+v", issues)
				}
				return
			}
			if len(issues) != 1 {
				t.Fatalf("expected 1 issue, got %+v", issues)
			}
			if issues[0].Problem != tt.wantProblem {
				t.Errorf("Problem = %q, want %q", issues[0].Problem, tt.wantProblem)
			}
		})
	}
}

func TestValidateReportsEveryOffendingEntry(t *testing.T) {
	svc := &ReconciliationService{}

	session := &ReconciliationSession{Entries: []models.StockSnapshot{
		{IngredientID: 1, TheoreticalStock: 10, CountedStock: 7,
			Splits: []models.AdjustmentSplit{{Quantity: 1, Reason: models.ReasonExpiry}}},
		{IngredientID: 2, TheoreticalStock: 5, CountedStock: 5},
		{IngredientID: 3, TheoreticalStock: 8, CountedStock: 9,
			Splits: []models.AdjustmentSplit{{Quantity: 0.2, Reason: models.ReasonCountError}}},
	}}

	issues := svc.Validate(session)
	if len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %+v", issues)
	}
	if issues[0].IngredientID != 1 || !almostEqual(issues[0].Remaining, 2) {
		t.Errorf("first issue = %+v, want ingredient 1 with 2 unallocated", issues[0])
	}
	if issues[1].IngredientID != 3 || !almostEqual(issues[1].Remaining, 0.8) {
		t.Errorf("second issue = %+v, want ingredient 3 with 0.8 unallocated", issues[1])
	}
}

func TestBuildCommitSignSemantics(t *testing.T) {
	svc := &ReconciliationService{}

	session := svc.BuildSession([]models.StockSnapshot{
		{IngredientID: 1, TheoreticalStock: 10, CountedStock: 7},
		{IngredientID: 2, TheoreticalStock: 5, CountedStock: 6},
	})

	commit, err := svc.BuildCommit(session)
	if err != nil {
		t.Fatal(err)
	}

	if len(commit.Adjustments) != 2 {
		t.Fatalf("expected 2 adjustments, got %d", len(commit.Adjustments))
	}
	// Shortage leaves stock: negative. Surplus finds stock: positive.
	if !almostEqual(commit.Adjustments[0].Quantity, -3) {
		t.Errorf("shortage adjustment = %v, want -3", commit.Adjustments[0].Quantity)
	}
	if !almostEqual(commit.Adjustments[1].Quantity, 1) {
		t.Errorf("surplus adjustment = %v, want +1", commit.Adjustments[1].Quantity)
	}

	if len(commit.FinalStock) != 2 {
		t.Fatalf("expected 2 final stock entries, got %d", len(commit.FinalStock))
	}
	if !almostEqual(commit.FinalStock[0].Stock, 7) || !almostEqual(commit.FinalStock[1].Stock, 6) {
		t.Errorf("final stock should be the counted values, got %+v", commit.FinalStock)
	}
}

func TestCommitRejectsWholeBatch(t *testing.T) {
	db := newTestDB(t)
	svc := &ReconciliationService{db: db}

	mustCreate(t, db, &models.Ingredient{ID: 1, Name: "Harina", Stock: 10})
	mustCreate(t, db, &models.Ingredient{ID: 2, Name: "Tomate", Stock: 5})

	session := svc.BuildSession([]models.StockSnapshot{
		{IngredientID: 1, TheoreticalStock: 10, CountedStock: 7},
	})
	// A second, unbalanced entry poisons the whole batch.
	session.Entries = append(session.Entries, models.StockSnapshot{
		IngredientID: 2, TheoreticalStock: 5, CountedStock: 3,
		Splits: []models.AdjustmentSplit{{Quantity: 0.5, Reason: models.ReasonAccident}},
	})

	_, err := svc.Commit(session)
	if err == nil {
		t.Fatal("expected the commit to be rejected")
	}

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected a *ValidationError, got %T: %v", err, err)
	}
	if len(validationErr.Issues) != 1 || validationErr.Issues[0].IngredientID != 2 {
		t.Errorf("issues = %+v, want the unbalanced ingredient 2", validationErr.Issues)
	}

	// Neither ingredient may have been touched, including the balanced one.
	if got := ingredientStock(t, db, 1); !almostEqual(got, 10) {
		t.Errorf("ingredient 1 stock = %v, want untouched 10", got)
	}
	if got := ingredientStock(t, db, 2); !almostEqual(got, 5) {
		t.Errorf("ingredient 2 stock = %v, want untouched 5", got)
	}
}

func TestCommitAppliesCountedStockAndMovements(t *testing.T) {
	db := newTestDB(t)
	svc := &ReconciliationService{db: db}

	mustCreate(t, db, &models.Ingredient{ID: 1, Name: "Harina", Stock: 10})
	mustCreate(t, db, &models.Ingredient{ID: 2, Name: "Tomate", Stock: 5})

	session := svc.BuildSession([]models.StockSnapshot{
		{IngredientID: 1, TheoreticalStock: 10, CountedStock: 7},
		{IngredientID: 2, TheoreticalStock: 5, CountedStock: 6},
	})

	commit, err := svc.Commit(session)
	if err != nil {
		t.Fatal(err)
	}

	if got := ingredientStock(t, db, 1); !almostEqual(got, 7) {
		t.Errorf("ingredient 1 stock = %v, want counted 7", got)
	}
	if got := ingredientStock(t, db, 2); !almostEqual(got, 6) {
		t.Errorf("ingredient 2 stock = %v, want counted 6", got)
	}

	var movements []models.IngredientMovement
	if err := db.Where("type = ?", models.MovementShrinkage).Order("ingredient_id ASC").Find(&movements).Error; err != nil {
		t.Fatal(err)
	}
	if len(movements) != 2 {
		t.Fatalf("expected 2 shrinkage movements, got %d", len(movements))
	}
	if !almostEqual(movements[0].Quantity, -3) || movements[0].Reason != models.ReasonExpiry {
		t.Errorf("movement 1 = %+v, want -3 caducidad", movements[0])
	}
	if !almostEqual(movements[0].PreviousQty, 10) || !almostEqual(movements[0].NewQty, 7) {
		t.Errorf("movement 1 trail = %v -> %v, want 10 -> 7", movements[0].PreviousQty, movements[0].NewQty)
	}
	if !almostEqual(movements[1].Quantity, 1) || movements[1].Reason != models.ReasonCountError {
		t.Errorf("movement 2 = %+v, want +1 error_conteo", movements[1])
	}
	if !almostEqual(movements[1].PreviousQty, 5) || !almostEqual(movements[1].NewQty, 6) {
		t.Errorf("movement 2 trail = %v -> %v, want 5 -> 6", movements[1].PreviousQty, movements[1].NewQty)
	}

	if len(commit.Snapshots) != 2 {
		t.Errorf("commit payload should carry the snapshots, got %d", len(commit.Snapshots))
	}
}

func TestCommitChainsSplitMovements(t *testing.T) {
	db := newTestDB(t)
	svc := &ReconciliationService{db: db}

	mustCreate(t, db, &models.Ingredient{ID: 1, Name: "Harina", Stock: 10})

	session := svc.BuildSession([]models.StockSnapshot{
		{IngredientID: 1, TheoreticalStock: 10, CountedStock: 6, Splits: []models.AdjustmentSplit{
			{Quantity: 3, Reason: models.ReasonExpiry},
			{Quantity: 1, Reason: models.ReasonAccident},
		}},
	})

	if _, err := svc.Commit(session); err != nil {
		t.Fatal(err)
	}

	var movements []models.IngredientMovement
	if err := db.Where("type = ?", models.MovementShrinkage).Order("id ASC").Find(&movements).Error; err != nil {
		t.Fatal(err)
	}
	if len(movements) != 2 {
		t.Fatalf("expected one movement per split, got %d", len(movements))
	}

	// Each split continues where the previous one left off.
	if !almostEqual(movements[0].PreviousQty, 10) || !almostEqual(movements[0].NewQty, 7) {
		t.Errorf("split 1 trail = %v -> %v, want 10 -> 7", movements[0].PreviousQty, movements[0].NewQty)
	}
	if !almostEqual(movements[1].PreviousQty, 7) || !almostEqual(movements[1].NewQty, 6) {
		t.Errorf("split 2 trail = %v -> %v, want 7 -> 6", movements[1].PreviousQty, movements[1].NewQty)
	}
}

func TestCommitFailsWhenIngredientMissing(t *testing.T) {
	db := newTestDB(t)
	svc := &ReconciliationService{db: db}

	mustCreate(t, db, &models.Ingredient{ID: 1, Name: "Harina", Stock: 10})

	session := svc.BuildSession([]models.StockSnapshot{
		{IngredientID: 1, TheoreticalStock: 10, CountedStock: 7},
		{IngredientID: 99, TheoreticalStock: 4, CountedStock: 2},
	})

	if _, err := svc.Commit(session); err == nil {
		t.Fatal("expected commit against a missing ingredient to fail")
	}

	// The transaction must roll back the balanced entry too.
	if got := ingredientStock(t, db, 1); !almostEqual(got, 10) {
		t.Errorf("ingredient 1 stock = %v, want rolled back 10", got)
	}
}

func TestDraftRoundTrip(t *testing.T) {
	db := newTestDB(t)
	svc := &ReconciliationService{db: db}

	session := svc.BuildSession([]models.StockSnapshot{
		{IngredientID: 1, TheoreticalStock: 10, CountedStock: 7},
	})

	if err := svc.SaveDraft(session); err != nil {
		t.Fatal(err)
	}

	restored, err := svc.LoadDraft(session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if restored.ID != session.ID || len(restored.Entries) != 1 {
		t.Errorf("restored session = %+v", restored)
	}
	if !almostEqual(restored.Entries[0].Splits[0].Quantity, 3) {
		t.Errorf("restored split quantity = %v, want 3", restored.Entries[0].Splits[0].Quantity)
	}
}

func TestLoadDraftCorruptPayload(t *testing.T) {
	db := newTestDB(t)
	svc := &ReconciliationService{db: db}

	mustCreate(t, db, &models.ReconciliationDraft{ID: "broken", Payload: "{not json"})

	if _, err := svc.LoadDraft("broken"); err == nil {
		t.Error("expected an error for a corrupt draft payload")
	}
}

func TestCommitRemovesDraft(t *testing.T) {
	db := newTestDB(t)
	svc := &ReconciliationService{db: db}

	mustCreate(t, db, &models.Ingredient{ID: 1, Name: "Harina", Stock: 10})

	session := svc.BuildSession([]models.StockSnapshot{
		{IngredientID: 1, TheoreticalStock: 10, CountedStock: 7},
	})
	if err := svc.SaveDraft(session); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Commit(session); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.LoadDraft(session.ID); err == nil {
		t.Error("draft should be gone after commit")
	}
}
