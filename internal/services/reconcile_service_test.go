package services

import (
	"context"
	"errors"
	"testing"

	"tally/internal/core"

	"github.com/google/uuid"
)

func TestImportStatementClassifiesSigns(t *testing.T) {
	store := newTestStore(t)
	f := seedOwner(t, store)
	ctx := context.Background()
	svc := NewReconcileService(store)

	records := []StatementRecord{
		{Description: "COFFEE SHOP", Date: core.NewDate(2024, 3, 3), Amount: core.Money{Cents: 450}},
		{Description: "Refund: returned jacket", Date: core.NewDate(2024, 3, 4), Amount: core.Money{Cents: 8_000}},
		{Description: "Monthly INTEREST", Date: core.NewDate(2024, 3, 31), Amount: core.Money{Cents: 120}},
	}
	n, err := svc.ImportStatement(ctx, f.ownerID, core.RoleChecking, records)
	if err != nil {
		t.Fatalf("ImportStatement: %v", err)
	}
	if n != 3 {
		t.Fatalf("staged = %d, want 3", n)
	}

	pending, err := svc.ListPending(ctx, f.ownerID, core.RoleChecking)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("pending = %d, want 3", len(pending))
	}
	wantCents := []int64{-450, 8_000, 120}
	for i, p := range pending {
		if p.Amount.Cents != wantCents[i] {
			t.Errorf("row %d amount = %d, want %d", i, p.Amount.Cents, wantCents[i])
		}
	}
}

func TestImportStatementIsAllOrNothing(t *testing.T) {
	store := newTestStore(t)
	f := seedOwner(t, store)
	ctx := context.Background()
	svc := NewReconcileService(store)

	records := []StatementRecord{
		{Description: "valid row", Date: core.NewDate(2024, 3, 3), Amount: core.Money{Cents: 450}},
		{Description: "   ", Date: core.NewDate(2024, 3, 4), Amount: core.Money{Cents: 100}},
	}
	_, err := svc.ImportStatement(ctx, f.ownerID, core.RoleChecking, records)
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}

	pending, err := svc.ListPending(ctx, f.ownerID, core.RoleChecking)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending = %d, want 0 after aborted import", len(pending))
	}
}

func TestIgnorePending(t *testing.T) {
	store := newTestStore(t)
	f := seedOwner(t, store)
	ctx := context.Background()
	svc := NewReconcileService(store)

	if _, err := svc.ImportStatement(ctx, f.ownerID, core.RoleChecking, []StatementRecord{
		{Description: "a", Date: core.NewDate(2024, 3, 1), Amount: core.Money{Cents: 100}},
		{Description: "b", Date: core.NewDate(2024, 3, 2), Amount: core.Money{Cents: 200}},
	}); err != nil {
		t.Fatalf("ImportStatement: %v", err)
	}
	pending, _ := svc.ListPending(ctx, f.ownerID, core.RoleChecking)

	if _, err := svc.IgnorePending(ctx, f.ownerID, nil); !errors.Is(err, core.ErrValidation) {
		t.Errorf("empty ids err = %v, want ErrValidation", err)
	}
	if _, err := svc.IgnorePending(ctx, f.ownerID, []uuid.UUID{uuid.New()}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown id err = %v, want ErrNotFound", err)
	}

	// Partial match deletes the known row and reports the count.
	n, err := svc.IgnorePending(ctx, f.ownerID, []uuid.UUID{pending[0].ID, uuid.New()})
	if err != nil {
		t.Fatalf("IgnorePending: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
	left, _ := svc.ListPending(ctx, f.ownerID, core.RoleChecking)
	if len(left) != 1 || left[0].ID != pending[1].ID {
		t.Errorf("wrong row survived the ignore")
	}
}

func TestFinalizePendingConsumesOnce(t *testing.T) {
	store := newTestStore(t)
	f := seedOwner(t, store)
	ctx := context.Background()
	svc := NewReconcileService(store)

	if _, err := svc.ImportStatement(ctx, f.ownerID, core.RoleChecking, []StatementRecord{
		{Description: "groceries run", Date: core.NewDate(2024, 3, 7), Amount: core.Money{Cents: 3_300}},
	}); err != nil {
		t.Fatalf("ImportStatement: %v", err)
	}
	pending, _ := svc.ListPending(ctx, f.ownerID, core.RoleChecking)
	item := FinalizeItem{PendingID: pending[0].ID, AccountID: f.checking.ID, CategoryID: f.cash.ID}

	n, err := svc.FinalizePending(ctx, f.ownerID, []FinalizeItem{item})
	if err != nil {
		t.Fatalf("FinalizePending: %v", err)
	}
	if n != 1 {
		t.Fatalf("finalized = %d, want 1", n)
	}

	txs, err := NewTransactionService(store).ListByMonth(ctx, f.ownerID, f.checking.ID, 2024, 3)
	if err != nil {
		t.Fatalf("ListByMonth: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("transactions = %d, want 1", len(txs))
	}
	if txs[0].Amount.Cents != -3_300 {
		t.Errorf("finalized amount = %d, want classified -3300", txs[0].Amount.Cents)
	}
	if txs[0].Description != "groceries run" {
		t.Errorf("description = %q", txs[0].Description)
	}

	// The staged row is gone and a replay finalizes nothing.
	left, _ := svc.ListPending(ctx, f.ownerID, core.RoleChecking)
	if len(left) != 0 {
		t.Fatalf("pending = %d, want 0 after finalize", len(left))
	}
	n, err = svc.FinalizePending(ctx, f.ownerID, []FinalizeItem{item})
	if err != nil {
		t.Fatalf("replay FinalizePending: %v", err)
	}
	if n != 0 {
		t.Errorf("replay finalized = %d, want 0", n)
	}
	txs, _ = NewTransactionService(store).ListByMonth(ctx, f.ownerID, f.checking.ID, 2024, 3)
	if len(txs) != 1 {
		t.Errorf("transactions = %d after replay, want still 1", len(txs))
	}
}

func TestFinalizePendingItemsAreIndependent(t *testing.T) {
	store := newTestStore(t)
	f := seedOwner(t, store)
	ctx := context.Background()
	svc := NewReconcileService(store)

	if _, err := svc.ImportStatement(ctx, f.ownerID, core.RoleChecking, []StatementRecord{
		{Description: "good", Date: core.NewDate(2024, 3, 1), Amount: core.Money{Cents: 100}},
		{Description: "also good", Date: core.NewDate(2024, 3, 2), Amount: core.Money{Cents: 200}},
	}); err != nil {
		t.Fatalf("ImportStatement: %v", err)
	}
	pending, _ := svc.ListPending(ctx, f.ownerID, core.RoleChecking)

	items := []FinalizeItem{
		{PendingID: pending[0].ID, AccountID: f.checking.ID, CategoryID: f.cash.ID},
		{PendingID: uuid.New(), AccountID: f.checking.ID, CategoryID: f.cash.ID}, // unknown id
		{PendingID: pending[1].ID, AccountID: f.checking.ID, CategoryID: f.cash.ID},
	}
	n, err := svc.FinalizePending(ctx, f.ownerID, items)
	if err != nil {
		t.Fatalf("FinalizePending: %v", err)
	}
	if n != 2 {
		t.Errorf("finalized = %d, want 2 despite the bad item", n)
	}
}
