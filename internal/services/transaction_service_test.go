package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"tally/internal/core"

	"github.com/google/uuid"
)

func TestCreateTransactionNormalizesSign(t *testing.T) {
	store := newTestStore(t)
	f := seedOwner(t, store)

	expense := addTx(t, store, f, f.checking, f.cash, 2_500, "lunch", core.NewDate(2024, 3, 5))
	if expense.Amount.Cents != -2_500 {
		t.Errorf("expense amount = %d, want -2500", expense.Amount.Cents)
	}

	income := addTx(t, store, f, f.checking, f.income, 2_500, "bonus", core.NewDate(2024, 3, 5))
	if income.Amount.Cents != 2_500 {
		t.Errorf("income amount = %d, want 2500", income.Amount.Cents)
	}
}

func TestCreateTransactionOwnershipChecks(t *testing.T) {
	store := newTestStore(t)
	f := seedOwner(t, store)
	other := seedOwner(t, store)
	ctx := context.Background()
	svc := NewTransactionService(store)
	amount := core.Money{Cents: 100}
	date := core.NewDate(2024, 3, 1)

	if _, err := svc.CreateTransaction(ctx, f.ownerID, other.checking.ID, f.cash.ID, amount, "x", date); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("foreign account err = %v, want ErrNotFound", err)
	}
	if _, err := svc.CreateTransaction(ctx, f.ownerID, f.checking.ID, other.cash.ID, amount, "x", date); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("foreign category err = %v, want ErrNotFound", err)
	}
	if _, err := svc.CreateTransaction(ctx, f.ownerID, f.checking.ID, f.cash.ID, core.Money{}, "x", date); !errors.Is(err, core.ErrValidation) {
		t.Errorf("zero amount err = %v, want ErrValidation", err)
	}
}

func TestUpdateTransactionReappliesSign(t *testing.T) {
	store := newTestStore(t)
	f := seedOwner(t, store)
	ctx := context.Background()
	svc := NewTransactionService(store)

	tx := addTx(t, store, f, f.checking, f.cash, 2_500, "lunch", core.NewDate(2024, 3, 5))

	// Recategorizing to income flips the stored sign.
	updated, err := svc.UpdateTransaction(ctx, f.ownerID, tx.ID, core.TransactionPatch{CategoryID: &f.income.ID})
	if err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	if updated.Amount.Cents != 2_500 {
		t.Errorf("amount = %d, want 2500 after recategorizing to income", updated.Amount.Cents)
	}

	newAmount := core.Money{Cents: 3_000}
	newDesc := "team lunch"
	updated, err = svc.UpdateTransaction(ctx, f.ownerID, tx.ID, core.TransactionPatch{
		Amount:      &newAmount,
		Description: &newDesc,
	})
	if err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	if updated.Amount.Cents != 3_000 || updated.Description != "team lunch" {
		t.Errorf("updated = %+v", updated)
	}

	foreignCat := uuid.New()
	if _, err := svc.UpdateTransaction(ctx, f.ownerID, tx.ID, core.TransactionPatch{CategoryID: &foreignCat}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown category err = %v, want ErrNotFound", err)
	}
}

func TestUpdateTransactionKeepsInflowLegSign(t *testing.T) {
	store := newTestStore(t)
	f := seedOwner(t, store)
	ctx := context.Background()

	out, in, err := NewTransferService(store).FundSavings(ctx,
		f.ownerID, f.checking.ID, f.savings.ID, f.fund.ID,
		core.Money{Cents: 20_000}, core.NewDate(2024, 3, 1), "march funding")
	if err != nil {
		t.Fatalf("FundSavings: %v", err)
	}

	svc := NewTransactionService(store)
	newDesc := "march funding (renamed)"
	updated, err := svc.UpdateTransaction(ctx, f.ownerID, in.ID, core.TransactionPatch{Description: &newDesc})
	if err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	if updated.Amount.Cents != 20_000 {
		t.Errorf("inflow leg after description edit = %d, want 20000", updated.Amount.Cents)
	}
	if updated.Description != newDesc {
		t.Errorf("description = %q, want %q", updated.Description, newDesc)
	}

	// The pair must still sum to zero once the edit lands.
	outflow, err := svc.GetTransaction(ctx, f.ownerID, out.ID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if got := outflow.Amount.Add(updated.Amount); got.Cents != 0 {
		t.Errorf("pair sum = %d, want 0", got.Cents)
	}

	// A date-only edit leaves the sign alone too.
	newDate := core.NewDate(2024, 3, 2)
	updated, err = svc.UpdateTransaction(ctx, f.ownerID, in.ID, core.TransactionPatch{Date: &newDate})
	if err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	if updated.Amount.Cents != 20_000 {
		t.Errorf("inflow leg after date edit = %d, want 20000", updated.Amount.Cents)
	}
}

func TestListByMonthBoundaries(t *testing.T) {
	store := newTestStore(t)
	f := seedOwner(t, store)
	ctx := context.Background()
	svc := NewTransactionService(store)

	addTx(t, store, f, f.checking, f.cash, 100, "feb 29", core.NewDate(2024, 2, 29))
	addTx(t, store, f, f.checking, f.cash, 200, "mar 1", core.NewDate(2024, 3, 1))
	addTx(t, store, f, f.checking, f.cash, 300, "mar 31", core.NewDate(2024, 3, 31))
	addTx(t, store, f, f.checking, f.cash, 400, "apr 1", core.NewDate(2024, 4, 1))

	txs, err := svc.ListByMonth(ctx, f.ownerID, f.checking.ID, 2024, 3)
	if err != nil {
		t.Fatalf("ListByMonth: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("rows = %d, want the two March rows", len(txs))
	}
	// Newest date first.
	if txs[0].Description != "mar 31" || txs[1].Description != "mar 1" {
		t.Errorf("order = %q, %q", txs[0].Description, txs[1].Description)
	}

	if _, err := svc.ListByMonth(ctx, f.ownerID, f.checking.ID, 2024, 0); !errors.Is(err, core.ErrValidation) {
		t.Errorf("month 0 err = %v, want ErrValidation", err)
	}
}

func TestListTransfersReturnsBothLegs(t *testing.T) {
	store := newTestStore(t)
	f := seedOwner(t, store)
	ctx := context.Background()

	if _, err := NewTransferService(store).FundAllUnfunded(ctx, f.ownerID, 2024, 3); err != nil {
		t.Fatalf("FundAllUnfunded: %v", err)
	}
	addTx(t, store, f, f.checking, f.cash, 500, "not a transfer", core.NewDate(2024, 3, 10))

	txs, err := NewTransactionService(store).ListTransfers(ctx, f.ownerID, 2024, 3)
	if err != nil {
		t.Fatalf("ListTransfers: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("transfer rows = %d, want the funding pair only", len(txs))
	}
	if got := txs[0].Amount.Add(txs[1].Amount); got.Cents != 0 {
		t.Errorf("pair sum = %d, want 0", got.Cents)
	}
}

func TestDeleteTransaction(t *testing.T) {
	store := newTestStore(t)
	f := seedOwner(t, store)
	ctx := context.Background()
	svc := NewTransactionService(store)

	tx := addTx(t, store, f, f.checking, f.cash, 100, "oops", core.NewDate(2024, 3, 1))
	if err := svc.DeleteTransaction(ctx, f.ownerID, tx.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if err := svc.DeleteTransaction(ctx, f.ownerID, tx.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestDeleteFundingLegWarns(t *testing.T) {
	store := newTestStore(t)
	f := seedOwner(t, store)
	ctx := context.Background()

	if _, err := NewTransferService(store).FundAllUnfunded(ctx, f.ownerID, 2024, 3); err != nil {
		t.Fatalf("FundAllUnfunded: %v", err)
	}
	legs, err := NewTransactionService(store).ListTransfers(ctx, f.ownerID, 2024, 3)
	if err != nil {
		t.Fatalf("ListTransfers: %v", err)
	}
	if len(legs) != 2 {
		t.Fatalf("legs = %d, want 2", len(legs))
	}
	outflow, inflow := legs[0], legs[1]
	if outflow.FundingMonth == "" {
		outflow, inflow = inflow, outflow
	}
	if outflow.FundingMonth == "" {
		t.Fatalf("no leg carries a funding month: %+v", legs)
	}

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	svc := NewTransactionService(store)
	if err := svc.DeleteTransaction(ctx, f.ownerID, outflow.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if !strings.Contains(buf.String(), "funding pair") {
		t.Errorf("expected a funding-pair warning, log output:\n%s", buf.String())
	}

	// The other leg survives; the delete is not cascading.
	if _, err := svc.GetTransaction(ctx, f.ownerID, inflow.ID); err != nil {
		t.Errorf("counterpart leg should remain, got %v", err)
	}
}
