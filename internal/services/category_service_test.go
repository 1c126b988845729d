package services

import (
	"context"
	"errors"
	"testing"

	"tally/internal/core"
)

func TestCreateCategoryDuplicateName(t *testing.T) {
	store := newTestStore(t)
	f := seedOwner(t, store)
	ctx := context.Background()
	svc := NewCategoryService(store)

	_, err := svc.CreateCategory(ctx, f.ownerID, "Groceries", core.CategoryCash, core.Money{})
	if !errors.Is(err, core.ErrConflict) {
		t.Fatalf("duplicate name err = %v, want ErrConflict", err)
	}

	// Same name under a different type is allowed.
	if _, err := svc.CreateCategory(ctx, f.ownerID, "Groceries", core.CategoryMonthly, core.Money{}); err != nil {
		t.Fatalf("same name, different type: %v", err)
	}
}

func TestUpdateCategoryPatch(t *testing.T) {
	store := newTestStore(t)
	f := seedOwner(t, store)
	ctx := context.Background()
	svc := NewCategoryService(store)

	newBudget := core.Money{Cents: 45_000}
	updated, err := svc.UpdateCategory(ctx, f.ownerID, f.cash.ID, core.CategoryPatch{BudgetedAmount: &newBudget})
	if err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}
	if updated.BudgetedAmount.Cents != 45_000 {
		t.Errorf("budget = %d, want 45000", updated.BudgetedAmount.Cents)
	}
	// Untouched fields survive the patch.
	if updated.Name != "Groceries" || updated.Type != core.CategoryCash {
		t.Errorf("patch changed unrelated fields: %+v", updated)
	}

	bad := core.Money{Cents: -1}
	if _, err := svc.UpdateCategory(ctx, f.ownerID, f.cash.ID, core.CategoryPatch{BudgetedAmount: &bad}); !errors.Is(err, core.ErrValidation) {
		t.Errorf("negative budget err = %v, want ErrValidation", err)
	}

	// Patching into an existing (name, type) pair is a conflict.
	rent := "Rent"
	monthly := core.CategoryMonthly
	if _, err := svc.UpdateCategory(ctx, f.ownerID, f.cash.ID, core.CategoryPatch{Name: &rent, Type: &monthly}); !errors.Is(err, core.ErrConflict) {
		t.Errorf("duplicate patch err = %v, want ErrConflict", err)
	}
}

func TestDeleteCategoryInUse(t *testing.T) {
	store := newTestStore(t)
	f := seedOwner(t, store)
	ctx := context.Background()
	svc := NewCategoryService(store)

	addTx(t, store, f, f.checking, f.cash, 1_000, "coffee", core.NewDate(2024, 3, 1))

	err := svc.DeleteCategory(ctx, f.ownerID, f.cash.ID)
	if !errors.Is(err, core.ErrConflict) {
		t.Fatalf("in-use delete err = %v, want ErrConflict", err)
	}

	// An unused category deletes cleanly.
	if err := svc.DeleteCategory(ctx, f.ownerID, f.monthly.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	if _, err := svc.GetCategory(ctx, f.ownerID, f.monthly.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("deleted category err = %v, want ErrNotFound", err)
	}
}
