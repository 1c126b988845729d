// Package services implements the ledger's business operations on top of the
// storage layer: budget resolution, savings funding, month summaries, the
// savings ledger, and statement reconciliation. Every service takes the store
// explicitly; none of them reach into ambient state.
package services

import (
	"context"
	"errors"

	"tally/internal/core"
	"tally/internal/storage"

	"github.com/google/uuid"
)

// BudgetResolver answers "what is this category's budget for this month":
// the month-specific override when present, the category default otherwise.
type BudgetResolver struct {
	store *storage.Store
}

func NewBudgetResolver(store *storage.Store) *BudgetResolver {
	return &BudgetResolver{store: store}
}

// Resolve returns the effective budgeted amount for (category, year, month).
// Pure read; the only failure is a missing category.
func (r *BudgetResolver) Resolve(ctx context.Context, ownerID, categoryID uuid.UUID, year, month int) (core.Money, error) {
	if month < 1 || month > 12 {
		return core.Money{}, core.ErrInvalidMonth
	}
	q := r.store.Queries()
	cat, err := q.GetCategoryForOwner(ctx, ownerID, categoryID)
	if err != nil {
		return core.Money{}, err
	}
	return resolveBudget(ctx, q, cat, year, month)
}

// resolveBudget is the shared lookup used by the resolver, the transfer
// engine, and the summary builder, so callers inside a transaction resolve
// against the same snapshot they write to.
func resolveBudget(ctx context.Context, q *storage.Queries, cat core.Category, year, month int) (core.Money, error) {
	o, err := q.GetOverride(ctx, cat.OwnerID, cat.ID, year, month)
	if errors.Is(err, core.ErrNotFound) {
		return cat.BudgetedAmount, nil
	}
	if err != nil {
		return core.Money{}, err
	}
	return o.Amount, nil
}

// SetOverride upserts the month-specific budget for a category. Consumed
// read-only by Resolve.
func (r *BudgetResolver) SetOverride(ctx context.Context, ownerID, categoryID uuid.UUID, year, month int, amount core.Money) (core.MonthlyBudgetOverride, error) {
	o := core.MonthlyBudgetOverride{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		CategoryID: categoryID,
		Year:       year,
		Month:      month,
		Amount:     amount,
		UpdatedAt:  nowUTC(),
	}
	if err := o.Validate(); err != nil {
		return core.MonthlyBudgetOverride{}, err
	}

	err := r.store.WithTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetCategoryForOwner(ctx, ownerID, categoryID); err != nil {
			return err
		}
		return q.UpsertOverride(ctx, o)
	})
	if err != nil {
		return core.MonthlyBudgetOverride{}, err
	}
	return o, nil
}
