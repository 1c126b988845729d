package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tally/internal/core"

	"github.com/google/uuid"
)

const overrideColumns = "id, owner_id, category_id, year, month, amount_cents, updated_at"

func scanOverride(row rowScanner) (core.MonthlyBudgetOverride, error) {
	var (
		o          core.MonthlyBudgetOverride
		id         string
		ownerID    string
		categoryID string
	)
	err := row.Scan(&id, &ownerID, &categoryID, &o.Year, &o.Month, &o.Amount.Cents, &o.UpdatedAt)
	if err != nil {
		return core.MonthlyBudgetOverride{}, err
	}
	if o.ID, err = uuid.Parse(id); err != nil {
		return core.MonthlyBudgetOverride{}, fmt.Errorf("parse override id: %w", err)
	}
	if o.OwnerID, err = uuid.Parse(ownerID); err != nil {
		return core.MonthlyBudgetOverride{}, fmt.Errorf("parse owner id: %w", err)
	}
	if o.CategoryID, err = uuid.Parse(categoryID); err != nil {
		return core.MonthlyBudgetOverride{}, fmt.Errorf("parse category id: %w", err)
	}
	return o, nil
}

// UpsertOverride inserts or replaces the override for (owner, category, year,
// month), bumping updated_at on replace.
func (q *Queries) UpsertOverride(ctx context.Context, o core.MonthlyBudgetOverride) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO monthly_budget_overrides (id, owner_id, category_id, year, month, amount_cents, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, category_id, year, month)
		DO UPDATE SET amount_cents = excluded.amount_cents, updated_at = excluded.updated_at`,
		o.ID.String(), o.OwnerID.String(), o.CategoryID.String(), o.Year, o.Month, o.Amount.Cents, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert override: %w", err)
	}
	return nil
}

// GetOverride returns the override for the month, or core.ErrNotFound when
// none exists. If duplicates ever appear the most recently updated row
// wins; correct data has at most one match.
func (q *Queries) GetOverride(ctx context.Context, ownerID, categoryID uuid.UUID, year, month int) (core.MonthlyBudgetOverride, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+overrideColumns+` FROM monthly_budget_overrides
		WHERE owner_id = ? AND category_id = ? AND year = ? AND month = ?
		ORDER BY updated_at DESC LIMIT 1`,
		ownerID.String(), categoryID.String(), year, month)
	o, err := scanOverride(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.MonthlyBudgetOverride{}, core.NotFound("budget override")
	}
	if err != nil {
		return core.MonthlyBudgetOverride{}, fmt.Errorf("get override: %w", err)
	}
	return o, nil
}

// ListOverridesForMonth returns all of the owner's overrides for one month,
// keyed by category.
func (q *Queries) ListOverridesForMonth(ctx context.Context, ownerID uuid.UUID, year, month int) (map[uuid.UUID]core.MonthlyBudgetOverride, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+overrideColumns+` FROM monthly_budget_overrides
		WHERE owner_id = ? AND year = ? AND month = ?
		ORDER BY updated_at`,
		ownerID.String(), year, month)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]core.MonthlyBudgetOverride)
	for rows.Next() {
		o, err := scanOverride(rows)
		if err != nil {
			return nil, fmt.Errorf("scan override: %w", err)
		}
		// later updated_at wins on the (impossible) duplicate
		out[o.CategoryID] = o
	}
	return out, rows.Err()
}
