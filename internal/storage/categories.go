package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tally/internal/core"

	"github.com/google/uuid"
)

const categoryColumns = "id, owner_id, name, type, budgeted_cents, created_at"

func scanCategory(row rowScanner) (core.Category, error) {
	var (
		c       core.Category
		id      string
		ownerID string
		typ     string
	)
	err := row.Scan(&id, &ownerID, &c.Name, &typ, &c.BudgetedAmount.Cents, &c.CreatedAt)
	if err != nil {
		return core.Category{}, err
	}
	c.ID, err = uuid.Parse(id)
	if err != nil {
		return core.Category{}, fmt.Errorf("parse category id: %w", err)
	}
	c.OwnerID, err = uuid.Parse(ownerID)
	if err != nil {
		return core.Category{}, fmt.Errorf("parse owner id: %w", err)
	}
	c.Type = core.CategoryType(typ)
	return c, nil
}

// CreateCategory inserts one category. The (owner, name, type) unique
// constraint surfaces as core.ErrConflict.
func (q *Queries) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO categories (id, owner_id, name, type, budgeted_cents, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID.String(), c.OwnerID.String(), c.Name, string(c.Type), c.BudgetedAmount.Cents, c.CreatedAt)
	if IsUniqueViolation(err) {
		return core.Conflict(fmt.Sprintf("category %q with type %q already exists", c.Name, c.Type))
	}
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (q *Queries) GetCategoryForOwner(ctx context.Context, ownerID, categoryID uuid.UUID) (core.Category, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+categoryColumns+` FROM categories WHERE id = ? AND owner_id = ?`,
		categoryID.String(), ownerID.String())
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.NotFound("category")
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (q *Queries) ListCategories(ctx context.Context, ownerID uuid.UUID) ([]core.Category, error) {
	return q.listCategories(ctx, `
		SELECT `+categoryColumns+` FROM categories WHERE owner_id = ? ORDER BY created_at`,
		ownerID.String())
}

func (q *Queries) ListCategoriesByType(ctx context.Context, ownerID uuid.UUID, typ core.CategoryType) ([]core.Category, error) {
	return q.listCategories(ctx, `
		SELECT `+categoryColumns+` FROM categories WHERE owner_id = ? AND type = ? ORDER BY created_at`,
		ownerID.String(), string(typ))
}

func (q *Queries) listCategories(ctx context.Context, query string, args ...any) ([]core.Category, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateCategory persists the full row; callers apply patches field-by-field
// beforehand.
func (q *Queries) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE categories SET name = ?, type = ?, budgeted_cents = ?
		WHERE id = ? AND owner_id = ?`,
		c.Name, string(c.Type), c.BudgetedAmount.Cents, c.ID.String(), c.OwnerID.String())
	if IsUniqueViolation(err) {
		return core.Conflict(fmt.Sprintf("category %q with type %q already exists", c.Name, c.Type))
	}
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.NotFound("category")
	}
	return nil
}

// DeleteCategory removes a category that no transaction references. The
// referential guard is checked here so the read and the delete share one
// transaction when called through WithTx.
func (q *Queries) DeleteCategory(ctx context.Context, ownerID, categoryID uuid.UUID) error {
	var refs int
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM transactions WHERE category_id = ?`,
		categoryID.String()).Scan(&refs)
	if err != nil {
		return fmt.Errorf("count category references: %w", err)
	}
	if refs > 0 {
		return core.Conflict("category is in use by one or more transactions")
	}

	res, err := q.db.ExecContext(ctx, `
		DELETE FROM categories WHERE id = ? AND owner_id = ?`,
		categoryID.String(), ownerID.String())
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.NotFound("category")
	}
	return nil
}
