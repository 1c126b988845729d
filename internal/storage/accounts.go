package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tally/internal/core"

	"github.com/google/uuid"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (core.Account, error) {
	var (
		a       core.Account
		id      string
		ownerID string
		role    string
	)
	err := row.Scan(&id, &ownerID, &a.Name, &role, &a.OpeningBalance.Cents, &a.CreatedAt)
	if err != nil {
		return core.Account{}, err
	}
	a.ID, err = uuid.Parse(id)
	if err != nil {
		return core.Account{}, fmt.Errorf("parse account id: %w", err)
	}
	a.OwnerID, err = uuid.Parse(ownerID)
	if err != nil {
		return core.Account{}, fmt.Errorf("parse owner id: %w", err)
	}
	a.Role = core.Role(role)
	return a, nil
}

const accountColumns = "id, owner_id, name, role, opening_balance_cents, created_at"

func (q *Queries) CreateAccount(ctx context.Context, a core.Account) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO accounts (id, owner_id, name, role, opening_balance_cents, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.OwnerID.String(), a.Name, string(a.Role), a.OpeningBalance.Cents, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetAccountForOwner fetches one account scoped to its owner; a foreign
// owner's account is indistinguishable from a missing one.
func (q *Queries) GetAccountForOwner(ctx context.Context, ownerID, accountID uuid.UUID) (core.Account, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE id = ? AND owner_id = ?`,
		accountID.String(), ownerID.String())
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.NotFound("account")
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// GetAccountByRole resolves the owner's single account for a role. An
// ambiguous mapping (two accounts with the same role) is a conflict, not a
// silent pick.
func (q *Queries) GetAccountByRole(ctx context.Context, ownerID uuid.UUID, role core.Role) (core.Account, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE owner_id = ? AND role = ?
		ORDER BY created_at LIMIT 2`,
		ownerID.String(), string(role))
	if err != nil {
		return core.Account{}, fmt.Errorf("get account by role: %w", err)
	}
	defer rows.Close()

	var found []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return core.Account{}, fmt.Errorf("scan account: %w", err)
		}
		found = append(found, a)
	}
	if err := rows.Err(); err != nil {
		return core.Account{}, fmt.Errorf("iterate accounts: %w", err)
	}
	switch len(found) {
	case 0:
		return core.Account{}, core.NotFound(string(role) + " account")
	case 1:
		return found[0], nil
	default:
		return core.Account{}, core.Conflict("more than one " + string(role) + " account")
	}
}

func (q *Queries) ListAccounts(ctx context.Context, ownerID uuid.UUID) ([]core.Account, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE owner_id = ? ORDER BY created_at`,
		ownerID.String())
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListOwnersWithSavingsCategories returns every owner holding at least one
// savings-type category. The funding worker iterates these on its monthly
// run.
func (q *Queries) ListOwnersWithSavingsCategories(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT DISTINCT owner_id FROM categories WHERE type = ? ORDER BY owner_id`,
		string(core.CategorySavings))
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan owner id: %w", err)
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parse owner id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
