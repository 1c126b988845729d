package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tally/internal/core"

	"github.com/google/uuid"
)

const transactionColumns = "id, owner_id, account_id, category_id, amount_cents, description, tx_date, funding_month, created_at"

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t            core.Transaction
		id           string
		ownerID      string
		accountID    string
		categoryID   string
		txDate       time.Time
		fundingMonth sql.NullString
	)
	err := row.Scan(&id, &ownerID, &accountID, &categoryID, &t.Amount.Cents,
		&t.Description, &txDate, &fundingMonth, &t.CreatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	if t.ID, err = uuid.Parse(id); err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction id: %w", err)
	}
	if t.OwnerID, err = uuid.Parse(ownerID); err != nil {
		return core.Transaction{}, fmt.Errorf("parse owner id: %w", err)
	}
	if t.AccountID, err = uuid.Parse(accountID); err != nil {
		return core.Transaction{}, fmt.Errorf("parse account id: %w", err)
	}
	if t.CategoryID, err = uuid.Parse(categoryID); err != nil {
		return core.Transaction{}, fmt.Errorf("parse category id: %w", err)
	}
	t.Date = core.DateOf(txDate)
	if fundingMonth.Valid {
		t.FundingMonth = fundingMonth.String
	}
	return t, nil
}

// CreateTransaction inserts one signed ledger row. A duplicate funding month
// for the same (owner, category) violates the funding unique index and
// surfaces as core.ErrConflict.
func (q *Queries) CreateTransaction(ctx context.Context, t core.Transaction) error {
	var fundingMonth any
	if t.FundingMonth != "" {
		fundingMonth = t.FundingMonth
	}
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO transactions (id, owner_id, account_id, category_id, amount_cents, description, tx_date, funding_month, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID.String(), t.OwnerID.String(), t.AccountID.String(), t.CategoryID.String(),
		t.Amount.Cents, t.Description, t.Date.Time, fundingMonth, t.CreatedAt)
	if IsUniqueViolation(err) {
		return core.Conflict("category already funded for " + t.FundingMonth)
	}
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (q *Queries) GetTransactionForOwner(ctx context.Context, ownerID, txID uuid.UUID) (core.Transaction, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND owner_id = ?`,
		txID.String(), ownerID.String())
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.NotFound("transaction")
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (q *Queries) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE transactions SET category_id = ?, amount_cents = ?, description = ?, tx_date = ?
		WHERE id = ? AND owner_id = ?`,
		t.CategoryID.String(), t.Amount.Cents, t.Description, t.Date.Time,
		t.ID.String(), t.OwnerID.String())
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.NotFound("transaction")
	}
	return nil
}

func (q *Queries) DeleteTransaction(ctx context.Context, ownerID, txID uuid.UUID) error {
	res, err := q.db.ExecContext(ctx, `
		DELETE FROM transactions WHERE id = ? AND owner_id = ?`,
		txID.String(), ownerID.String())
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.NotFound("transaction")
	}
	return nil
}

// ListTransactionsInRange returns an account's rows in [start, end), newest
// first (date, then creation order).
func (q *Queries) ListTransactionsInRange(ctx context.Context, ownerID, accountID uuid.UUID, start, end core.Date) ([]core.Transaction, error) {
	return q.listTransactions(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE owner_id = ? AND account_id = ? AND tx_date >= ? AND tx_date < ?
		ORDER BY tx_date DESC, created_at DESC, rowid DESC`,
		ownerID.String(), accountID.String(), start.Time, end.Time)
}

// ListOwnerTransactionsInRange returns all of an owner's rows in [start, end)
// across accounts.
func (q *Queries) ListOwnerTransactionsInRange(ctx context.Context, ownerID uuid.UUID, start, end core.Date) ([]core.Transaction, error) {
	return q.listTransactions(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE owner_id = ? AND tx_date >= ? AND tx_date < ?
		ORDER BY tx_date, created_at, rowid`,
		ownerID.String(), start.Time, end.Time)
}

// ListAccountTransactions returns the account's complete history, newest
// first (date, then creation order).
func (q *Queries) ListAccountTransactions(ctx context.Context, ownerID, accountID uuid.UUID) ([]core.Transaction, error) {
	return q.listTransactions(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE owner_id = ? AND account_id = ?
		ORDER BY tx_date DESC, created_at DESC, rowid DESC`,
		ownerID.String(), accountID.String())
}

// ListTransferTransactionsInRange returns the owner's rows on savings- and
// transfer-type categories in [start, end).
func (q *Queries) ListTransferTransactionsInRange(ctx context.Context, ownerID uuid.UUID, start, end core.Date) ([]core.Transaction, error) {
	return q.listTransactions(ctx, `
		SELECT t.id, t.owner_id, t.account_id, t.category_id, t.amount_cents, t.description, t.tx_date, t.funding_month, t.created_at
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.owner_id = ? AND t.tx_date >= ? AND t.tx_date < ? AND c.type IN (?, ?)
		ORDER BY t.tx_date, t.created_at, t.rowid`,
		ownerID.String(), start.Time, end.Time, string(core.CategorySavings), string(core.CategoryTransfer))
}

func (q *Queries) listTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// HasCheckingTransactionInMonth reports whether any checking-side row
// references the category within [start, end). The bulk-funding guard
// evaluates this inside its own transaction; the funding unique index backs
// it up under concurrency.
func (q *Queries) HasCheckingTransactionInMonth(ctx context.Context, ownerID, categoryID uuid.UUID, start, end core.Date) (bool, error) {
	var n int
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE t.owner_id = ? AND t.category_id = ? AND a.role = ?
		  AND t.tx_date >= ? AND t.tx_date < ?`,
		ownerID.String(), categoryID.String(), string(core.RoleChecking), start.Time, end.Time).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check funding: %w", err)
	}
	return n > 0, nil
}
