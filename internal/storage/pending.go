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

const pendingColumns = "id, owner_id, description, tx_date, amount_cents, target_role, created_at"

func scanPending(row rowScanner) (core.PendingTransaction, error) {
	var (
		p       core.PendingTransaction
		id      string
		ownerID string
		role    string
		txDate  time.Time
	)
	err := row.Scan(&id, &ownerID, &p.Description, &txDate, &p.Amount.Cents, &role, &p.CreatedAt)
	if err != nil {
		return core.PendingTransaction{}, err
	}
	if p.ID, err = uuid.Parse(id); err != nil {
		return core.PendingTransaction{}, fmt.Errorf("parse pending id: %w", err)
	}
	if p.OwnerID, err = uuid.Parse(ownerID); err != nil {
		return core.PendingTransaction{}, fmt.Errorf("parse owner id: %w", err)
	}
	p.Date = core.DateOf(txDate)
	p.TargetRole = core.Role(role)
	return p, nil
}

func (q *Queries) CreatePending(ctx context.Context, p core.PendingTransaction) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO pending_transactions (id, owner_id, description, tx_date, amount_cents, target_role, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID.String(), p.OwnerID.String(), p.Description, p.Date.Time, p.Amount.Cents,
		string(p.TargetRole), p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert pending transaction: %w", err)
	}
	return nil
}

func (q *Queries) GetPendingForOwner(ctx context.Context, ownerID, pendingID uuid.UUID) (core.PendingTransaction, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+pendingColumns+` FROM pending_transactions WHERE id = ? AND owner_id = ?`,
		pendingID.String(), ownerID.String())
	p, err := scanPending(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.PendingTransaction{}, core.NotFound("pending transaction")
	}
	if err != nil {
		return core.PendingTransaction{}, fmt.Errorf("get pending transaction: %w", err)
	}
	return p, nil
}

// ListPending returns staged rows for the owner and target role in insertion
// order.
func (q *Queries) ListPending(ctx context.Context, ownerID uuid.UUID, role core.Role) ([]core.PendingTransaction, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+pendingColumns+` FROM pending_transactions
		WHERE owner_id = ? AND target_role = ?
		ORDER BY created_at, id`,
		ownerID.String(), string(role))
	if err != nil {
		return nil, fmt.Errorf("list pending transactions: %w", err)
	}
	defer rows.Close()

	var out []core.PendingTransaction
	for rows.Next() {
		p, err := scanPending(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending transaction: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeletePending removes one staged row; it reports whether a row was
// actually deleted so batch callers can count per-item outcomes.
func (q *Queries) DeletePending(ctx context.Context, ownerID, pendingID uuid.UUID) (bool, error) {
	res, err := q.db.ExecContext(ctx, `
		DELETE FROM pending_transactions WHERE id = ? AND owner_id = ?`,
		pendingID.String(), ownerID.String())
	if err != nil {
		return false, fmt.Errorf("delete pending transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete pending transaction: %w", err)
	}
	return n > 0, nil
}
