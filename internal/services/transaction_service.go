package services

import (
	"context"
	"log/slog"

	"tally/internal/core"
	"tally/internal/storage"

	"github.com/google/uuid"
)

// TransactionService manages single ledger rows. Amount signs are normalized
// from the category type on every write, so callers submit magnitudes and
// the sign convention cannot drift.
type TransactionService struct {
	store *storage.Store
}

func NewTransactionService(store *storage.Store) *TransactionService {
	return &TransactionService{store: store}
}

func (s *TransactionService) CreateTransaction(ctx context.Context, ownerID, accountID, categoryID uuid.UUID, amount core.Money, description string, date core.Date) (core.Transaction, error) {
	if err := amount.Validate(); err != nil {
		return core.Transaction{}, err
	}

	var created core.Transaction
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetAccountForOwner(ctx, ownerID, accountID); err != nil {
			return err
		}
		cat, err := q.GetCategoryForOwner(ctx, ownerID, categoryID)
		if err != nil {
			return err
		}

		t := core.Transaction{
			ID:          uuid.New(),
			OwnerID:     ownerID,
			AccountID:   accountID,
			CategoryID:  categoryID,
			Amount:      cat.Type.NormalizeSign(amount),
			Description: description,
			Date:        date,
			CreatedAt:   nowUTC(),
		}
		if err := t.Validate(); err != nil {
			return err
		}
		if err := q.CreateTransaction(ctx, t); err != nil {
			return err
		}
		created = t
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction created",
		"owner_id", ownerID,
		"transaction_id", created.ID,
		"amount", created.Amount)
	return created, nil
}

func (s *TransactionService) GetTransaction(ctx context.Context, ownerID, txID uuid.UUID) (core.Transaction, error) {
	return s.store.Queries().GetTransactionForOwner(ctx, ownerID, txID)
}

// ListByMonth returns an account's ledger rows for one calendar month.
func (s *TransactionService) ListByMonth(ctx context.Context, ownerID, accountID uuid.UUID, year, month int) ([]core.Transaction, error) {
	if month < 1 || month > 12 {
		return nil, core.ErrInvalidMonth
	}
	q := s.store.Queries()
	if _, err := q.GetAccountForOwner(ctx, ownerID, accountID); err != nil {
		return nil, err
	}
	start, end := core.MonthRange(year, month)
	return q.ListTransactionsInRange(ctx, ownerID, accountID, start, end)
}

// ListTransfers returns the owner's savings and transfer legs for one month,
// across all accounts.
func (s *TransactionService) ListTransfers(ctx context.Context, ownerID uuid.UUID, year, month int) ([]core.Transaction, error) {
	if month < 1 || month > 12 {
		return nil, core.ErrInvalidMonth
	}
	start, end := core.MonthRange(year, month)
	return s.store.Queries().ListTransferTransactionsInRange(ctx, ownerID, start, end)
}

// UpdateTransaction applies a partial update. A changed amount or category
// re-runs sign normalization against the effective category type.
func (s *TransactionService) UpdateTransaction(ctx context.Context, ownerID, txID uuid.UUID, patch core.TransactionPatch) (core.Transaction, error) {
	var updated core.Transaction
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		t, err := q.GetTransactionForOwner(ctx, ownerID, txID)
		if err != nil {
			return err
		}
		if patch.CategoryID != nil {
			t.CategoryID = *patch.CategoryID
		}
		if patch.Amount != nil {
			if err := patch.Amount.Validate(); err != nil {
				return err
			}
			t.Amount = *patch.Amount
		}
		if patch.Description != nil {
			t.Description = *patch.Description
		}
		if patch.Date != nil {
			t.Date = *patch.Date
		}

		cat, err := q.GetCategoryForOwner(ctx, ownerID, t.CategoryID)
		if err != nil {
			return err
		}
		// Sign normalization only re-runs when the amount or category
		// changed. A stored positive amount on an expense-like category is
		// a deliberate inflow leg and must survive unrelated edits.
		if patch.Amount != nil || patch.CategoryID != nil {
			t.Amount = cat.Type.NormalizeSign(t.Amount)
		}

		if err := t.Validate(); err != nil {
			return err
		}
		if err := q.UpdateTransaction(ctx, t); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction updated",
		"owner_id", ownerID,
		"transaction_id", txID)
	return updated, nil
}

func (s *TransactionService) DeleteTransaction(ctx context.Context, ownerID, txID uuid.UUID) error {
	var deleted core.Transaction
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		t, err := q.GetTransactionForOwner(ctx, ownerID, txID)
		if err != nil {
			return err
		}
		deleted = t
		return q.DeleteTransaction(ctx, ownerID, txID)
	})
	if err != nil {
		return err
	}
	// Funding legs come in balanced pairs; deleting one leaves the
	// counterpart unmatched in the ledger.
	if deleted.FundingMonth != "" {
		slog.WarnContext(ctx, "Deleted one leg of a funding pair",
			"owner_id", ownerID,
			"transaction_id", txID,
			"funding_month", deleted.FundingMonth)
	}
	slog.InfoContext(ctx, "Transaction deleted",
		"owner_id", ownerID,
		"transaction_id", txID)
	return nil
}
