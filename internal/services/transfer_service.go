package services

import (
	"context"
	"log/slog"
	"time"

	"tally/internal/core"
	"tally/internal/storage"

	"github.com/google/uuid"
)

func nowUTC() time.Time {
	return time.Now().UTC()
}

// TransferService moves budgeted money from checking into savings funds as
// linked transaction pairs. The two legs always sum to zero and are written
// in one transaction; readers never observe half a transfer.
type TransferService struct {
	store *storage.Store
}

func NewTransferService(store *storage.Store) *TransferService {
	return &TransferService{store: store}
}

// FundSavings creates the outflow/inflow pair for one savings category:
// checking gets -amount, savings gets +amount, both on the savings category.
func (s *TransferService) FundSavings(ctx context.Context, ownerID, checkingID, savingsID, categoryID uuid.UUID, amount core.Money, date core.Date, description string) (core.Transaction, core.Transaction, error) {
	if err := amount.Validate(); err != nil {
		return core.Transaction{}, core.Transaction{}, err
	}
	if err := date.Validate(); err != nil {
		return core.Transaction{}, core.Transaction{}, err
	}

	var outflow, inflow core.Transaction
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		checking, savings, cat, err := s.loadTransferParties(ctx, q, ownerID, checkingID, savingsID, categoryID)
		if err != nil {
			return err
		}

		outflow, inflow, err = writeFundingPair(ctx, q, checking, savings, cat, amount, date, description, "")
		return err
	})
	if err != nil {
		return core.Transaction{}, core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Savings category funded",
		"owner_id", ownerID,
		"category_id", categoryID,
		"amount", amount.String(),
		"date", date.Format("2006-01-02"))
	return outflow, inflow, nil
}

// FundAllUnfunded funds every savings category whose resolved budget for the
// month is positive and which has no checking-side transaction in that month
// yet. Re-invoking for the same month creates nothing; the guard runs inside
// the same transaction as the writes, and the funding unique index closes the
// race between concurrent runs.
func (s *TransferService) FundAllUnfunded(ctx context.Context, ownerID uuid.UUID, year, month int) (int, error) {
	if month < 1 || month > 12 {
		return 0, core.ErrInvalidMonth
	}

	start, end := core.MonthRange(year, month)
	fundingMonth := core.FundingMonthKey(year, month)
	var funded int

	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		funded = 0
		checking, err := q.GetAccountByRole(ctx, ownerID, core.RoleChecking)
		if err != nil {
			return err
		}
		savings, err := q.GetAccountByRole(ctx, ownerID, core.RoleSavings)
		if err != nil {
			return err
		}

		cats, err := q.ListCategoriesByType(ctx, ownerID, core.CategorySavings)
		if err != nil {
			return err
		}

		for _, cat := range cats {
			budget, err := resolveBudget(ctx, q, cat, year, month)
			if err != nil {
				return err
			}
			if budget.Cents <= 0 {
				continue
			}

			alreadyFunded, err := q.HasCheckingTransactionInMonth(ctx, ownerID, cat.ID, start, end)
			if err != nil {
				return err
			}
			if alreadyFunded {
				continue
			}

			if _, _, err := writeFundingPair(ctx, q, checking, savings, cat, budget, start, "Monthly funding: "+cat.Name, fundingMonth); err != nil {
				return err
			}
			funded++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Bulk funding complete",
		"owner_id", ownerID,
		"year", year,
		"month", month,
		"funded", funded)
	return funded, nil
}

func (s *TransferService) loadTransferParties(ctx context.Context, q *storage.Queries, ownerID, checkingID, savingsID, categoryID uuid.UUID) (core.Account, core.Account, core.Category, error) {
	checking, err := q.GetAccountForOwner(ctx, ownerID, checkingID)
	if err != nil {
		return core.Account{}, core.Account{}, core.Category{}, err
	}
	savings, err := q.GetAccountForOwner(ctx, ownerID, savingsID)
	if err != nil {
		return core.Account{}, core.Account{}, core.Category{}, err
	}
	cat, err := q.GetCategoryForOwner(ctx, ownerID, categoryID)
	if err != nil {
		return core.Account{}, core.Account{}, core.Category{}, err
	}

	if checking.Role != core.RoleChecking {
		return core.Account{}, core.Account{}, core.Category{}, core.Precondition("source account is not a checking account")
	}
	if savings.Role != core.RoleSavings {
		return core.Account{}, core.Account{}, core.Category{}, core.Precondition("destination account is not a savings account")
	}
	if cat.Type != core.CategorySavings {
		return core.Account{}, core.Account{}, core.Category{}, core.Precondition("category is not a savings category")
	}
	return checking, savings, cat, nil
}

// writeFundingPair inserts the two legs of one funding. fundingMonth is set
// only by bulk runs and drives the uniqueness guard.
func writeFundingPair(ctx context.Context, q *storage.Queries, checking, savings core.Account, cat core.Category, amount core.Money, date core.Date, description, fundingMonth string) (core.Transaction, core.Transaction, error) {
	now := nowUTC()
	outflow := core.Transaction{
		ID:           uuid.New(),
		OwnerID:      cat.OwnerID,
		AccountID:    checking.ID,
		CategoryID:   cat.ID,
		Amount:       amount.Abs().Neg(),
		Description:  description,
		Date:         date,
		FundingMonth: fundingMonth,
		CreatedAt:    now,
	}
	inflow := core.Transaction{
		ID:          uuid.New(),
		OwnerID:     cat.OwnerID,
		AccountID:   savings.ID,
		CategoryID:  cat.ID,
		Amount:      amount.Abs(),
		Description: description,
		Date:        date,
		CreatedAt:   now,
	}

	if err := outflow.Validate(); err != nil {
		return core.Transaction{}, core.Transaction{}, err
	}
	if err := inflow.Validate(); err != nil {
		return core.Transaction{}, core.Transaction{}, err
	}

	if err := q.CreateTransaction(ctx, outflow); err != nil {
		return core.Transaction{}, core.Transaction{}, err
	}
	if err := q.CreateTransaction(ctx, inflow); err != nil {
		return core.Transaction{}, core.Transaction{}, err
	}
	return outflow, inflow, nil
}
