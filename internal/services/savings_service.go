package services

import (
	"context"

	"tally/internal/core"
	"tally/internal/storage"

	"github.com/google/uuid"
)

// recentActivityWindow caps the activity list in the savings ledger view.
const recentActivityWindow = 20

// SavingsService computes per-fund running balances and the overall savings
// balance from the savings account's full transaction history.
type SavingsService struct {
	store *storage.Store
}

func NewSavingsService(store *storage.Store) *SavingsService {
	return &SavingsService{store: store}
}

// Ledger sums signed amounts over the account's entire history: the raw
// signs make fundings (+) and withdrawals (-) net correctly without any
// abs() step. Recent activity is the newest 20 rows, ties on date broken by
// creation order.
func (s *SavingsService) Ledger(ctx context.Context, ownerID, accountID uuid.UUID) (core.SavingsLedger, error) {
	q := s.store.Queries()

	account, err := q.GetAccountForOwner(ctx, ownerID, accountID)
	if err != nil {
		return core.SavingsLedger{}, err
	}
	if account.Role != core.RoleSavings {
		return core.SavingsLedger{}, core.Precondition("account is not a savings account")
	}

	txs, err := q.ListAccountTransactions(ctx, ownerID, accountID)
	if err != nil {
		return core.SavingsLedger{}, err
	}
	cats, err := q.ListCategories(ctx, ownerID)
	if err != nil {
		return core.SavingsLedger{}, err
	}

	ledger := core.SavingsLedger{}
	byFund := make(map[uuid.UUID]core.Money)
	for _, t := range txs {
		ledger.TotalBalance = ledger.TotalBalance.Add(t.Amount)
		byFund[t.CategoryID] = byFund[t.CategoryID].Add(t.Amount)
	}

	// Emit funds in category creation order so the view is stable.
	for _, c := range cats {
		balance, ok := byFund[c.ID]
		if !ok {
			continue
		}
		ledger.Funds = append(ledger.Funds, core.FundBalance{
			CategoryID: c.ID,
			Name:       c.Name,
			Balance:    balance,
		})
	}

	if len(txs) > recentActivityWindow {
		txs = txs[:recentActivityWindow]
	}
	ledger.RecentActivity = txs

	return ledger, nil
}
