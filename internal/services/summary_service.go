package services

import (
	"context"

	"tally/internal/core"
	"tally/internal/storage"

	"github.com/google/uuid"
)

// SummaryService builds the budget-vs-actual dashboard for one account and
// month. Pure read over a consistent snapshot; nothing is cached.
type SummaryService struct {
	store *storage.Store
}

func NewSummaryService(store *storage.Store) *SummaryService {
	return &SummaryService{store: store}
}

// Summarize aggregates the account's transactions in [first of month, first
// of next month). Transfer-type categories are excluded from every total;
// income-type rows add their positive amounts to income; everything else
// contributes its magnitude to expenses and to the per-category actuals. A
// breakdown row is emitted for every budgeted category, including those with
// zero budget and zero activity.
func (s *SummaryService) Summarize(ctx context.Context, ownerID, accountID uuid.UUID, year, month int) (core.Summary, error) {
	if month < 1 || month > 12 {
		return core.Summary{}, core.ErrInvalidMonth
	}

	q := s.store.Queries()
	if _, err := q.GetAccountForOwner(ctx, ownerID, accountID); err != nil {
		return core.Summary{}, err
	}

	cats, err := q.ListCategories(ctx, ownerID)
	if err != nil {
		return core.Summary{}, err
	}
	catByID := make(map[uuid.UUID]core.Category, len(cats))
	for _, c := range cats {
		catByID[c.ID] = c
	}

	start, end := core.MonthRange(year, month)
	txs, err := q.ListTransactionsInRange(ctx, ownerID, accountID, start, end)
	if err != nil {
		return core.Summary{}, err
	}
	overrides, err := q.ListOverridesForMonth(ctx, ownerID, year, month)
	if err != nil {
		return core.Summary{}, err
	}

	summary := core.Summary{Year: year, Month: month}
	actuals := make(map[uuid.UUID]core.Money)

	for _, t := range txs {
		cat, ok := catByID[t.CategoryID]
		if !ok || !cat.Type.CountsInTotals() {
			continue
		}
		if cat.Type.IsIncome() {
			summary.TotalIncome = summary.TotalIncome.Add(t.Amount)
			continue
		}
		spent := t.Amount.Abs()
		summary.TotalExpenses = summary.TotalExpenses.Add(spent)
		actuals[cat.ID] = actuals[cat.ID].Add(spent)
	}
	summary.Net = summary.TotalIncome.Sub(summary.TotalExpenses)

	for _, cat := range cats {
		if !cat.Type.HasBreakdownRow() {
			continue
		}
		budgeted := cat.BudgetedAmount
		if o, ok := overrides[cat.ID]; ok {
			budgeted = o.Amount
		}
		actual := actuals[cat.ID]
		summary.Breakdown = append(summary.Breakdown, core.BreakdownRow{
			CategoryID: cat.ID,
			Name:       cat.Name,
			Budgeted:   budgeted,
			Actual:     actual,
			Difference: budgeted.Sub(actual),
		})
	}

	return summary, nil
}
