package http

import (
	"tally/internal/core"
)

// Response bodies carry amounts as plain decimal strings ("-45.00"), the
// same format requests use, and dates as 2006-01-02.

type accountDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Role           string `json:"role"`
	OpeningBalance string `json:"opening_balance"`
}

func toAccountDTO(a core.Account) accountDTO {
	return accountDTO{
		ID:             a.ID.String(),
		Name:           a.Name,
		Role:           string(a.Role),
		OpeningBalance: a.OpeningBalance.String(),
	}
}

func toAccountDTOs(accounts []core.Account) []accountDTO {
	out := make([]accountDTO, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountDTO(a))
	}
	return out
}

type categoryDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	BudgetedAmount string `json:"budgeted_amount"`
}

func toCategoryDTO(c core.Category) categoryDTO {
	return categoryDTO{
		ID:             c.ID.String(),
		Name:           c.Name,
		Type:           string(c.Type),
		BudgetedAmount: c.BudgetedAmount.String(),
	}
}

type transactionDTO struct {
	ID          string `json:"id"`
	AccountID   string `json:"account_id"`
	CategoryID  string `json:"category_id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

func toTransactionDTO(t core.Transaction) transactionDTO {
	return transactionDTO{
		ID:          t.ID.String(),
		AccountID:   t.AccountID.String(),
		CategoryID:  t.CategoryID.String(),
		Amount:      t.Amount.String(),
		Description: t.Description,
		Date:        t.Date.Format("2006-01-02"),
	}
}

func toTransactionDTOs(txs []core.Transaction) []transactionDTO {
	out := make([]transactionDTO, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionDTO(t))
	}
	return out
}

type pendingDTO struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	TargetRole  string `json:"target_role"`
}

func toPendingDTO(p core.PendingTransaction) pendingDTO {
	return pendingDTO{
		ID:          p.ID.String(),
		Description: p.Description,
		Date:        p.Date.Format("2006-01-02"),
		Amount:      p.Amount.String(),
		TargetRole:  string(p.TargetRole),
	}
}

type breakdownRowDTO struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
	Budgeted   string `json:"budgeted"`
	Actual     string `json:"actual"`
	Difference string `json:"difference"`
}

type summaryDTO struct {
	Year          int               `json:"year"`
	Month         int               `json:"month"`
	TotalIncome   string            `json:"total_income"`
	TotalExpenses string            `json:"total_expenses"`
	Net           string            `json:"net"`
	Breakdown     []breakdownRowDTO `json:"breakdown"`
}

func toSummaryDTO(s core.Summary) summaryDTO {
	rows := make([]breakdownRowDTO, 0, len(s.Breakdown))
	for _, row := range s.Breakdown {
		rows = append(rows, breakdownRowDTO{
			CategoryID: row.CategoryID.String(),
			Name:       row.Name,
			Budgeted:   row.Budgeted.String(),
			Actual:     row.Actual.String(),
			Difference: row.Difference.String(),
		})
	}
	return summaryDTO{
		Year:          s.Year,
		Month:         s.Month,
		TotalIncome:   s.TotalIncome.String(),
		TotalExpenses: s.TotalExpenses.String(),
		Net:           s.Net.String(),
		Breakdown:     rows,
	}
}

type fundBalanceDTO struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
	Balance    string `json:"balance"`
}

type savingsLedgerDTO struct {
	TotalBalance   string           `json:"total_balance"`
	Funds          []fundBalanceDTO `json:"funds"`
	RecentActivity []transactionDTO `json:"recent_activity"`
}

func toSavingsLedgerDTO(l core.SavingsLedger) savingsLedgerDTO {
	funds := make([]fundBalanceDTO, 0, len(l.Funds))
	for _, f := range l.Funds {
		funds = append(funds, fundBalanceDTO{
			CategoryID: f.CategoryID.String(),
			Name:       f.Name,
			Balance:    f.Balance.String(),
		})
	}
	return savingsLedgerDTO{
		TotalBalance:   l.TotalBalance.String(),
		Funds:          funds,
		RecentActivity: toTransactionDTOs(l.RecentActivity),
	}
}
