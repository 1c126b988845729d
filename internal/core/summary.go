package core

import "github.com/google/uuid"

// BreakdownRow is one category's budgeted-vs-actual line in the month
// summary. Zero-activity, zero-budget categories still get a row.
type BreakdownRow struct {
	CategoryID uuid.UUID
	Name       string
	Budgeted   Money
	Actual     Money
	Difference Money
}

// Summary is the budget-vs-actual dashboard for one account and month.
type Summary struct {
	Year          int
	Month         int // 1-12
	TotalIncome   Money
	TotalExpenses Money
	Net           Money
	Breakdown     []BreakdownRow
}

// FundBalance is the running signed balance of one savings fund (category).
type FundBalance struct {
	CategoryID uuid.UUID
	Name       string
	Balance    Money
}

// SavingsLedger is the computed view over a savings account's full history.
type SavingsLedger struct {
	TotalBalance   Money
	Funds          []FundBalance
	RecentActivity []Transaction
}
