package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Account roles. Each owner is expected to hold exactly one account per role;
// transfer operations take explicit account IDs so the engine never has to
// guess which account a role maps to.
type Role string

const (
	RoleChecking Role = "checking"
	RoleSavings  Role = "savings"
)

func (r Role) Valid() bool {
	return r == RoleChecking || r == RoleSavings
}

// CategoryType is a closed set. Behavior that depends on the type (sign of
// stored amounts, which aggregation bucket a transaction lands in, whether the
// category carries a budget row in the dashboard) lives in the dispatch table
// below rather than in scattered conditionals.
type CategoryType string

const (
	CategoryCash     CategoryType = "cash"
	CategoryMonthly  CategoryType = "monthly"
	CategorySavings  CategoryType = "savings"
	CategoryTransfer CategoryType = "transfer"
	CategoryIncome   CategoryType = "income"
)

type typeBehavior struct {
	inflow    bool // stored amounts are positive
	inTotals  bool // counted in income/expense totals
	breakdown bool // gets a budgeted-vs-actual breakdown row
}

var categoryBehavior = map[CategoryType]typeBehavior{
	CategoryCash:     {inflow: false, inTotals: true, breakdown: true},
	CategoryMonthly:  {inflow: false, inTotals: true, breakdown: true},
	CategorySavings:  {inflow: false, inTotals: true, breakdown: true},
	CategoryTransfer: {inflow: false, inTotals: false, breakdown: false},
	CategoryIncome:   {inflow: true, inTotals: true, breakdown: false},
}

func (t CategoryType) Valid() bool {
	_, ok := categoryBehavior[t]
	return ok
}

// IsIncome reports whether stored amounts for this type are positive inflows.
func (t CategoryType) IsIncome() bool {
	return categoryBehavior[t].inflow
}

// CountsInTotals reports whether transactions of this type contribute to the
// income/expense totals. Transfer legs are captured by their counterpart
// transaction-type rows and never summed directly.
func (t CategoryType) CountsInTotals() bool {
	return categoryBehavior[t].inTotals
}

// HasBreakdownRow reports whether the dashboard emits a budgeted-vs-actual row
// for categories of this type.
func (t CategoryType) HasBreakdownRow() bool {
	return categoryBehavior[t].breakdown
}

// NormalizeSign applies the sign convention for the type: income amounts are
// stored positive, everything else negative. The magnitude is preserved.
func (t CategoryType) NormalizeSign(m Money) Money {
	if t.IsIncome() {
		return m.Abs()
	}
	return m.Abs().Neg()
}

// Date is a calendar day; the time-of-day component is always midnight UTC.
type Date struct {
	time.Time
}

func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// MonthRange returns the half-open interval [first day of month, first day of
// the next month).
func MonthRange(year, month int) (Date, Date) {
	start := NewDate(year, month, 1)
	return start, Date{Time: start.AddDate(0, 1, 0)}
}

// FundingMonthKey is the idempotency key format for funding transactions
// ("2024-06"). A unique index on (owner, category, funding_month) makes
// double-funding impossible even across concurrent bulk runs.
func FundingMonthKey(year, month int) string {
	return NewDate(year, month, 1).Format("2006-01")
}

type Account struct {
	ID             uuid.UUID
	OwnerID        uuid.UUID
	Name           string
	Role           Role
	OpeningBalance Money
	CreatedAt      time.Time
}

func (a Account) Validate() error {
	if a.OwnerID == uuid.Nil {
		return ErrMissingOwner
	}
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if !a.Role.Valid() {
		return ErrUnknownRole
	}
	return nil
}

type Category struct {
	ID             uuid.UUID
	OwnerID        uuid.UUID
	Name           string
	Type           CategoryType
	BudgetedAmount Money
	CreatedAt      time.Time
}

func (c Category) Validate() error {
	if c.OwnerID == uuid.Nil {
		return ErrMissingOwner
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Type.Valid() {
		return ErrUnknownCategory
	}
	if c.BudgetedAmount.Cents < 0 {
		return ErrNegativeBudget
	}
	return nil
}

// Transaction is one signed ledger row. Sign normalization is the caller's
// responsibility (transfer engine, transaction creation); Validate only
// checks structural well-formedness.
type Transaction struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	AccountID   uuid.UUID
	CategoryID  uuid.UUID
	Amount      Money
	Description string
	Date        Date
	// FundingMonth is set ("2024-06") only on the checking-side leg of a
	// savings funding; it backs the bulk-funding idempotency guard.
	FundingMonth string
	CreatedAt    time.Time
}

func (t Transaction) Validate() error {
	if t.OwnerID == uuid.Nil {
		return ErrMissingOwner
	}
	if t.AccountID == uuid.Nil {
		return ErrMissingAccount
	}
	if t.CategoryID == uuid.Nil {
		return ErrMissingCategory
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	return nil
}

// MonthlyBudgetOverride supersedes a category's default budgeted amount for
// one specific month.
type MonthlyBudgetOverride struct {
	ID         uuid.UUID
	OwnerID    uuid.UUID
	CategoryID uuid.UUID
	Year       int
	Month      int
	Amount     Money
	UpdatedAt  time.Time
}

func (o MonthlyBudgetOverride) Validate() error {
	if o.OwnerID == uuid.Nil {
		return ErrMissingOwner
	}
	if o.CategoryID == uuid.Nil {
		return ErrMissingCategory
	}
	if o.Month < 1 || o.Month > 12 {
		return ErrInvalidMonth
	}
	if o.Amount.Cents < 0 {
		return ErrNegativeBudget
	}
	return nil
}

// PendingTransaction is a write-once staging row produced by statement
// import. It is consumed exactly once: either ignored (deleted) or finalized
// into a permanent Transaction and then deleted.
type PendingTransaction struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Description string
	Date        Date
	Amount      Money // sign pre-classified on import
	TargetRole  Role
	CreatedAt   time.Time
}

func (p PendingTransaction) Validate() error {
	if p.OwnerID == uuid.Nil {
		return ErrMissingOwner
	}
	if strings.TrimSpace(p.Description) == "" {
		return ErrEmptyDescription
	}
	if err := p.Date.Validate(); err != nil {
		return err
	}
	if p.Amount.Cents == 0 {
		return ErrInvalidAmount
	}
	if !p.TargetRole.Valid() {
		return ErrUnknownTargetRole
	}
	return nil
}

// CategoryPatch carries an explicit partial update: only non-nil fields are
// applied, each with its own validation.
type CategoryPatch struct {
	Name           *string
	Type           *CategoryType
	BudgetedAmount *Money
}

// TransactionPatch is the explicit partial update for a ledger row. Changing
// the category revalidates ownership and reapplies the sign convention.
type TransactionPatch struct {
	CategoryID  *uuid.UUID
	Amount      *Money
	Description *string
	Date        *Date
}
