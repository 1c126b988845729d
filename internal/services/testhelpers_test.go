package services

import (
	"context"
	"path/filepath"
	"testing"

	"tally/internal/core"
	"tally/internal/storage"

	"github.com/google/uuid"
)

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "tally.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// fixture is one seeded owner with the standard account pair and a category
// of each type.
type fixture struct {
	ownerID  uuid.UUID
	checking core.Account
	savings  core.Account
	income   core.Category
	cash     core.Category
	monthly  core.Category
	fund     core.Category // savings type
	transfer core.Category
}

func seedOwner(t *testing.T, store *storage.Store) fixture {
	t.Helper()
	ctx := context.Background()
	f := fixture{ownerID: uuid.New()}

	accounts := NewAccountService(store)
	var err error
	f.checking, err = accounts.CreateAccount(ctx, f.ownerID, "Checking", core.RoleChecking, core.Money{Cents: 100_000})
	if err != nil {
		t.Fatalf("seed checking account: %v", err)
	}
	f.savings, err = accounts.CreateAccount(ctx, f.ownerID, "Savings", core.RoleSavings, core.Money{})
	if err != nil {
		t.Fatalf("seed savings account: %v", err)
	}

	categories := NewCategoryService(store)
	mk := func(name string, typ core.CategoryType, budget int64) core.Category {
		c, err := categories.CreateCategory(ctx, f.ownerID, name, typ, core.Money{Cents: budget})
		if err != nil {
			t.Fatalf("seed category %s: %v", name, err)
		}
		return c
	}
	f.income = mk("Salary", core.CategoryIncome, 0)
	f.cash = mk("Groceries", core.CategoryCash, 40_000)
	f.monthly = mk("Rent", core.CategoryMonthly, 120_000)
	f.fund = mk("Vacation", core.CategorySavings, 20_000)
	f.transfer = mk("Internal transfer", core.CategoryTransfer, 0)
	return f
}

func addTx(t *testing.T, store *storage.Store, f fixture, account core.Account, category core.Category, cents int64, desc string, date core.Date) core.Transaction {
	t.Helper()
	tx, err := NewTransactionService(store).CreateTransaction(
		context.Background(), f.ownerID, account.ID, category.ID,
		core.Money{Cents: cents}, desc, date)
	if err != nil {
		t.Fatalf("create transaction %q: %v", desc, err)
	}
	return tx
}
