package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tally/internal/core"
	"tally/internal/storage"

	"github.com/google/uuid"
)

// AccountService manages the per-owner checking/savings account pair.
type AccountService struct {
	store *storage.Store
}

func NewAccountService(store *storage.Store) *AccountService {
	return &AccountService{store: store}
}

// CreateAccount registers a new account. An owner holds at most one account
// per role, so a second checking or savings account is a conflict.
func (s *AccountService) CreateAccount(ctx context.Context, ownerID uuid.UUID, name string, role core.Role, openingBalance core.Money) (core.Account, error) {
	a := core.Account{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		Name:           name,
		Role:           role,
		OpeningBalance: openingBalance,
		CreatedAt:      nowUTC(),
	}
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}

	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		_, err := q.GetAccountByRole(ctx, ownerID, role)
		if err == nil {
			return core.Conflict(fmt.Sprintf("owner already has a %s account", role))
		}
		if !errors.Is(err, core.ErrNotFound) {
			return err
		}
		return q.CreateAccount(ctx, a)
	})
	if err != nil {
		return core.Account{}, err
	}

	slog.InfoContext(ctx, "Account created",
		"owner_id", ownerID,
		"account_id", a.ID,
		"role", role)
	return a, nil
}

func (s *AccountService) GetAccount(ctx context.Context, ownerID, accountID uuid.UUID) (core.Account, error) {
	return s.store.Queries().GetAccountForOwner(ctx, ownerID, accountID)
}

func (s *AccountService) ListAccounts(ctx context.Context, ownerID uuid.UUID) ([]core.Account, error) {
	return s.store.Queries().ListAccounts(ctx, ownerID)
}

// Onboard bootstraps a fresh owner with the standard checking/savings pair.
// It fails with a conflict if the owner already has either account.
func (s *AccountService) Onboard(ctx context.Context, ownerID uuid.UUID, checkingBalance, savingsBalance core.Money) ([]core.Account, error) {
	accounts := []core.Account{
		{
			ID:             uuid.New(),
			OwnerID:        ownerID,
			Name:           "Checking",
			Role:           core.RoleChecking,
			OpeningBalance: checkingBalance,
			CreatedAt:      nowUTC(),
		},
		{
			ID:             uuid.New(),
			OwnerID:        ownerID,
			Name:           "Savings",
			Role:           core.RoleSavings,
			OpeningBalance: savingsBalance,
			CreatedAt:      nowUTC(),
		},
	}

	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		existing, err := q.ListAccounts(ctx, ownerID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return core.Conflict("owner already onboarded")
		}
		for _, a := range accounts {
			if err := q.CreateAccount(ctx, a); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Owner onboarded", "owner_id", ownerID)
	return accounts, nil
}
