package services

import (
	"context"
	"log/slog"

	"tally/internal/core"
	"tally/internal/storage"

	"github.com/google/uuid"
)

// CategoryService manages budget categories. Category names are unique per
// owner and type; deleting a category that ledger rows still reference is a
// conflict.
type CategoryService struct {
	store *storage.Store
}

func NewCategoryService(store *storage.Store) *CategoryService {
	return &CategoryService{store: store}
}

func (s *CategoryService) CreateCategory(ctx context.Context, ownerID uuid.UUID, name string, typ core.CategoryType, budgeted core.Money) (core.Category, error) {
	c := core.Category{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		Name:           name,
		Type:           typ,
		BudgetedAmount: budgeted,
		CreatedAt:      nowUTC(),
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.store.Queries().CreateCategory(ctx, c); err != nil {
		return core.Category{}, err
	}

	slog.InfoContext(ctx, "Category created",
		"owner_id", ownerID,
		"category_id", c.ID,
		"type", typ)
	return c, nil
}

func (s *CategoryService) GetCategory(ctx context.Context, ownerID, categoryID uuid.UUID) (core.Category, error) {
	return s.store.Queries().GetCategoryForOwner(ctx, ownerID, categoryID)
}

func (s *CategoryService) ListCategories(ctx context.Context, ownerID uuid.UUID) ([]core.Category, error) {
	return s.store.Queries().ListCategories(ctx, ownerID)
}

// UpdateCategory applies a partial update and returns the new state. The
// patched row is revalidated as a whole, so a patch can never produce a
// category that CreateCategory would have rejected.
func (s *CategoryService) UpdateCategory(ctx context.Context, ownerID, categoryID uuid.UUID, patch core.CategoryPatch) (core.Category, error) {
	var updated core.Category
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		c, err := q.GetCategoryForOwner(ctx, ownerID, categoryID)
		if err != nil {
			return err
		}
		if patch.Name != nil {
			c.Name = *patch.Name
		}
		if patch.Type != nil {
			c.Type = *patch.Type
		}
		if patch.BudgetedAmount != nil {
			c.BudgetedAmount = *patch.BudgetedAmount
		}
		if err := c.Validate(); err != nil {
			return err
		}
		if err := q.UpdateCategory(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return core.Category{}, err
	}

	slog.InfoContext(ctx, "Category updated",
		"owner_id", ownerID,
		"category_id", categoryID)
	return updated, nil
}

func (s *CategoryService) DeleteCategory(ctx context.Context, ownerID, categoryID uuid.UUID) error {
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		return q.DeleteCategory(ctx, ownerID, categoryID)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Category deleted",
		"owner_id", ownerID,
		"category_id", categoryID)
	return nil
}
