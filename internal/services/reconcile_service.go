package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"tally/internal/core"
	"tally/internal/storage"

	"github.com/google/uuid"
)

// inflowVocabulary drives the import classifier: a statement row whose
// description contains one of these (case-insensitive) is staged as an
// inflow, everything else as an outflow.
var inflowVocabulary = []string{
	"refund",
	"reimburs",
	"payment received",
	"deposit",
	"interest",
	"cashback",
}

// StatementRecord is one already-parsed statement row: absolute amount, the
// classifier decides the sign.
type StatementRecord struct {
	Description string
	Date        core.Date
	Amount      core.Money
}

// FinalizeItem routes one staged record into a permanent account/category.
type FinalizeItem struct {
	PendingID  uuid.UUID
	AccountID  uuid.UUID
	CategoryID uuid.UUID
}

// ReconcileService stages imported statement rows as PendingTransactions and
// promotes or discards them. Each staged row is consumed exactly once.
type ReconcileService struct {
	store *storage.Store
}

func NewReconcileService(store *storage.Store) *ReconcileService {
	return &ReconcileService{store: store}
}

// ImportStatement stages a batch of statement rows for the given target
// role. The batch is all-or-nothing: one malformed row aborts the whole
// import with a validation error naming the row, and nothing is staged.
func (s *ReconcileService) ImportStatement(ctx context.Context, ownerID uuid.UUID, targetRole core.Role, records []StatementRecord) (int, error) {
	if !targetRole.Valid() {
		return 0, core.ErrUnknownTargetRole
	}
	if len(records) == 0 {
		return 0, fmt.Errorf("%w: empty statement", core.ErrValidation)
	}

	staged := make([]core.PendingTransaction, 0, len(records))
	for i, rec := range records {
		p := core.PendingTransaction{
			ID:          uuid.New(),
			OwnerID:     ownerID,
			Description: strings.TrimSpace(rec.Description),
			Date:        rec.Date,
			Amount:      classifyAmount(rec.Description, rec.Amount),
			TargetRole:  targetRole,
			CreatedAt:   nowUTC(),
		}
		if err := p.Validate(); err != nil {
			return 0, fmt.Errorf("row %d: %w", i+1, err)
		}
		staged = append(staged, p)
	}

	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		for _, p := range staged {
			if err := q.CreatePending(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Statement imported",
		"owner_id", ownerID,
		"target_role", targetRole,
		"staged", len(staged))
	return len(staged), nil
}

// classifyAmount applies the sign heuristic: inflow when the description
// matches the vocabulary, outflow otherwise. Input amounts are absolute.
func classifyAmount(description string, amount core.Money) core.Money {
	lower := strings.ToLower(description)
	for _, marker := range inflowVocabulary {
		if strings.Contains(lower, marker) {
			return amount.Abs()
		}
	}
	return amount.Abs().Neg()
}

// ListPending returns the owner's staged rows for a target role in insertion
// order.
func (s *ReconcileService) ListPending(ctx context.Context, ownerID uuid.UUID, targetRole core.Role) ([]core.PendingTransaction, error) {
	if !targetRole.Valid() {
		return nil, core.ErrUnknownTargetRole
	}
	return s.store.Queries().ListPending(ctx, ownerID, targetRole)
}

// IgnorePending deletes staged rows with no ledger effect. Unknown ids are
// skipped; the count of actual deletions is returned, and a batch matching
// nothing at all is a not-found error.
func (s *ReconcileService) IgnorePending(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: no pending ids given", core.ErrValidation)
	}

	var deleted int
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		deleted = 0
		for _, id := range ids {
			ok, err := q.DeletePending(ctx, ownerID, id)
			if err != nil {
				return err
			}
			if ok {
				deleted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if deleted == 0 {
		return 0, core.NotFound("pending transaction")
	}

	slog.InfoContext(ctx, "Pending transactions ignored",
		"owner_id", ownerID,
		"requested", len(ids),
		"deleted", deleted)
	return deleted, nil
}

// FinalizePending promotes staged rows into permanent transactions. Items
// are independent: each runs in its own transaction (create + delete as one
// unit), and one bad item never aborts the rest; the count of successes is
// returned.
func (s *ReconcileService) FinalizePending(ctx context.Context, ownerID uuid.UUID, items []FinalizeItem) (int, error) {
	if len(items) == 0 {
		return 0, fmt.Errorf("%w: no items given", core.ErrValidation)
	}

	finalized := 0
	for _, item := range items {
		if err := s.finalizeOne(ctx, ownerID, item); err != nil {
			slog.WarnContext(ctx, "Skipping pending transaction",
				"owner_id", ownerID,
				"pending_id", item.PendingID,
				"error", err)
			continue
		}
		finalized++
	}

	slog.InfoContext(ctx, "Pending transactions finalized",
		"owner_id", ownerID,
		"requested", len(items),
		"finalized", finalized)
	return finalized, nil
}

func (s *ReconcileService) finalizeOne(ctx context.Context, ownerID uuid.UUID, item FinalizeItem) error {
	return s.store.WithTx(ctx, func(q *storage.Queries) error {
		p, err := q.GetPendingForOwner(ctx, ownerID, item.PendingID)
		if err != nil {
			return err
		}
		if _, err := q.GetAccountForOwner(ctx, ownerID, item.AccountID); err != nil {
			return err
		}
		if _, err := q.GetCategoryForOwner(ctx, ownerID, item.CategoryID); err != nil {
			return err
		}

		t := core.Transaction{
			ID:          uuid.New(),
			OwnerID:     ownerID,
			AccountID:   item.AccountID,
			CategoryID:  item.CategoryID,
			Amount:      p.Amount, // original signed amount, as classified on import
			Description: p.Description,
			Date:        p.Date,
			CreatedAt:   nowUTC(),
		}
		if err := t.Validate(); err != nil {
			return err
		}
		if err := q.CreateTransaction(ctx, t); err != nil {
			return err
		}

		// Exactly-once: a concurrent finalize of the same id loses here and
		// the whole item rolls back.
		ok, err := q.DeletePending(ctx, ownerID, item.PendingID)
		if err != nil {
			return err
		}
		if !ok {
			return core.NotFound("pending transaction")
		}
		return nil
	})
}
