package worker

import (
	"context"
	"log/slog"
	"time"

	"tally/internal/core"
	"tally/internal/export"
	"tally/internal/services"
	"tally/internal/storage"

	"github.com/google/uuid"
)

// FundingWorker runs the monthly bulk savings funding across every owner
// that has savings categories, and optionally exports each owner's checking
// summary for the previous month once funding is done.
type FundingWorker struct {
	store     *storage.Store
	transfers *services.TransferService
	summaries *services.SummaryService
	exporter  export.SummaryWriter // nil disables export
}

func NewFundingWorker(store *storage.Store, exporter export.SummaryWriter) *FundingWorker {
	return &FundingWorker{
		store:     store,
		transfers: services.NewTransferService(store),
		summaries: services.NewSummaryService(store),
		exporter:  exporter,
	}
}

// RunMonth funds the given month for every owner. Owners fail independently:
// one broken owner does not stop the pass. Returns the number of funding
// pairs written.
func (w *FundingWorker) RunMonth(ctx context.Context, year, month int) (int, error) {
	owners, err := w.store.Queries().ListOwnersWithSavingsCategories(ctx)
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Funding pass started",
		"year", year,
		"month", month,
		"owners", len(owners))

	total := 0
	for _, ownerID := range owners {
		funded, err := w.transfers.FundAllUnfunded(ctx, ownerID, year, month)
		if err != nil {
			slog.ErrorContext(ctx, "Funding failed for owner",
				"owner_id", ownerID,
				"error", err)
			continue
		}
		total += funded
		if funded > 0 {
			w.exportPreviousMonth(ctx, ownerID, year, month)
		}
	}

	slog.InfoContext(ctx, "Funding pass complete",
		"year", year,
		"month", month,
		"funded", total)
	return total, nil
}

// RunCurrentMonth is the cron entry point.
func (w *FundingWorker) RunCurrentMonth(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	return w.RunMonth(ctx, now.Year(), int(now.Month()))
}

// exportPreviousMonth writes the owner's closed-out checking summary to the
// configured sheet. Export failures are logged, never fatal: funding already
// happened and must not roll back over a reporting problem.
func (w *FundingWorker) exportPreviousMonth(ctx context.Context, ownerID uuid.UUID, year, month int) {
	if w.exporter == nil {
		return
	}

	prev := core.NewDate(year, month, 1).AddDate(0, -1, 0)

	checking, err := w.store.Queries().GetAccountByRole(ctx, ownerID, core.RoleChecking)
	if err != nil {
		slog.WarnContext(ctx, "Skipping summary export, no checking account",
			"owner_id", ownerID,
			"error", err)
		return
	}

	summary, err := w.summaries.Summarize(ctx, ownerID, checking.ID, prev.Year(), int(prev.Month()))
	if err != nil {
		slog.WarnContext(ctx, "Skipping summary export, summarize failed",
			"owner_id", ownerID,
			"error", err)
		return
	}

	ref, err := w.exporter.WriteSummary(ctx, ownerID.String(), summary)
	if err != nil {
		slog.ErrorContext(ctx, "Summary export failed",
			"owner_id", ownerID,
			"error", err)
		return
	}
	slog.InfoContext(ctx, "Summary exported",
		"owner_id", ownerID,
		"sheets_ref", ref)
}
