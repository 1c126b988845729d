// Package export defines the outbound port for publishing monthly summaries.
package export

import (
	"context"

	"tally/internal/core"
)

// SummaryWriter publishes one month's budget-vs-actual summary to an
// external destination and returns a reference to the written data.
type SummaryWriter interface {
	WriteSummary(ctx context.Context, ownerID string, s core.Summary) (ref string, err error)
}
