// Package worker consumes statement-import batches from the queue and stages
// them through the reconciliation pipeline.
package worker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tally/internal/amqp"
	"tally/internal/cache"
	"tally/internal/core"
	"tally/internal/services"
)

// seenBatchWindow bounds how long a processed batch fingerprint is
// remembered for redelivery suppression.
const (
	seenBatchWindow  = time.Hour
	seenBatchMaxSize = 10_000
)

// ImportWorker turns queued import batches into staged PendingTransactions.
// Broker delivery is at-least-once, so processed batch fingerprints are
// cached and redeliveries dropped.
type ImportWorker struct {
	reconciler *services.ReconcileService
	maxRows    int
	seen       *cache.LRUCache[struct{}]
}

func NewImportWorker(reconciler *services.ReconcileService, maxRows int) *ImportWorker {
	return &ImportWorker{
		reconciler: reconciler,
		maxRows:    maxRows,
		seen:       cache.NewLRUCache[struct{}](seenBatchMaxSize, seenBatchWindow),
	}
}

// HandleImportBatch processes one queued batch. Validation failures are
// permanent: the batch is logged and dropped rather than requeued, since a
// replay cannot fix bad input.
func (w *ImportWorker) HandleImportBatch(ctx context.Context, msg *amqp.ImportBatchMessage) error {
	slog.InfoContext(ctx, "Processing import batch",
		"owner_id", msg.OwnerID,
		"target_role", msg.TargetRole,
		"records", len(msg.Records))

	fingerprint := batchFingerprint(msg)
	if _, dup := w.seen.Get(fingerprint); dup {
		slog.InfoContext(ctx, "Dropping redelivered import batch",
			"owner_id", msg.OwnerID,
			"fingerprint", fingerprint)
		return nil
	}

	records, err := decodeRecords(msg)
	if err != nil {
		slog.WarnContext(ctx, "Dropping malformed import batch",
			"owner_id", msg.OwnerID,
			"error", err)
		return nil
	}
	if w.maxRows > 0 && len(records) > w.maxRows {
		slog.WarnContext(ctx, "Dropping oversized import batch",
			"owner_id", msg.OwnerID,
			"records", len(records),
			"limit", w.maxRows)
		return nil
	}

	staged, err := w.reconciler.ImportStatement(ctx, msg.OwnerID, core.Role(msg.TargetRole), records)
	if err != nil {
		if errors.Is(err, core.ErrValidation) {
			slog.WarnContext(ctx, "Dropping invalid import batch",
				"owner_id", msg.OwnerID,
				"error", err)
			return nil
		}
		return fmt.Errorf("stage import batch: %w", err)
	}

	w.seen.Set(fingerprint, struct{}{})
	slog.InfoContext(ctx, "Import batch staged",
		"owner_id", msg.OwnerID,
		"staged", staged)
	return nil
}

// batchFingerprint hashes the full message payload. The publisher timestamp
// is part of the hash, so two identical statements uploaded deliberately are
// still distinct batches.
func batchFingerprint(msg *amqp.ImportBatchMessage) string {
	h := sha256.New()
	data, err := msg.ToJSON()
	if err != nil {
		fmt.Fprintf(h, "%s|%s|%d|%d", msg.OwnerID, msg.TargetRole, len(msg.Records), msg.Timestamp.UnixNano())
	} else {
		h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func decodeRecords(msg *amqp.ImportBatchMessage) ([]services.StatementRecord, error) {
	records := make([]services.StatementRecord, 0, len(msg.Records))
	for i, rec := range msg.Records {
		day, err := time.Parse("2006-01-02", rec.Date)
		if err != nil {
			return nil, fmt.Errorf("record %d: parse date %q: %w", i+1, rec.Date, err)
		}
		records = append(records, services.StatementRecord{
			Description: rec.Description,
			Date:        core.DateOf(day),
			Amount:      core.Money{Cents: rec.AmountCents},
		})
	}
	return records, nil
}
