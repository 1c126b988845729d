package worker

import (
	"context"
	"path/filepath"
	"testing"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/services"
	"tally/internal/storage"

	"github.com/google/uuid"
)

func newWorker(t *testing.T) (*ImportWorker, *services.ReconcileService, uuid.UUID) {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "tally.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	reconciler := services.NewReconcileService(store)
	return NewImportWorker(reconciler, 100), reconciler, uuid.New()
}

func TestHandleImportBatchStagesRows(t *testing.T) {
	w, reconciler, ownerID := newWorker(t)
	ctx := context.Background()

	msg := amqp.NewImportBatchMessage(ownerID, "checking", []amqp.ImportRecord{
		{Description: "COFFEE SHOP", Date: "2024-03-03", AmountCents: 450},
		{Description: "Refund jacket", Date: "2024-03-04", AmountCents: 8000},
	})
	if err := w.HandleImportBatch(ctx, msg); err != nil {
		t.Fatalf("HandleImportBatch: %v", err)
	}

	pending, err := reconciler.ListPending(ctx, ownerID, core.RoleChecking)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}
	if pending[0].Amount.Cents != -450 || pending[1].Amount.Cents != 8000 {
		t.Errorf("amounts = %d, %d; want -450, 8000", pending[0].Amount.Cents, pending[1].Amount.Cents)
	}
}

func TestHandleImportBatchDropsBadBatches(t *testing.T) {
	w, reconciler, ownerID := newWorker(t)
	ctx := context.Background()

	tests := []struct {
		name string
		msg  *amqp.ImportBatchMessage
	}{
		{
			name: "bad date",
			msg: amqp.NewImportBatchMessage(ownerID, "checking", []amqp.ImportRecord{
				{Description: "x", Date: "03/04/2024", AmountCents: 100},
			}),
		},
		{
			name: "bad target role",
			msg: amqp.NewImportBatchMessage(ownerID, "brokerage", []amqp.ImportRecord{
				{Description: "x", Date: "2024-03-04", AmountCents: 100},
			}),
		},
		{
			name: "blank description",
			msg: amqp.NewImportBatchMessage(ownerID, "checking", []amqp.ImportRecord{
				{Description: "  ", Date: "2024-03-04", AmountCents: 100},
			}),
		},
		{
			name: "empty batch",
			msg:  amqp.NewImportBatchMessage(ownerID, "checking", nil),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Bad input is dropped, not requeued.
			if err := w.HandleImportBatch(ctx, tt.msg); err != nil {
				t.Fatalf("HandleImportBatch: %v", err)
			}
		})
	}

	pending, err := reconciler.ListPending(ctx, ownerID, core.RoleChecking)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending = %d, want 0", len(pending))
	}
}

func TestHandleImportBatchDropsRedelivery(t *testing.T) {
	w, reconciler, ownerID := newWorker(t)
	ctx := context.Background()

	msg := amqp.NewImportBatchMessage(ownerID, "checking", []amqp.ImportRecord{
		{Description: "COFFEE SHOP", Date: "2024-03-03", AmountCents: 450},
	})
	if err := w.HandleImportBatch(ctx, msg); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	// The broker redelivers the identical message after a reconnect.
	if err := w.HandleImportBatch(ctx, msg); err != nil {
		t.Fatalf("redelivery: %v", err)
	}

	pending, err := reconciler.ListPending(ctx, ownerID, core.RoleChecking)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1 (redelivery must not stage twice)", len(pending))
	}

	// A fresh upload of the same rows carries a new timestamp and stages.
	fresh := amqp.NewImportBatchMessage(ownerID, "checking", []amqp.ImportRecord{
		{Description: "COFFEE SHOP", Date: "2024-03-03", AmountCents: 450},
	})
	if fresh.Timestamp.Equal(msg.Timestamp) {
		t.Skip("timestamps collided; cannot distinguish batches")
	}
	if err := w.HandleImportBatch(ctx, fresh); err != nil {
		t.Fatalf("fresh batch: %v", err)
	}
	pending, _ = reconciler.ListPending(ctx, ownerID, core.RoleChecking)
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2 after distinct batch", len(pending))
	}
}

func TestHandleImportBatchEnforcesRowLimit(t *testing.T) {
	w, reconciler, ownerID := newWorker(t)
	w.maxRows = 2
	ctx := context.Background()

	msg := amqp.NewImportBatchMessage(ownerID, "checking", []amqp.ImportRecord{
		{Description: "a", Date: "2024-03-01", AmountCents: 100},
		{Description: "b", Date: "2024-03-02", AmountCents: 100},
		{Description: "c", Date: "2024-03-03", AmountCents: 100},
	})
	if err := w.HandleImportBatch(ctx, msg); err != nil {
		t.Fatalf("HandleImportBatch: %v", err)
	}

	pending, _ := reconciler.ListPending(ctx, ownerID, core.RoleChecking)
	if len(pending) != 0 {
		t.Fatalf("pending = %d, want 0 for oversized batch", len(pending))
	}
}
