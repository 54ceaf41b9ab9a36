package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"

	"github.com/mrlokans/library/internal/database/books"
)

// CopyCounterStore exposes the book counters and a way to rebuild them from
// the loan records.
type CopyCounterStore interface {
	CopyStates(ctx context.Context) ([]books.CopyState, error)
	RecomputeAvailable(ctx context.Context, id string) error
}

// ReconcileCopiesTask compares every book's availableCopies with its active
// loans. With Repair set, drifted counters are rewritten.
type ReconcileCopiesTask struct {
	Repair bool `json:"repair"`
}

// Config returns the queue configuration for reconciliation tasks.
func (t ReconcileCopiesTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "reconcile_copies",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ReconcileResult summarizes one reconciliation run.
type ReconcileResult struct {
	Checked  int
	Drifted  []books.CopyState
	Repaired int
}

// ReconcileCopies checks every book and, when repair is set, fixes the ones
// whose counter disagrees with the loan records.
func ReconcileCopies(ctx context.Context, store CopyCounterStore, repair bool, logger *zap.Logger) (*ReconcileResult, error) {
	states, err := store.CopyStates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load copy states: %w", err)
	}

	result := &ReconcileResult{Checked: len(states)}
	for _, state := range states {
		drift := state.Drift()
		if drift == 0 {
			continue
		}
		result.Drifted = append(result.Drifted, state)
		logger.Warn("Copy counter drift",
			zap.String("book_id", state.ID),
			zap.String("title", state.Title),
			zap.Int("total_copies", state.TotalCopies),
			zap.Int("available_copies", state.AvailableCopies),
			zap.Int64("active_loans", state.ActiveLoans),
			zap.Int64("drift", drift),
		)

		if !repair {
			continue
		}
		if err := store.RecomputeAvailable(ctx, state.ID); err != nil {
			return result, fmt.Errorf("repair book %s: %w", state.ID, err)
		}
		result.Repaired++
	}
	return result, nil
}

// ReconcileCopiesProcessor creates a processor function for ReconcileCopiesTask.
// recorder may be nil.
func ReconcileCopiesProcessor(store CopyCounterStore, recorder MaintenanceRecorder, logger *zap.Logger) backlite.QueueProcessor[ReconcileCopiesTask] {
	return func(ctx context.Context, task ReconcileCopiesTask) error {
		if store == nil {
			return errors.New("copy counter store not configured")
		}

		result, err := ReconcileCopies(ctx, store, task.Repair, logger)
		if recorder != nil && (err != nil || result.Checked > 0) {
			metadata := map[string]any{"repair": task.Repair}
			description := "copy counters checked"
			if result != nil {
				metadata["checked"] = result.Checked
				metadata["drifted"] = len(result.Drifted)
				metadata["repaired"] = result.Repaired
				description = fmt.Sprintf("%d of %d books drifted, %d repaired",
					len(result.Drifted), result.Checked, result.Repaired)
			}
			recorder.LogMaintenance(ctx, "reconcile_copies", description, metadata, err)
		}
		if err != nil {
			return err
		}

		logger.Info("Reconciled copy counters",
			zap.Int("checked", result.Checked),
			zap.Int("drifted", len(result.Drifted)),
			zap.Int("repaired", result.Repaired),
		)
		return nil
	}
}

// NewReconcileCopiesQueue creates a backlite queue for reconciliation tasks.
func NewReconcileCopiesQueue(store CopyCounterStore, recorder MaintenanceRecorder, logger *zap.Logger) backlite.Queue {
	return backlite.NewQueue(ReconcileCopiesProcessor(store, recorder, logger.Named("tasks")))
}
