package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/shelf/internal/store"
)

// SweepQueueName is the backlite queue the orphan sweep runs on.
const SweepQueueName = "sweep_orphans"

// OrphanSweeper removes books without an author and chapters without a book.
// store.Store implements it.
type OrphanSweeper interface {
	SweepOrphans(ctx context.Context) (store.CascadeResult, error)
}

// SweepRecorder is told about every sweep outcome. *audit.Service implements it.
type SweepRecorder interface {
	LogSweep(ctx context.Context, result store.CascadeResult, err error)
}

// SweepOrphansTask cleans up records left behind by an interrupted cascade.
// Running it twice is harmless: the second run finds nothing.
type SweepOrphansTask struct {
	Reason string `json:"reason"`
}

// Config returns the queue configuration for sweep tasks.
func (t SweepOrphansTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        SweepQueueName,
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// SweepOrphansProcessor creates a processor function for SweepOrphansTask.
func SweepOrphansProcessor(sweeper OrphanSweeper, recorder SweepRecorder) backlite.QueueProcessor[SweepOrphansTask] {
	return func(ctx context.Context, task SweepOrphansTask) error {
		if sweeper == nil {
			return errors.New("orphan sweeper not configured")
		}

		result, err := sweeper.SweepOrphans(ctx)
		if recorder != nil {
			recorder.LogSweep(ctx, result, err)
		}
		if err != nil {
			return fmt.Errorf("sweep orphans: %w", err)
		}

		log.Printf("[TASK] Orphan sweep (%s) removed %s", task.Reason, result)
		return nil
	}
}

// NewSweepOrphansQueue creates a backlite queue for sweep tasks.
func NewSweepOrphansQueue(sweeper OrphanSweeper, recorder SweepRecorder) backlite.Queue {
	return backlite.NewQueue(SweepOrphansProcessor(sweeper, recorder))
}
