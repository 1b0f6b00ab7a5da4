package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// CleanupQueueName is the backlite queue for activity log retention.
const CleanupQueueName = "cleanup_activity"

// ActivityCleaner deletes activity rows older than a retention period.
type ActivityCleaner interface {
	DeleteOldEvents(retention time.Duration) (int64, error)
}

// CleanupActivityTask trims the activity log.
type CleanupActivityTask struct {
	RetentionDays int `json:"retention_days"`
}

func (t CleanupActivityTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        CleanupQueueName,
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupActivityProcessor creates a processor function for CleanupActivityTask.
func CleanupActivityProcessor(cleaner ActivityCleaner) backlite.QueueProcessor[CleanupActivityTask] {
	return func(ctx context.Context, task CleanupActivityTask) error {
		if cleaner == nil {
			return errors.New("activity cleaner not configured")
		}

		retentionDays := task.RetentionDays
		if retentionDays <= 0 {
			retentionDays = 30
		}

		deleted, err := cleaner.DeleteOldEvents(time.Duration(retentionDays) * 24 * time.Hour)
		if err != nil {
			return fmt.Errorf("cleanup activity: %w", err)
		}

		log.Printf("[TASK] Removed %d activity events older than %d days", deleted, retentionDays)
		return nil
	}
}

func NewCleanupActivityQueue(cleaner ActivityCleaner) backlite.Queue {
	return backlite.NewQueue(CleanupActivityProcessor(cleaner))
}
