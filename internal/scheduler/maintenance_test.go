package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/shelf/internal/config"
	"github.com/mrlokans/shelf/internal/tasks"
)

type fakeQueue struct {
	mu    sync.Mutex
	tasks []backlite.Task
}

func (q *fakeQueue) Enqueue(_ context.Context, task backlite.Task) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
	return "task-id", nil
}

func TestMaintenanceScheduler_RunNow(t *testing.T) {
	queue := &fakeQueue{}
	s := NewMaintenanceScheduler(queue, config.Sweep{Enabled: true, Schedule: "0 3 * * *"}, 14)

	s.RunNow()

	require.Len(t, queue.tasks, 2)
	assert.Equal(t, tasks.SweepOrphansTask{Reason: "scheduled"}, queue.tasks[0])
	assert.Equal(t, tasks.CleanupActivityTask{RetentionDays: 14}, queue.tasks[1])
}

func TestMaintenanceScheduler_StartStop(t *testing.T) {
	s := NewMaintenanceScheduler(&fakeQueue{}, config.Sweep{Enabled: true, Schedule: "0 3 * * *"}, 30)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))
	assert.True(t, s.IsRunning())
	next := s.NextRun()
	require.NotNil(t, next)
	assert.Equal(t, 3, next.Hour())

	// a second start is a no-op
	require.NoError(t, s.Start(ctx))

	cancel()
	assert.Eventually(t, func() bool { return !s.IsRunning() }, 2*time.Second, 10*time.Millisecond)
	assert.Nil(t, s.NextRun())
}

func TestMaintenanceScheduler_Disabled(t *testing.T) {
	s := NewMaintenanceScheduler(&fakeQueue{}, config.Sweep{Enabled: false, Schedule: "0 3 * * *"}, 30)

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestMaintenanceScheduler_InvalidSchedule(t *testing.T) {
	s := NewMaintenanceScheduler(&fakeQueue{}, config.Sweep{Enabled: true, Schedule: "every night"}, 30)

	assert.Error(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestNextRunTime(t *testing.T) {
	from := time.Date(2024, 5, 1, 4, 0, 0, 0, time.UTC)

	next, err := NextRunTime("0 3 * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 2, 3, 0, 0, 0, time.UTC), next)

	_, err = NextRunTime("* *", from)
	assert.Error(t, err)
}
