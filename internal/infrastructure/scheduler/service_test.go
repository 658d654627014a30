package scheduler_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/ArkLabsHQ/lightwallet/internal/core/ports"
	scheduler "github.com/ArkLabsHQ/lightwallet/internal/infrastructure/scheduler/gocron"
	"github.com/stretchr/testify/require"
)

var schedulerTypes = map[string]func() ports.SchedulerService{
	"gocron": scheduler.NewScheduler,
}

func TestSchedulerService(t *testing.T) {
	for schedulerType, factory := range schedulerTypes {
		t.Run(schedulerType, func(t *testing.T) {
			testScheduler(t, factory)
		})
	}
}

func testScheduler(t *testing.T, newScheduler func() ports.SchedulerService) {
	t.Run("schedule every", func(t *testing.T) {
		svc := newScheduler()
		svc.Start()
		defer svc.Stop()

		var runs atomic.Int32
		now := time.Now()
		err := svc.ScheduleEvery("purge", time.Second, func() {
			runs.Add(1)
		})
		require.NoError(t, err)

		nextRun := svc.WhenNextRun("purge")
		require.False(t, nextRun.IsZero())
		require.True(t, nextRun.After(now))
		require.True(t, nextRun.Before(now.Add(2*time.Second)))

		require.Eventually(t, func() bool {
			return runs.Load() >= 2
		}, 5*time.Second, 50*time.Millisecond)
	})

	t.Run("cancel", func(t *testing.T) {
		svc := newScheduler()
		svc.Start()
		defer svc.Stop()

		var runs atomic.Int32
		err := svc.ScheduleEvery("purge", time.Second, func() {
			runs.Add(1)
		})
		require.NoError(t, err)

		svc.Cancel("purge")
		require.True(t, svc.WhenNextRun("purge").IsZero())

		time.Sleep(1500 * time.Millisecond)
		require.Zero(t, runs.Load())

		// Cancelling an unknown task is a no-op.
		svc.Cancel("unknown")
	})

	t.Run("reschedule replaces task", func(t *testing.T) {
		svc := newScheduler()
		svc.Start()
		defer svc.Stop()

		var first, second atomic.Int32
		require.NoError(t, svc.ScheduleEvery("purge", time.Second, func() { first.Add(1) }))
		require.NoError(t, svc.ScheduleEvery("purge", time.Second, func() { second.Add(1) }))

		require.Eventually(t, func() bool {
			return second.Load() >= 1
		}, 5*time.Second, 50*time.Millisecond)
		require.Zero(t, first.Load())
	})

	t.Run("invalid", func(t *testing.T) {
		svc := newScheduler()

		require.Error(t, svc.ScheduleEvery("", time.Second, func() {}))
		require.Error(t, svc.ScheduleEvery("purge", 0, func() {}))
		require.True(t, svc.WhenNextRun("purge").IsZero())
	})
}
