package ports

import "time"

type SchedulerService interface {
	Start()
	Stop()
	// ScheduleEvery runs task every interval, the first run happening after
	// one interval. Scheduling a task with an existing name replaces it.
	ScheduleEvery(name string, interval time.Duration, task func()) error
	// WhenNextRun returns a zero time if no task is scheduled with the name.
	WhenNextRun(name string) time.Time
	Cancel(name string)
}
