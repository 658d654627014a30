package monitor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

type TaskState string

const (
	TaskStateRunning    TaskState = "running"
	TaskStateRestarting TaskState = "restarting"
	TaskStateCompleted  TaskState = "completed"
	TaskStateFailed     TaskState = "failed"
	TaskStateCanceled   TaskState = "canceled"
	TaskStatePanicked   TaskState = "panicked"
)

type TaskStatus struct {
	Name             string
	State            TaskState
	StartTime        time.Time
	EndTime          time.Time
	LastHeartbeat    time.Time
	Restarts         int
	Error            string
	HeartbeatStalled bool
}

// TaskFunc is the body of a supervised task. It must return once ctx is done.
type TaskFunc func(ctx context.Context, hb Heartbeat) error

// Heartbeat lets a task tell the monitor it is still making progress.
type Heartbeat interface {
	Tick()
}

// Monitor supervises the long-running tasks of the wallet: the peer event
// loop, the chain poller and the rate refresh loops.
type Monitor struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.RWMutex
	tasks map[string]*taskRecord
	wg    sync.WaitGroup

	stallThreshold time.Duration
	checkInterval  time.Duration
	restartDelay   time.Duration
	logger         log.FieldLogger
}

type Option func(*Monitor)

func WithStallThreshold(d time.Duration) Option {
	return func(m *Monitor) {
		m.stallThreshold = d
	}
}

func WithCheckInterval(d time.Duration) Option {
	return func(m *Monitor) {
		m.checkInterval = d
	}
}

// WithRestartDelay sets how long a failed task started with GoRestart waits
// before running again.
func WithRestartDelay(d time.Duration) Option {
	return func(m *Monitor) {
		m.restartDelay = d
	}
}

func WithLogger(l log.FieldLogger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.logger = l
		}
	}
}

func New(opts ...Option) *Monitor {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Monitor{
		ctx:            ctx,
		cancel:         cancel,
		tasks:          make(map[string]*taskRecord),
		stallThreshold: 2 * time.Minute,
		checkInterval:  5 * time.Second,
		restartDelay:   10 * time.Second,
		logger:         log.WithField("component", "monitor"),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.checkInterval > 0 && m.stallThreshold > 0 {
		go m.watchdog()
	}
	return m
}

type TaskHandle struct {
	Name   string
	cancel context.CancelFunc
	done   chan struct{}
	mon    *Monitor
}

func (h TaskHandle) Stop() {
	if h.cancel != nil {
		h.cancel()
	}
}

func (h TaskHandle) Done() <-chan struct{} {
	return h.done
}

// StopAndWait cancels the task and blocks until it returned.
func (h TaskHandle) StopAndWait() {
	h.Stop()
	<-h.done
}

func (h TaskHandle) Status() TaskStatus {
	return h.mon.taskStatus(h.Name)
}

// Go runs fn once in its own goroutine.
func (m *Monitor) Go(name string, fn TaskFunc) TaskHandle {
	return m.spawn(name, fn, false)
}

// GoRestart runs fn and runs it again, after the restart delay, every time it
// fails or panics. It stops for good once fn returns nil or is canceled.
func (m *Monitor) GoRestart(name string, fn TaskFunc) TaskHandle {
	return m.spawn(name, fn, true)
}

func (m *Monitor) spawn(name string, fn TaskFunc, restart bool) TaskHandle {
	taskCtx, cancel := context.WithCancel(m.ctx)
	record := newTaskRecord(name)
	m.mu.Lock()
	m.tasks[name] = record
	m.mu.Unlock()

	done := make(chan struct{})
	hb := &heartbeat{task: record}
	logger := m.logger.WithField("task", name)

	m.wg.Add(1)
	go func() {
		defer close(done)
		defer m.wg.Done()
		defer cancel()

		for {
			err := runTask(taskCtx, fn, hb)
			if err == nil {
				if taskCtx.Err() != nil {
					record.finish(TaskStateCanceled, taskCtx.Err())
				} else {
					record.finish(TaskStateCompleted, nil)
				}
				return
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				record.finish(TaskStateCanceled, err)
				return
			}

			var p panicError
			state := TaskStateFailed
			if errors.As(err, &p) {
				state = TaskStatePanicked
			}
			logger.WithError(err).Warnf("task %s", state)

			if !restart {
				record.finish(state, err)
				return
			}
			record.restarting(err)
			select {
			case <-taskCtx.Done():
				record.finish(TaskStateCanceled, taskCtx.Err())
				return
			case <-time.After(m.restartDelay):
			}
			record.running()
			logger.Debug("task restarted")
		}
	}()

	return TaskHandle{
		Name:   name,
		cancel: cancel,
		done:   done,
		mon:    m,
	}
}

type panicError struct {
	value any
}

func (p panicError) Error() string {
	return fmt.Sprintf("panic: %v", p.value)
}

func runTask(ctx context.Context, fn TaskFunc, hb Heartbeat) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError{r}
		}
	}()
	return fn(ctx, hb)
}

// Snapshot returns the status of every task sorted by name.
func (m *Monitor) Snapshot() []TaskStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tasks := make([]TaskStatus, 0, len(m.tasks))
	for _, task := range m.tasks {
		tasks = append(tasks, task.status())
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Name < tasks[j].Name })
	return tasks
}

// Stop cancels all tasks and waits for them to exit.
func (m *Monitor) Stop() {
	m.cancel()
	m.wg.Wait()
}

func (m *Monitor) taskStatus(name string) TaskStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if task, ok := m.tasks[name]; ok {
		return task.status()
	}
	return TaskStatus{Name: name}
}

func (m *Monitor) watchdog() {
	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.inspectTasks(time.Now())
		}
	}
}

func (m *Monitor) inspectTasks(now time.Time) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, task := range m.tasks {
		stalled, changed := task.checkStall(now, m.stallThreshold)
		if !changed {
			continue
		}
		if stalled {
			m.logger.WithField("task", task.name).Warn("task stalled")
		} else {
			m.logger.WithField("task", task.name).Info("task recovered after stall")
		}
	}
}

type heartbeat struct {
	task *taskRecord
}

func (h *heartbeat) Tick() {
	h.task.touch()
}

type taskRecord struct {
	mu               sync.RWMutex
	name             string
	start            time.Time
	end              time.Time
	lastHeartbeat    time.Time
	state            TaskState
	restarts         int
	errMsg           string
	heartbeatStalled bool
}

func newTaskRecord(name string) *taskRecord {
	now := time.Now()
	return &taskRecord{
		name:          name,
		start:         now,
		lastHeartbeat: now,
		state:         TaskStateRunning,
	}
}

func (t *taskRecord) touch() {
	t.mu.Lock()
	t.lastHeartbeat = time.Now()
	t.mu.Unlock()
}

func (t *taskRecord) finish(state TaskState, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = state
	t.end = time.Now()
	if err != nil {
		t.errMsg = err.Error()
	}
}

func (t *taskRecord) restarting(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = TaskStateRestarting
	t.errMsg = err.Error()
	t.restarts++
}

func (t *taskRecord) running() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = TaskStateRunning
	t.lastHeartbeat = time.Now()
}

func (t *taskRecord) checkStall(now time.Time, threshold time.Duration) (stalled, changed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != TaskStateRunning {
		return t.heartbeatStalled, false
	}
	stalled = now.Sub(t.lastHeartbeat) > threshold
	changed = stalled != t.heartbeatStalled
	t.heartbeatStalled = stalled
	return stalled, changed
}

func (t *taskRecord) status() TaskStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return TaskStatus{
		Name:             t.name,
		State:            t.state,
		StartTime:        t.start,
		EndTime:          t.end,
		LastHeartbeat:    t.lastHeartbeat,
		Restarts:         t.restarts,
		Error:            t.errMsg,
		HeartbeatStalled: t.heartbeatStalled,
	}
}
