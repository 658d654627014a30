package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/ArkLabsHQ/lightwallet/internal/core/ports"
	"github.com/go-co-op/gocron"
	log "github.com/sirupsen/logrus"
)

type service struct {
	scheduler *gocron.Scheduler
	mu        *sync.Mutex
	jobs      map[string]*gocron.Job
	started   bool
}

func NewScheduler() ports.SchedulerService {
	svc := gocron.NewScheduler(time.UTC)
	return &service{svc, &sync.Mutex{}, make(map[string]*gocron.Job), false}
}

func (s *service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Nothing to do if already started
	if s.started {
		return
	}
	s.scheduler.StartAsync()
	s.started = true
}

func (s *service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.scheduler.Stop()
	s.scheduler.Clear()
	s.jobs = make(map[string]*gocron.Job)
	s.started = false
}

func (s *service) ScheduleEvery(name string, interval time.Duration, task func()) error {
	if name == "" {
		return fmt.Errorf("missing task name")
	}
	if interval <= 0 {
		return fmt.Errorf("invalid interval %s", interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if job, ok := s.jobs[name]; ok {
		s.scheduler.RemoveByReference(job)
		delete(s.jobs, name)
	}

	job, err := s.scheduler.Every(interval).SingletonMode().WaitForSchedule().Do(func() {
		log.Debugf("scheduler: running task %s", name)
		task()
	})
	if err != nil {
		return err
	}
	s.jobs[name] = job
	return nil
}

func (s *service) WhenNextRun(name string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[name]
	if !ok {
		return time.Time{}
	}
	return job.NextRun()
}

func (s *service) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[name]
	if !ok {
		return
	}
	s.scheduler.RemoveByReference(job)
	delete(s.jobs, name)
}
