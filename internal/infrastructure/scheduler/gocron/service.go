package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/voltbridge/voltbridge/internal/core/ports"
)

type service struct {
	scheduler *gocron.Scheduler
	jobs      []*gocron.Job
	mu        *sync.Mutex
}

func NewScheduler() ports.SchedulerService {
	svc := gocron.NewScheduler(time.UTC)
	return &service{svc, nil, &sync.Mutex{}}
}

func (s *service) Start() {
	s.scheduler.StartAsync()
}

func (s *service) Stop() {
	s.scheduler.Stop()
}

// ScheduleRefundAtTime runs refundFunc once the lock timelock elapses.
// Refunds for different locks coexist; each job runs exactly once and is
// dropped afterwards.
func (s *service) ScheduleRefundAtTime(at time.Time, refundFunc func()) error {
	if at.IsZero() {
		return fmt.Errorf("invalid schedule time")
	}

	delay := time.Until(at)
	if delay < 0 {
		return fmt.Errorf("cannot schedule task in the past")
	}

	if delay == 0 {
		refundFunc()
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var job *gocron.Job
	job, err := s.scheduler.Every(delay).WaitForSchedule().LimitRunsTo(1).Do(func() {
		refundFunc()
		s.mu.Lock()
		defer s.mu.Unlock()
		s.scheduler.RemoveByReference(job)
		s.forget(job)
	})
	if err != nil {
		return err
	}

	s.jobs = append(s.jobs, job)
	return nil
}

// WhenNextRefund returns the earliest scheduled refund time
func (s *service) WhenNextRefund() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next time.Time
	for _, job := range s.jobs {
		runAt := job.NextRun()
		if runAt.IsZero() {
			continue
		}
		if next.IsZero() || runAt.Before(next) {
			next = runAt
		}
	}
	return next
}

func (s *service) forget(job *gocron.Job) {
	for i, j := range s.jobs {
		if j == job {
			s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
			return
		}
	}
}
