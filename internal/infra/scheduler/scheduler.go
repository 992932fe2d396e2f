// Package scheduler runs report generation on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron"
	"github.com/sirupsen/logrus"
)

// Job is one scheduled unit of work. Spec uses the six-field cron format
// (with seconds) or a descriptor such as "@weekly" or "@every 1h".
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

type Scheduler struct {
	cron    *cron.Cron
	log     logrus.FieldLogger
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	running map[string]bool
}

// New returns a stopped scheduler. timeout bounds each run.
func New(log logrus.FieldLogger, timeout time.Duration) *Scheduler {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(),
		log:     log,
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
		running: make(map[string]bool),
	}
}

func (s *Scheduler) Add(job Job) error {
	if job.Run == nil {
		return fmt.Errorf("job %s has no run func", job.Name)
	}
	if err := s.cron.AddFunc(job.Spec, func() { s.run(job) }); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", job.Name, job.Spec, err)
	}
	s.log.WithFields(logrus.Fields{"job": job.Name, "spec": job.Spec}).Info("job scheduled")
	return nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts the cron loop and cancels runs in flight.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.cancel()
}

// run executes job unless a previous run of it is still going.
func (s *Scheduler) run(job Job) {
	if !s.acquire(job.Name) {
		s.log.WithField("job", job.Name).Warn("previous run still in progress, skipping")
		return
	}
	defer s.release(job.Name)

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := job.Run(ctx)
	entry := s.log.WithFields(logrus.Fields{"job": job.Name, "duration": time.Since(start).String()})
	if err != nil {
		entry.WithError(err).Error("job failed")
		return
	}
	entry.Info("job finished")
}

func (s *Scheduler) acquire(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[name] {
		return false
	}
	s.running[name] = true
	return true
}

func (s *Scheduler) release(name string) {
	s.mu.Lock()
	delete(s.running, name)
	s.mu.Unlock()
}
