// Package scheduler drives the relay's background passes: the ticket
// watchdogs, the outbox worker and the CAEA bootstrap. Each job runs on its
// own ticker goroutine, so jobs proceed independently of each other while a
// single job never overlaps itself: a tick that fires mid-pass is delivered
// once the pass returns, and ticks missed beyond that collapse into one.
package scheduler

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Job is one recurring pass.
type Job struct {
	Name       string
	Interval   time.Duration
	RunAtStart bool
	Run        func(context.Context) error
}

// Scheduler owns the background job set. Register jobs with Add before
// Start; the set is fixed once running.
type Scheduler struct {
	logger *logrus.Logger
	jobs   []Job
	wg     sync.WaitGroup
}

func New(logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Scheduler{logger: logger}
}

func (s *Scheduler) Add(job Job) {
	s.jobs = append(s.jobs, job)
}

// Start launches every registered job and returns immediately. Jobs stop
// when ctx is canceled; Wait blocks until the last loop has exited.
func (s *Scheduler) Start(ctx context.Context) {
	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.run(ctx, job)
	}
	s.logger.Infof("Scheduler started with %d jobs", len(s.jobs))
}

// Wait blocks until all job loops have stopped.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context, job Job) {
	defer s.wg.Done()

	s.logger.Infof("Scheduled job %s every %s", job.Name, job.Interval)
	if job.RunAtStart {
		s.invoke(ctx, job)
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Infof("Scheduled job %s stopped", job.Name)
			return
		case <-ticker.C:
			s.invoke(ctx, job)
		}
	}
}

// invoke runs one pass. A panicking or failing pass is logged and the loop
// keeps its schedule; the relay's background work must survive bad passes.
func (s *Scheduler) invoke(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("Scheduled job %s panicked: %v", job.Name, r)
		}
	}()

	if err := job.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warnf("Scheduled job %s failed: %v", job.Name, err)
	}
}
