package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Job is a named piece of housekeeping run at a fixed interval.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

type Scheduler struct {
	jobs   map[string]*runningJob // job name -> job
	mu     sync.RWMutex
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	logger logrus.FieldLogger
}

type runningJob struct {
	job    Job
	ticker *time.Ticker
	cancel context.CancelFunc
	runs   int
	fails  int
}

// NewScheduler initializes a new Scheduler instance
func NewScheduler(logger logrus.FieldLogger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		jobs:   make(map[string]*runningJob),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// Start schedules every given job
func (s *Scheduler) Start(jobs ...Job) {
	s.logger.Info("Starting scheduler...")

	for _, job := range jobs {
		s.AddJob(job)
	}

	s.logger.Infof("Scheduler started with %d jobs", len(jobs))
}

// Stop cancels all jobs and waits for running ones to return
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler...")
	s.cancel()

	s.mu.Lock()
	for _, rj := range s.jobs {
		rj.ticker.Stop()
		rj.cancel()
	}
	s.jobs = make(map[string]*runningJob)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

// AddJob runs job once immediately and then on every interval. A job with
// the same name is replaced.
func (s *Scheduler) AddJob(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return
	}

	if existing, exists := s.jobs[job.Name]; exists {
		existing.ticker.Stop()
		existing.cancel()
	}

	jobCtx, jobCancel := context.WithCancel(s.ctx)
	rj := &runningJob{
		job:    job,
		ticker: time.NewTicker(job.Interval),
		cancel: jobCancel,
	}

	s.jobs[job.Name] = rj

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.execute(jobCtx, rj)
		s.run(jobCtx, rj)
	}()

	s.logger.WithField("job", job.Name).Infof("Added job with interval %s", job.Interval)
}

// RemoveJob stops a job by name
func (s *Scheduler) RemoveJob(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rj, exists := s.jobs[name]; exists {
		rj.ticker.Stop()
		rj.cancel()
		delete(s.jobs, name)
		s.logger.WithField("job", name).Info("Removed job")
	}
}

func (s *Scheduler) run(ctx context.Context, rj *runningJob) {
	defer rj.ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-rj.ticker.C:
			s.execute(ctx, rj)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, rj *runningJob) {
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	err := rj.job.Run(ctx)

	s.mu.Lock()
	rj.runs++
	if err != nil {
		rj.fails++
	}
	s.mu.Unlock()

	entry := s.logger.WithFields(logrus.Fields{
		"job":      rj.job.Name,
		"duration": time.Since(start).String(),
	})

	if err != nil {
		entry.WithError(err).Error("Job failed")
		return
	}

	entry.Debug("Job succeeded")
}

type JobStatus struct {
	Interval time.Duration `json:"interval"`
	Runs     int           `json:"runs"`
	Failures int           `json:"failures"`
}

// GetStatus returns current scheduler status
func (s *Scheduler) GetStatus() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make(map[string]JobStatus, len(s.jobs))
	for name, rj := range s.jobs {
		jobs[name] = JobStatus{Interval: rj.job.Interval, Runs: rj.runs, Failures: rj.fails}
	}

	return map[string]interface{}{
		"active_jobs": len(s.jobs),
		"jobs":        jobs,
		"running":     s.ctx.Err() == nil,
	}
}
