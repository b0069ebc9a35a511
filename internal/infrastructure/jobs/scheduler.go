// Package jobs runs the recurring maintenance work of the admin API on a
// cron schedule.
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// JobFunc is a single unit of scheduled work. Errors are recorded per job,
// they never stop the scheduler.
type JobFunc func(ctx context.Context) error

// JobStatus is a point-in-time view of one registered job.
type JobStatus struct {
	Name     string     `json:"name"`
	Spec     string     `json:"spec"`
	LastRun  *time.Time `json:"lastRun,omitempty"`
	LastErr  string     `json:"lastError,omitempty"`
	NextRun  time.Time  `json:"nextRun"`
	RunCount int64      `json:"runCount"`
}

type job struct {
	name     string
	spec     string
	entryID  cron.EntryID
	lastRun  *time.Time
	lastErr  string
	runCount int64
}

// Scheduler wraps a cron runner and keeps per-job run state for the
// operations endpoint.
type Scheduler struct {
	cron   *cron.Cron
	logger zerolog.Logger

	mu   sync.Mutex
	jobs []*job
}

func NewScheduler(logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: logger.With().Str("component", "scheduler").Logger(),
	}
}

// Register adds a job under a standard 5-field cron spec. It returns an
// error for a malformed spec so wiring mistakes surface at startup.
func (s *Scheduler) Register(name, spec string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j := &job{name: name, spec: spec}
	entryID, err := s.cron.AddFunc(spec, func() {
		s.run(j, fn)
	})
	if err != nil {
		return err
	}
	j.entryID = entryID
	s.jobs = append(s.jobs, j)
	s.logger.Info().Str("job", name).Str("spec", spec).Msg("job registered")
	return nil
}

func (s *Scheduler) run(j *job, fn JobFunc) {
	started := time.Now().UTC()
	err := fn(context.Background())

	s.mu.Lock()
	j.lastRun = &started
	j.runCount++
	if err != nil {
		j.lastErr = err.Error()
	} else {
		j.lastErr = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().Err(err).Str("job", j.name).Msg("job failed")
		return
	}
	s.logger.Info().Str("job", j.name).Dur("took", time.Since(started)).Msg("job completed")
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for any running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Snapshot reports the state of every registered job.
func (s *Scheduler) Snapshot() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, JobStatus{
			Name:     j.name,
			Spec:     j.spec,
			LastRun:  j.lastRun,
			LastErr:  j.lastErr,
			NextRun:  s.cron.Entry(j.entryID).Next,
			RunCount: j.runCount,
		})
	}
	return out
}
