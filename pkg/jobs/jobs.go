package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Manager runs background jobs in-process and keeps their status queryable.
// Every deferred side effect (world images, story music, sprite batches) goes
// through here so completion and failure are observable instead of lost.
type Manager interface {
	Submit(ctx context.Context, name string, fn JobFunc) (uuid.UUID, error)
	Get(jobID uuid.UUID) (*Job, error)
	Cancel(jobID uuid.UUID) error
	Cleanup(age time.Duration)
	Shutdown(ctx context.Context) error
}

// Status of a job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// JobFunc is the unit of work. The returned value is exposed as Job.Result.
type JobFunc func(ctx context.Context) (interface{}, error)

// Job is a snapshot of one background job.
type Job struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Status    Status      `json:"status"`
	Message   string      `json:"message,omitempty"`
	Result    interface{} `json:"result,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`

	cancel context.CancelFunc
}

type manager struct {
	mu      sync.RWMutex
	jobs    map[uuid.UUID]*Job
	maxJobs int
	wg      sync.WaitGroup
	closed  bool
}

// New creates a job manager. maxJobs bounds concurrently active jobs.
func New(maxJobs int) Manager {
	if maxJobs <= 0 {
		maxJobs = 16
	}
	return &manager{
		jobs:    make(map[uuid.UUID]*Job),
		maxJobs: maxJobs,
	}
}

// Submit registers and starts a job, returning its id immediately. The job
// runs on a context detached from the caller's request so an HTTP response
// being sent does not cancel it.
func (m *manager) Submit(ctx context.Context, name string, fn JobFunc) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return uuid.UUID{}, errors.New("job manager is shutting down")
	}

	active := 0
	for _, j := range m.jobs {
		if j.Status == StatusPending || j.Status == StatusRunning {
			active++
		}
	}
	if active >= m.maxJobs {
		return uuid.UUID{}, fmt.Errorf("too many active jobs (%d)", active)
	}

	jobCtx, cancel := context.WithCancel(context.Background())
	jobCtx = log.Ctx(ctx).WithContext(jobCtx)

	job := &Job{
		ID:        uuid.New(),
		Name:      name,
		Status:    StatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		cancel:    cancel,
	}
	m.jobs[job.ID] = job

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer cancel()
		m.run(jobCtx, job, fn)
	}()

	return job.ID, nil
}

func (m *manager) run(ctx context.Context, job *Job, fn JobFunc) {
	m.update(job, StatusRunning, "", nil)

	result, err := fn(ctx)

	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		log.Ctx(ctx).Info().Str("jobID", job.ID.String()).Str("job", job.Name).Msg("job cancelled")
		m.update(job, StatusCancelled, "cancelled", nil)
	case err != nil:
		log.Ctx(ctx).Error().Err(err).Str("jobID", job.ID.String()).Str("job", job.Name).Msg("job failed")
		m.update(job, StatusFailed, err.Error(), nil)
	default:
		log.Ctx(ctx).Info().Str("jobID", job.ID.String()).Str("job", job.Name).Msg("job completed")
		m.update(job, StatusCompleted, "", result)
	}
}

func (m *manager) update(job *Job, status Status, message string, result interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job.Status = status
	job.Message = message
	if result != nil {
		job.Result = result
	}
	job.UpdatedAt = time.Now()
}

// Get returns a snapshot of the job.
func (m *manager) Get(jobID uuid.UUID) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("job %s not found", jobID)
	}
	snapshot := *job
	return &snapshot, nil
}

// Cancel aborts a pending or running job.
func (m *manager) Cancel(jobID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return fmt.Errorf("job %s not found", jobID)
	}
	if job.Status != StatusPending && job.Status != StatusRunning {
		return fmt.Errorf("cannot cancel job in status %s", job.Status)
	}
	if job.cancel != nil {
		job.cancel()
	}
	job.Status = StatusCancelled
	job.Message = "cancelled"
	job.UpdatedAt = time.Now()
	return nil
}

// Cleanup drops terminal jobs older than age.
func (m *manager) Cleanup(age time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-age)
	for id, job := range m.jobs {
		switch job.Status {
		case StatusCompleted, StatusFailed, StatusCancelled:
			if job.UpdatedAt.Before(cutoff) {
				delete(m.jobs, id)
			}
		}
	}
}

// Shutdown stops accepting jobs and waits for running ones, up to the
// context deadline.
func (m *manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.New("timed out waiting for jobs to finish")
	}
}
