package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/scoretree/internal/cache"
	"github.com/fortuna/scoretree/internal/logging"
)

// ErrJobNotFound is returned for unknown job ids.
var ErrJobNotFound = errors.New("job not found")

// snapshotTTL bounds how long cached job snapshots live.
const snapshotTTL = 24 * time.Hour

// StatusCache mirrors job snapshots; satisfied by *cache.RedisCache.
type StatusCache interface {
	PutJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, v interface{}) (bool, error)
}

// Repository holds job state in memory, mirroring every change to an
// optional status cache.
type Repository struct {
	mu    sync.RWMutex
	jobs  map[string]*Job
	order []string

	cache StatusCache
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewRepository constructs a Repository. statusCache may be nil.
func NewRepository(statusCache StatusCache, logger logrus.FieldLogger) *Repository {
	return &Repository{
		jobs:  make(map[string]*Job),
		cache: statusCache,
		log:   logging.Component(logger, "jobs"),
		now:   time.Now,
	}
}

// CacheKey is the status cache key of a job.
func CacheKey(jobID string) string {
	return cache.Key("jobs", jobID)
}

// CreateJob stores a new queued job and returns a copy.
func (r *Repository) CreateJob(ctx context.Context, job *Job) (*Job, error) {
	r.mu.Lock()
	stored := job.Copy()
	stored.JobID = uuid.NewString()
	stored.Status = JobStatusQueued
	stored.CreatedAt = r.now()
	stored.UpdatedAt = stored.CreatedAt
	r.jobs[stored.JobID] = stored
	r.order = append(r.order, stored.JobID)
	out := stored.Copy()
	r.mu.Unlock()

	r.mirror(ctx, out)
	return out, nil
}

// UpdateStatus sets status, message and optional error.
func (r *Repository) UpdateStatus(ctx context.Context, jobID string, status JobStatus, message string, lastErr error) error {
	return r.update(ctx, jobID, func(job *Job, now time.Time) {
		job.Status = status
		job.StatusMessage = message
		if lastErr != nil {
			job.LastError = lastErr.Error()
		}
		if status == JobStatusRunning && job.StartedAt == nil {
			job.StartedAt = &now
		}
		if status.Terminal() {
			job.CompletedAt = &now
		}
	})
}

// UpdateProgress updates the progress counters and message.
func (r *Repository) UpdateProgress(ctx context.Context, jobID string, current, total int, message string) error {
	return r.update(ctx, jobID, func(job *Job, _ time.Time) {
		job.ProgressCurrent = current
		job.ProgressTotal = total
		job.StatusMessage = message
	})
}

// SetResult attaches the final counters.
func (r *Repository) SetResult(ctx context.Context, jobID string, result JobResult) error {
	return r.update(ctx, jobID, func(job *Job, _ time.Time) {
		job.Result = &result
	})
}

func (r *Repository) update(ctx context.Context, jobID string, fn func(job *Job, now time.Time)) error {
	r.mu.Lock()
	job, ok := r.jobs[jobID]
	if !ok {
		r.mu.Unlock()
		return ErrJobNotFound
	}
	now := r.now()
	fn(job, now)
	job.UpdatedAt = now
	out := job.Copy()
	r.mu.Unlock()

	r.mirror(ctx, out)
	return nil
}

// GetJob returns a job by id, falling back to the status cache for jobs
// created by another process.
func (r *Repository) GetJob(ctx context.Context, jobID string) (*Job, error) {
	r.mu.RLock()
	job, ok := r.jobs[jobID]
	out := job.Copy()
	r.mu.RUnlock()
	if ok {
		return out, nil
	}

	if r.cache != nil {
		var cached Job
		found, err := r.cache.GetJSON(ctx, CacheKey(jobID), &cached)
		if err != nil {
			return nil, err
		}
		if found {
			return &cached, nil
		}
	}
	return nil, ErrJobNotFound
}

// GetActiveJob returns the running job, if any.
func (r *Repository) GetActiveJob(context.Context) (*Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		if job := r.jobs[id]; job.Status == JobStatusRunning {
			return job.Copy(), nil
		}
	}
	return nil, nil
}

// CountQueued returns the number of jobs waiting to run.
func (r *Repository) CountQueued(context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, job := range r.jobs {
		if job.Status == JobStatusQueued {
			n++
		}
	}
	return n
}

// ListRecentJobs returns up to limit jobs, newest first.
func (r *Repository) ListRecentJobs(_ context.Context, limit int) ([]*Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Job
	for i := len(r.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.jobs[r.order[i]].Copy())
	}
	return out, nil
}

func (r *Repository) mirror(ctx context.Context, job *Job) {
	if r.cache == nil {
		return
	}
	if err := r.cache.PutJSON(ctx, CacheKey(job.JobID), job, snapshotTTL); err != nil {
		r.log.WithField(logging.FieldJobID, job.JobID).WithError(err).Warn("failed to cache job status")
	}
}
