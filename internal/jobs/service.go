package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/scoretree/internal/logging"
)

// ErrQueueFull is returned when too many jobs are waiting.
var ErrQueueFull = errors.New("job queue is full")

const queueSize = 64

// Request represents a job invocation request.
type Request struct {
	Type   JobType `json:"type"`
	MinID  *int64  `json:"min_id,omitempty"`
	MaxID  *int64  `json:"max_id,omitempty"`
	DryRun bool    `json:"dry_run,omitempty"`
}

// DeriveType returns the explicit type, or discovery when a range is given.
func (r Request) DeriveType() (JobType, error) {
	switch r.Type {
	case JobTypeDiscovery, JobTypeHarvest:
		return r.Type, nil
	case "":
		if r.MinID != nil || r.MaxID != nil {
			return JobTypeDiscovery, nil
		}
		return "", fmt.Errorf("unable to determine job type from request")
	default:
		return "", fmt.Errorf("unknown job type %q", r.Type)
	}
}

// Defaults fill in discovery ranges omitted from a request. MaxRange bounds
// the width of any requested range; zero selects DefaultMaxRange.
type Defaults struct {
	MinID    int64
	MaxID    int64
	MaxRange int64
}

// Service coordinates job state, execution and status reporting. Jobs run
// one at a time on a single background worker.
type Service struct {
	repo     *Repository
	runner   *Runner
	defaults Defaults

	historyLimit int
	queue        chan string
	specs        sync.Map

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	log logrus.FieldLogger
}

// NewService constructs a Service. Call Start to launch the worker.
func NewService(repo *Repository, runner *Runner, defaults Defaults, logger logrus.FieldLogger) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		repo:         repo,
		runner:       runner,
		defaults:     defaults,
		historyLimit: 10,
		queue:        make(chan string, queueSize),
		ctx:          ctx,
		cancel:       cancel,
		log:          logging.Component(logger, "jobs"),
	}
}

// Start launches the background worker loop.
func (s *Service) Start() {
	s.wg.Add(1)
	go s.worker()
}

// Shutdown stops the worker and waits for the running job to return.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Enqueue creates a new job from the provided request.
func (s *Service) Enqueue(ctx context.Context, req Request) (*Job, error) {
	jobType, err := req.DeriveType()
	if err != nil {
		return nil, err
	}

	spec := JobSpec{Type: jobType, DryRun: req.DryRun}
	job := &Job{JobType: jobType, StatusMessage: "Queued"}

	if jobType == JobTypeDiscovery {
		spec.MinID, spec.MaxID = s.defaults.MinID, s.defaults.MaxID
		if req.MinID != nil {
			spec.MinID = *req.MinID
		}
		if req.MaxID != nil {
			spec.MaxID = *req.MaxID
		}
		spec.MinID, spec.MaxID = orderedRange(spec.MinID, spec.MaxID)
		if err := ValidateRange(spec.MinID, spec.MaxID, s.defaults.MaxRange); err != nil {
			return nil, err
		}
		job.MinID, job.MaxID = spec.MinID, spec.MaxID
		job.ProgressTotal = specProgressUnits(spec)
	}

	stored, err := s.repo.CreateJob(ctx, job)
	if err != nil {
		return nil, err
	}
	s.specs.Store(stored.JobID, spec)

	select {
	case s.queue <- stored.JobID:
	default:
		s.specs.Delete(stored.JobID)
		_ = s.repo.UpdateStatus(ctx, stored.JobID, JobStatusCancelled, "Queue full", ErrQueueFull)
		return nil, ErrQueueFull
	}

	s.log.WithFields(logrus.Fields{
		logging.FieldJobID: stored.JobID,
		"job_type":         jobType,
	}).Info("job queued")
	return stored, nil
}

// GetStatus returns the currently running job plus recent history.
func (s *Service) GetStatus(ctx context.Context) (*StatusSummary, error) {
	active, err := s.repo.GetActiveJob(ctx)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.ListRecentJobs(ctx, s.historyLimit)
	if err != nil {
		return nil, err
	}

	return &StatusSummary{
		ActiveJob: active,
		Queued:    s.repo.CountQueued(ctx),
		History:   history,
	}, nil
}

// GetJob returns one job by id.
func (s *Service) GetJob(ctx context.Context, jobID string) (*Job, error) {
	return s.repo.GetJob(ctx, jobID)
}

func (s *Service) worker() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case jobID := <-s.queue:
			s.executeJob(jobID)
		}
	}
}

func (s *Service) executeJob(jobID string) {
	log := s.log.WithField(logging.FieldJobID, jobID)

	raw, ok := s.specs.LoadAndDelete(jobID)
	if !ok {
		log.Error("missing job spec")
		_ = s.repo.UpdateStatus(s.ctx, jobID, JobStatusFailed, "Invalid job specification", fmt.Errorf("missing spec"))
		return
	}
	spec := raw.(JobSpec)

	_ = s.repo.UpdateStatus(s.ctx, jobID, JobStatusRunning, "Starting job...", nil)

	// bookkeeping outlives a shutdown that cancels the run
	bookkeeping := context.WithoutCancel(s.ctx)

	reporter := &jobReporter{ctx: bookkeeping, repo: s.repo, jobID: jobID, total: specProgressUnits(spec)}
	result, err := s.runner.Run(s.ctx, spec, reporter)
	_ = s.repo.SetResult(bookkeeping, jobID, result)

	if err != nil {
		log.WithError(err).Error("job failed")
		status := JobStatusFailed
		if errors.Is(err, context.Canceled) {
			status = JobStatusCancelled
		}
		_ = s.repo.UpdateStatus(bookkeeping, jobID, status, "Job failed", err)
		return
	}

	log.WithField("result", fmt.Sprintf("%+v", result)).Info("job completed")
	_ = s.repo.UpdateStatus(bookkeeping, jobID, JobStatusCompleted, "Job completed", nil)
}

type jobReporter struct {
	ctx     context.Context
	repo    *Repository
	jobID   string
	current int
	total   int
}

func (r *jobReporter) OnJobStart(spec JobSpec) {
	_ = r.repo.UpdateProgress(r.ctx, r.jobID, 0, r.total, fmt.Sprintf("Starting %s job", spec.Type))
}

func (r *jobReporter) OnProgress(message string, current int, total int) {
	if total > 0 {
		r.total = total
	}
	r.current = current
	_ = r.repo.UpdateProgress(r.ctx, r.jobID, current, r.total, message)
}

func (r *jobReporter) OnJobComplete(JobResult) {
	_ = r.repo.UpdateProgress(r.ctx, r.jobID, r.total, r.total, "Job complete")
}

func (r *jobReporter) OnJobError(err error) {
	_ = r.repo.UpdateProgress(r.ctx, r.jobID, r.current, r.total, err.Error())
}

func specProgressUnits(spec JobSpec) int {
	if spec.Type != JobTypeDiscovery {
		return 0
	}
	return rangeUnits(spec.MinID, spec.MaxID)
}
