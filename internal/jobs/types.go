package jobs

import "time"

// JobType enumerates the supported job variants.
type JobType string

const (
	JobTypeDiscovery JobType = "discovery"
	JobTypeHarvest   JobType = "harvest"
)

// JobStatus represents the lifecycle state for a job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Terminal reports whether no further transitions happen from s.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// Job is the tracked state of one discovery or harvest run.
type Job struct {
	JobID           string     `json:"job_id"`
	JobType         JobType    `json:"job_type"`
	MinID           int64      `json:"min_id,omitempty"`
	MaxID           int64      `json:"max_id,omitempty"`
	Status          JobStatus  `json:"status"`
	StatusMessage   string     `json:"status_message,omitempty"`
	ProgressCurrent int        `json:"progress_current"`
	ProgressTotal   int        `json:"progress_total"`
	LastError       string     `json:"last_error,omitempty"`
	Result          *JobResult `json:"result,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// Copy returns a copy safe to hand out of the store.
func (j *Job) Copy() *Job {
	if j == nil {
		return nil
	}
	cpy := *j
	if j.Result != nil {
		res := *j.Result
		cpy.Result = &res
	}
	return &cpy
}

// JobResult carries the counters of a finished job.
type JobResult struct {
	Requested       int `json:"requested,omitempty"`
	Matches         int `json:"matches,omitempty"`
	Entries         int `json:"entries,omitempty"`
	EntriesFailed   int `json:"entries_failed,omitempty"`
	Records         int `json:"records,omitempty"`
	CommentRequests int `json:"comment_requests,omitempty"`
	SinkErrors      int `json:"sink_errors,omitempty"`
}

// JobSpec describes the work to be performed by the runner.
type JobSpec struct {
	Type   JobType
	MinID  int64
	MaxID  int64
	DryRun bool
}

// Reporter receives lifecycle callbacks from the runner.
type Reporter interface {
	OnJobStart(spec JobSpec)
	OnProgress(message string, current int, total int)
	OnJobComplete(result JobResult)
	OnJobError(err error)
}

// StatusSummary is returned to API callers.
type StatusSummary struct {
	ActiveJob *Job   `json:"active_job,omitempty"`
	Queued    int    `json:"queued"`
	History   []*Job `json:"recent_jobs,omitempty"`
}
