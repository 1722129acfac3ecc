package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/scoretree/internal/jobs"
)

type recordingEnqueuer struct {
	mu   sync.Mutex
	reqs []jobs.Request
	err  error
}

func (r *recordingEnqueuer) Enqueue(_ context.Context, req jobs.Request) (*jobs.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.reqs = append(r.reqs, req)
	return &jobs.Job{JobID: "id", JobType: req.Type}, nil
}

func TestNewOrchestratorRegistersSchedules(t *testing.T) {
	o, err := NewOrchestrator(&recordingEnqueuer{}, Config{Discovery: "0 4 * * *", Harvest: "*/30 * * * *"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, o.Entries())

	o, err = NewOrchestrator(&recordingEnqueuer{}, Config{Harvest: "@hourly"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, o.Entries())
}

func TestNewOrchestratorRejectsBadExpression(t *testing.T) {
	_, err := NewOrchestrator(&recordingEnqueuer{}, Config{Discovery: "every tuesday"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "discovery")
}

func TestEmptyScheduleStartsAndStops(t *testing.T) {
	o, err := NewOrchestrator(&recordingEnqueuer{}, Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, o.Entries())

	o.Start()
	o.Stop()
}

func TestTriggerEnqueuesTypedRequest(t *testing.T) {
	enq := &recordingEnqueuer{}
	o, err := NewOrchestrator(enq, Config{}, nil)
	require.NoError(t, err)

	o.trigger(jobs.JobTypeHarvest)
	o.trigger(jobs.JobTypeDiscovery)

	require.Len(t, enq.reqs, 2)
	assert.Equal(t, jobs.JobTypeHarvest, enq.reqs[0].Type)
	assert.Equal(t, jobs.JobTypeDiscovery, enq.reqs[1].Type)
	assert.Nil(t, enq.reqs[1].MinID)
}

func TestTriggerSurvivesEnqueueFailure(t *testing.T) {
	o, err := NewOrchestrator(&recordingEnqueuer{err: errors.New("queue full")}, Config{}, nil)
	require.NoError(t, err)

	assert.NotPanics(t, func() { o.trigger(jobs.JobTypeHarvest) })
}

func TestFieldsPairsKeysAndValues(t *testing.T) {
	f := fields([]interface{}{"entry", 3, "next", "soon", "dangling"})
	assert.Equal(t, 3, f["entry"])
	assert.Equal(t, "soon", f["next"])
	assert.NotContains(t, f, "dangling")
}
