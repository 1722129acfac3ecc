package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/scoretree/internal/jobs"
	"github.com/fortuna/scoretree/internal/logging"
)

// Enqueuer accepts job requests; *jobs.Service satisfies it.
type Enqueuer interface {
	Enqueue(ctx context.Context, req jobs.Request) (*jobs.Job, error)
}

// Config holds cron expressions for recurring jobs. Empty disables one.
type Config struct {
	Discovery string
	Harvest   string
}

// Orchestrator enqueues discovery and harvest jobs on a cron schedule.
// Job execution itself stays on the job service worker.
type Orchestrator struct {
	jobs Enqueuer
	cron *cron.Cron
	ctx  context.Context
	stop context.CancelFunc
	log  logrus.FieldLogger
}

// NewOrchestrator validates the schedule and registers its entries.
func NewOrchestrator(enqueuer Enqueuer, config Config, logger logrus.FieldLogger) (*Orchestrator, error) {
	log := logging.Component(logger, "scheduler")
	ctx, cancel := context.WithCancel(context.Background())

	o := &Orchestrator{
		jobs: enqueuer,
		cron: cron.New(cron.WithChain(cron.Recover(cronLogger{log}))),
		ctx:  ctx,
		stop: cancel,
		log:  log,
	}

	schedules := []struct {
		spec    string
		jobType jobs.JobType
	}{
		{config.Discovery, jobs.JobTypeDiscovery},
		{config.Harvest, jobs.JobTypeHarvest},
	}
	for _, s := range schedules {
		if s.spec == "" {
			continue
		}
		jobType := s.jobType
		if _, err := o.cron.AddFunc(s.spec, func() { o.trigger(jobType) }); err != nil {
			cancel()
			return nil, fmt.Errorf("invalid %s schedule %q: %w", jobType, s.spec, err)
		}
		log.WithField("schedule", s.spec).Infof("%s jobs scheduled", jobType)
	}

	return o, nil
}

// Entries reports how many schedules are registered.
func (o *Orchestrator) Entries() int {
	return len(o.cron.Entries())
}

// Start runs the cron loop in the background.
func (o *Orchestrator) Start() {
	if o.Entries() == 0 {
		o.log.Info("no schedules configured")
		return
	}
	o.cron.Start()
}

// Stop halts scheduling and waits for in-flight triggers.
func (o *Orchestrator) Stop() {
	o.stop()
	<-o.cron.Stop().Done()
	o.log.Info("scheduler stopped")
}

func (o *Orchestrator) trigger(jobType jobs.JobType) {
	job, err := o.jobs.Enqueue(o.ctx, jobs.Request{Type: jobType})
	if err != nil {
		o.log.WithError(err).Warnf("failed to enqueue scheduled %s job", jobType)
		return
	}
	o.log.WithField(logging.FieldJobID, job.JobID).Infof("scheduled %s job enqueued", jobType)
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct {
	log logrus.FieldLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).WithError(err).Error(msg)
}

func fields(keysAndValues []interface{}) logrus.Fields {
	out := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		out[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return out
}
