package jobs

import (
	"github.com/sirupsen/logrus"

	"github.com/fortuna/scoretree/internal/logging"
)

// LogReporter writes job lifecycle events to a logger. Used by the CLI.
type LogReporter struct {
	log    logrus.FieldLogger
	dryRun bool
}

// NewLogReporter creates a LogReporter.
func NewLogReporter(logger logrus.FieldLogger, dryRun bool) *LogReporter {
	return &LogReporter{log: logging.Component(logger, "job"), dryRun: dryRun}
}

func (c *LogReporter) OnJobStart(spec JobSpec) {
	c.log.WithFields(logrus.Fields{
		"job_type": spec.Type,
		"dry_run":  c.dryRun,
	}).Info("starting job")
}

func (c *LogReporter) OnProgress(message string, current int, total int) {
	c.log.WithFields(logrus.Fields{
		"current": current,
		"total":   total,
	}).Info(message)
}

func (c *LogReporter) OnJobComplete(result JobResult) {
	c.log.WithField("result", result).Info("job complete")
}

func (c *LogReporter) OnJobError(err error) {
	c.log.WithError(err).Error("job error")
}
