package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Common structured field keys.
const (
	FieldComponent  = "component"
	FieldOutBizNo   = "out_biz_no"
	FieldRootNodeID = "root_node_id"
	FieldBizID      = "biz_id"
	FieldGroup      = "group_name"
	FieldCount      = "count"
	FieldJobID      = "job_id"
	FieldURL        = "url"
)

// New returns a logrus logger writing to stdout. Unknown levels fall back to
// info; format "json" selects the JSON formatter, anything else text.
func New(level, format string) *logrus.Logger {
	return NewWithWriter(os.Stdout, level, format)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, level, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// Component scopes a logger to a named component.
func Component(logger logrus.FieldLogger, name string) logrus.FieldLogger {
	if logger == nil {
		logger = Discard()
	}
	return logger.WithField(FieldComponent, name)
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
