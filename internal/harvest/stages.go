// Package harvest turns node entries into final player records: score-tree
// stats first, then the hottest comments of every player that has a
// comment key.
package harvest

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/scoretree/internal/hupu"
	"github.com/fortuna/scoretree/internal/logging"
	"github.com/fortuna/scoretree/internal/metrics"
)

// Stage labels for branch failure metrics.
const (
	StageStats    = "stats"
	StageComments = "comments"
)

// StatsStage fetches and parses the score tree of one node entry.
type StatsStage struct {
	client  *hupu.Client
	metrics *metrics.Metrics
	log     logrus.FieldLogger
}

// NewStatsStage creates a stats stage.
func NewStatsStage(client *hupu.Client, m *metrics.Metrics, logger logrus.FieldLogger) *StatsStage {
	return &StatsStage{
		client:  client,
		metrics: m,
		log:     logging.Component(logger, "stats"),
	}
}

// Fetch returns one partial record per player section of entry. Referee and
// coach sections are dropped. ok is false when the request or parse failed;
// the failure is logged and the entry yields nothing.
func (s *StatsStage) Fetch(ctx context.Context, entry hupu.NodeEntry) (records []hupu.PartialRecord, ok bool) {
	nodes, err := s.client.FetchScoreTree(ctx, entry.RootNodeID)
	if err != nil {
		s.metrics.BranchFailed(StageStats)
		s.log.WithFields(logrus.Fields{
			logging.FieldOutBizNo:   entry.OutBizNo,
			logging.FieldRootNodeID: entry.RootNodeID,
			logging.FieldGroup:      entry.GroupName,
		}).WithError(err).Error("failed to load stats")
		return nil, false
	}
	return hupu.PlayerRecords(entry, nodes), true
}

// CommentStage fetches and sanitizes the top comments of one player.
type CommentStage struct {
	client      *hupu.Client
	stripMarkup bool
	metrics     *metrics.Metrics
	log         logrus.FieldLogger
}

// NewCommentStage creates a comment stage. stripMarkup flattens HTML in
// comment bodies before sanitizing.
func NewCommentStage(client *hupu.Client, stripMarkup bool, m *metrics.Metrics, logger logrus.FieldLogger) *CommentStage {
	return &CommentStage{
		client:      client,
		stripMarkup: stripMarkup,
		metrics:     m,
		log:         logging.Component(logger, "comments"),
	}
}

// Fetch returns up to three sanitized comments for bizID. Any failure yields
// three empty slots.
func (c *CommentStage) Fetch(ctx context.Context, bizID int64) [hupu.CommentSlots]string {
	comments, err := c.client.FetchHottestComments(ctx, bizID)
	if err != nil {
		c.metrics.BranchFailed(StageComments)
		c.log.WithField(logging.FieldBizID, bizID).WithError(err).Warn("failed to load comments")
		return [hupu.CommentSlots]string{}
	}
	return hupu.TopComments(comments, c.stripMarkup)
}
