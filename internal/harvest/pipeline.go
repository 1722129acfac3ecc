package harvest

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/fortuna/scoretree/internal/hupu"
	"github.com/fortuna/scoretree/internal/logging"
	"github.com/fortuna/scoretree/internal/metrics"
)

// DefaultConcurrency bounds in-flight requests when unset.
const DefaultConcurrency = 16

// RecordWriter receives final records in completion order. It is called from
// several goroutines.
type RecordWriter interface {
	WriteRecord(ctx context.Context, rec hupu.FinalRecord) error
}

// Options configures a Pipeline.
type Options struct {
	Concurrency int
	StripMarkup bool
	Metrics     *metrics.Metrics
	Logger      logrus.FieldLogger
}

// Summary counts the outcome of one harvest run.
type Summary struct {
	Entries         int
	EntriesFailed   int
	Records         int
	CommentRequests int
	SinkErrors      int
}

func (s *Summary) add(o Summary) {
	s.Entries += o.Entries
	s.EntriesFailed += o.EntriesFailed
	s.Records += o.Records
	s.CommentRequests += o.CommentRequests
	s.SinkErrors += o.SinkErrors
}

// String renders the summary for logs.
func (s Summary) String() string {
	return fmt.Sprintf("entries=%d failed=%d records=%d comment_requests=%d sink_errors=%d",
		s.Entries, s.EntriesFailed, s.Records, s.CommentRequests, s.SinkErrors)
}

// Pipeline drives node entries through the stats and comment stages.
type Pipeline struct {
	stats       *StatsStage
	comments    *CommentStage
	sink        RecordWriter
	concurrency int
	metrics     *metrics.Metrics
	log         logrus.FieldLogger
}

// NewPipeline creates a pipeline writing to sink. sink may be nil.
func NewPipeline(client *hupu.Client, sink RecordWriter, opts Options) *Pipeline {
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Pipeline{
		stats:       NewStatsStage(client, opts.Metrics, opts.Logger),
		comments:    NewCommentStage(client, opts.StripMarkup, opts.Metrics, opts.Logger),
		sink:        sink,
		concurrency: concurrency,
		metrics:     opts.Metrics,
		log:         logging.Component(opts.Logger, "harvest"),
	}
}

// Run processes every entry. Entries and players proceed concurrently with at
// most Concurrency requests in flight; a failure in one branch never affects
// another. Every partial record produces exactly one final record.
func (p *Pipeline) Run(ctx context.Context, entries []hupu.NodeEntry) Summary {
	p.log.WithField(logging.FieldCount, len(entries)).Info("starting harvest")

	requests := semaphore.NewWeighted(int64(p.concurrency))
	results := make([]Summary, len(entries))

	g := new(errgroup.Group)
	g.SetLimit(p.concurrency)
	for i, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		entry := entry
		slot := &results[i]
		g.Go(func() error {
			*slot = p.runEntry(ctx, requests, entry)
			return nil
		})
	}
	_ = g.Wait()

	var summary Summary
	for _, r := range results {
		summary.add(r)
	}

	p.log.WithFields(logrus.Fields{
		"entries":          summary.Entries,
		"entries_failed":   summary.EntriesFailed,
		"records":          summary.Records,
		"comment_requests": summary.CommentRequests,
		"sink_errors":      summary.SinkErrors,
	}).Info("harvest complete")
	return summary
}

func (p *Pipeline) runEntry(ctx context.Context, requests *semaphore.Weighted, entry hupu.NodeEntry) Summary {
	summary := Summary{Entries: 1}

	if err := requests.Acquire(ctx, 1); err != nil {
		summary.EntriesFailed = 1
		return summary
	}
	partials, ok := p.stats.Fetch(ctx, entry)
	requests.Release(1)
	if !ok {
		summary.EntriesFailed = 1
		return summary
	}

	players := make([]Summary, len(partials))
	g := new(errgroup.Group)
	for i, partial := range partials {
		partial := partial
		slot := &players[i]
		g.Go(func() error {
			*slot = p.runPlayer(ctx, requests, partial)
			return nil
		})
	}
	_ = g.Wait()

	for _, s := range players {
		summary.add(s)
	}

	p.log.WithFields(logrus.Fields{
		logging.FieldOutBizNo:   entry.OutBizNo,
		logging.FieldRootNodeID: entry.RootNodeID,
		logging.FieldCount:      len(partials),
	}).Debug("entry harvested")
	return summary
}

func (p *Pipeline) runPlayer(ctx context.Context, requests *semaphore.Weighted, partial hupu.PartialRecord) Summary {
	summary := Summary{Records: 1}

	var done Complete
	switch step := Assemble(partial).(type) {
	case Complete:
		done = step
	case NeedsComments:
		var comments [hupu.CommentSlots]string
		if err := requests.Acquire(ctx, 1); err == nil {
			summary.CommentRequests = 1
			comments = p.comments.Fetch(ctx, step.BizID)
			requests.Release(1)
		}
		done = step.Resolve(comments)
	}

	p.metrics.RecordEmitted(summary.CommentRequests > 0)

	if p.sink != nil {
		if err := p.sink.WriteRecord(ctx, done.Record); err != nil {
			summary.SinkErrors = 1
			p.log.WithFields(logrus.Fields{
				logging.FieldRootNodeID: partial.RootNodeID,
				"player":                partial.PlayerName,
			}).WithError(err).Warn("failed to write record")
		}
	}
	return summary
}
