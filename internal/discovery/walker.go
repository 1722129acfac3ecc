// Package discovery scans match business keys for known-team node groups.
package discovery

import (
	"context"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/fortuna/scoretree/internal/hupu"
	"github.com/fortuna/scoretree/internal/logging"
	"github.com/fortuna/scoretree/internal/metrics"
)

// DefaultConcurrency bounds in-flight sub-group lookups when unset.
const DefaultConcurrency = 16

// NodeWriter receives node entries as they are found. It is called from
// several goroutines.
type NodeWriter interface {
	WriteNode(ctx context.Context, entry hupu.NodeEntry) error
}

// Options configures a Walker.
type Options struct {
	Teams       hupu.TeamSet
	Concurrency int
	Metrics     *metrics.Metrics
	Logger      logrus.FieldLogger
}

// Result summarises one scan.
type Result struct {
	Requested  int
	Matches    int
	SinkErrors int
	// Entries are ordered by outBizNo, then by group order in the response.
	Entries []hupu.NodeEntry
}

// Walker enumerates an outBizNo range against the sub-groups endpoint.
type Walker struct {
	client      *hupu.Client
	sink        NodeWriter
	teams       hupu.TeamSet
	concurrency int
	metrics     *metrics.Metrics
	log         logrus.FieldLogger
}

// NewWalker creates a walker. sink may be nil.
func NewWalker(client *hupu.Client, sink NodeWriter, opts Options) *Walker {
	teams := opts.Teams
	if len(teams) == 0 {
		teams = hupu.NewTeamSet(nil)
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Walker{
		client:      client,
		sink:        sink,
		teams:       teams,
		concurrency: concurrency,
		metrics:     opts.Metrics,
		log:         logging.Component(opts.Logger, "discovery"),
	}
}

type idScan struct {
	outBizNo   int64
	sinkErrors int
	entries    []hupu.NodeEntry
}

// Run issues one sub-groups request per id in [minID, maxID]. A reversed
// range is swapped. Ids whose lookup fails are skipped. Memory grows with the
// ids actually scanned, not with the width of the range.
func (w *Walker) Run(ctx context.Context, minID, maxID int64) Result {
	if minID > maxID {
		minID, maxID = maxID, minID
	}

	w.log.WithFields(logrus.Fields{
		"min_id": minID,
		"max_id": maxID,
	}).Info("starting discovery scan")

	var (
		mu    sync.Mutex
		scans []idScan
	)

	g := new(errgroup.Group)
	g.SetLimit(w.concurrency)
	// the exit test sits after the body so maxID == MaxInt64 cannot wrap
	for id := minID; ; id++ {
		if ctx.Err() != nil {
			break
		}
		id := id
		g.Go(func() error {
			p := w.scanID(ctx, id)
			mu.Lock()
			scans = append(scans, p)
			mu.Unlock()
			return nil
		})
		if id == maxID {
			break
		}
	}
	_ = g.Wait()

	sort.Slice(scans, func(i, j int) bool { return scans[i].outBizNo < scans[j].outBizNo })

	result := Result{Requested: len(scans)}
	for _, p := range scans {
		result.SinkErrors += p.sinkErrors
		result.Entries = append(result.Entries, p.entries...)
	}
	result.Matches = len(result.Entries)

	w.log.WithFields(logrus.Fields{
		logging.FieldCount: result.Matches,
		"requested":        result.Requested,
	}).Infof("number of matches: %d", result.Matches)
	return result
}

func (w *Walker) scanID(ctx context.Context, outBizNo int64) idScan {
	p := idScan{outBizNo: outBizNo}

	groups, err := w.client.FetchSubGroups(ctx, outBizNo)
	if err != nil {
		w.log.WithField(logging.FieldOutBizNo, outBizNo).WithError(err).Debug("skipping id")
		return p
	}

	for _, group := range groups {
		if !w.teams.Contains(group.GroupName) {
			continue
		}
		entry := hupu.NodeEntry{
			OutBizNo:   outBizNo,
			GroupName:  group.GroupName,
			RootNodeID: group.RootNodeID,
		}
		p.entries = append(p.entries, entry)
		w.metrics.NodeDiscovered()

		if w.sink == nil {
			continue
		}
		if err := w.sink.WriteNode(ctx, entry); err != nil {
			p.sinkErrors++
			w.log.WithFields(logrus.Fields{
				logging.FieldOutBizNo:   outBizNo,
				logging.FieldRootNodeID: group.RootNodeID,
			}).WithError(err).Warn("failed to write node entry")
		}
	}
	return p
}
