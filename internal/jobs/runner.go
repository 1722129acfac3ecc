package jobs

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/fortuna/scoretree/internal/discovery"
	"github.com/fortuna/scoretree/internal/harvest"
	"github.com/fortuna/scoretree/internal/hupu"
)

// DefaultMaxRange caps the number of ids a single discovery job may scan when
// no limit is configured.
const DefaultMaxRange int64 = 1_000_000

// ErrRangeTooWide is returned for discovery ranges wider than the allowed limit.
var ErrRangeTooWide = errors.New("discovery range too wide")

// Discoverer is satisfied by *discovery.Walker.
type Discoverer interface {
	Run(ctx context.Context, minID, maxID int64) discovery.Result
}

// Harvester is satisfied by *harvest.Pipeline.
type Harvester interface {
	Run(ctx context.Context, entries []hupu.NodeEntry) harvest.Summary
}

// NodeSource returns the entries a harvest job should process.
type NodeSource func(ctx context.Context) []hupu.NodeEntry

// Runner executes job specs against the discovery walker and harvest pipeline.
type Runner struct {
	discoverer Discoverer
	harvester  Harvester
	nodes      NodeSource
}

// NewRunner constructs a runner. nodes feeds harvest jobs.
func NewRunner(discoverer Discoverer, harvester Harvester, nodes NodeSource) *Runner {
	return &Runner{
		discoverer: discoverer,
		harvester:  harvester,
		nodes:      nodes,
	}
}

// Run executes the job spec, reporting progress via the Reporter if provided.
func (r *Runner) Run(ctx context.Context, spec JobSpec, reporter Reporter) (JobResult, error) {
	if reporter == nil {
		reporter = nopReporter{}
	}
	reporter.OnJobStart(spec)

	var result JobResult
	switch spec.Type {
	case JobTypeDiscovery:
		minID, maxID := orderedRange(spec.MinID, spec.MaxID)
		total := rangeUnits(minID, maxID)
		if spec.DryRun {
			reporter.OnProgress(fmt.Sprintf("Dry-run mode: would scan ids %d..%d", minID, maxID), 0, total)
			break
		}

		reporter.OnProgress(fmt.Sprintf("Scanning ids %d..%d", minID, maxID), 0, total)
		res := r.discoverer.Run(ctx, minID, maxID)
		result.Requested = res.Requested
		result.Matches = res.Matches
		result.SinkErrors = res.SinkErrors
		reporter.OnProgress(fmt.Sprintf("Scanned %d ids, %d matches", res.Requested, res.Matches), res.Requested, total)

	case JobTypeHarvest:
		entries := r.nodes(ctx)
		total := len(entries)
		if spec.DryRun {
			reporter.OnProgress(fmt.Sprintf("Dry-run mode: would harvest %d node entries", total), 0, total)
			break
		}

		reporter.OnProgress(fmt.Sprintf("Harvesting %d node entries", total), 0, total)
		sum := r.harvester.Run(ctx, entries)
		result.Entries = sum.Entries
		result.EntriesFailed = sum.EntriesFailed
		result.Records = sum.Records
		result.CommentRequests = sum.CommentRequests
		result.SinkErrors = sum.SinkErrors
		reporter.OnProgress(fmt.Sprintf("Harvested %d records", sum.Records), sum.Entries, total)

	default:
		err := fmt.Errorf("unsupported job type %q", spec.Type)
		reporter.OnJobError(err)
		return result, err
	}

	if err := ctx.Err(); err != nil {
		reporter.OnJobError(err)
		return result, err
	}

	reporter.OnJobComplete(result)
	return result, nil
}

func orderedRange(minID, maxID int64) (int64, int64) {
	if minID > maxID {
		return maxID, minID
	}
	return minID, maxID
}

// ValidateRange rejects ranges covering more than limit ids. A limit of zero or
// less selects DefaultMaxRange.
func ValidateRange(minID, maxID, limit int64) error {
	if limit <= 0 {
		limit = DefaultMaxRange
	}
	if rangeSpan(minID, maxID) >= uint64(limit) {
		return fmt.Errorf("%w: %d..%d exceeds %d ids", ErrRangeTooWide, minID, maxID, limit)
	}
	return nil
}

// rangeSpan is maxID-minID of the ordered range. It is exact for every int64
// pair, including the full range.
func rangeSpan(minID, maxID int64) uint64 {
	minID, maxID = orderedRange(minID, maxID)
	return uint64(maxID) - uint64(minID)
}

// rangeUnits counts the ids in a range, saturating at math.MaxInt.
func rangeUnits(minID, maxID int64) int {
	span := rangeSpan(minID, maxID)
	if span >= math.MaxInt {
		return math.MaxInt
	}
	return int(span) + 1
}

type nopReporter struct{}

func (nopReporter) OnJobStart(JobSpec) {}
func (nopReporter) OnProgress(string, int, int) {}
func (nopReporter) OnJobComplete(JobResult) {}
func (nopReporter) OnJobError(error) {}
