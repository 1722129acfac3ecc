package commands

import (
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/fortuna/scoretree/internal/jobs"
)

func printSummary(w io.Writer, jobType jobs.JobType, result jobs.JobResult, elapsed time.Duration) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(string(jobType) + " summary")
	t.AppendHeader(table.Row{"Metric", "Value"})

	switch jobType {
	case jobs.JobTypeDiscovery:
		t.AppendRow(table.Row{"ids requested", count(result.Requested)})
		t.AppendRow(table.Row{"number of matches", count(result.Matches)})
	case jobs.JobTypeHarvest:
		t.AppendRow(table.Row{"node entries", count(result.Entries)})
		t.AppendRow(table.Row{"failed entries", count(result.EntriesFailed)})
		t.AppendRow(table.Row{"records", count(result.Records)})
		t.AppendRow(table.Row{"comment requests", count(result.CommentRequests)})
	}
	t.AppendRow(table.Row{"sink errors", count(result.SinkErrors)})
	t.AppendFooter(table.Row{"elapsed", elapsed.Round(time.Millisecond).String()})

	t.SetStyle(table.StyleRounded)
	t.Render()
}

func count(n int) string {
	return humanize.Comma(int64(n))
}
