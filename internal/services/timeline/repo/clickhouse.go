package repo

import (
	"context"

	"prtimeline/internal/core/report"
	"prtimeline/internal/core/timeline"
	perr "prtimeline/internal/platform/errors"
	"prtimeline/internal/platform/store"
)

// EventsTable receives one row per timeline event
const EventsTable = "pr_timeline_events"

const eventsDDL = `
CREATE TABLE IF NOT EXISTS ` + EventsTable + ` (
	run_id          String,
	repo            LowCardinality(String),
	pr_number       UInt32,
	seq             UInt16,
	ts              DateTime64(3, 'UTC'),
	actor           String,
	event_type      LowCardinality(String),
	delay_hours     Float64,
	pr_size         UInt32,
	from_teams      Array(String),
	to_teams        Array(String),
	review_state    LowCardinality(String),
	review_comments UInt32
) ENGINE = MergeTree
ORDER BY (repo, pr_number, run_id, seq)`

const defaultBatch = 5000

// ClickHouse buffers event rows and inserts them in batches
type ClickHouse struct {
	ch    store.Clickhouse
	repo  string
	runID string
	batch int
	rows  [][]any
}

// NewClickHouse creates the events table if needed and returns the sink.
// batch <= 0 uses the default batch size
func NewClickHouse(ctx context.Context, ch store.Clickhouse, repo, runID string, batch int) (*ClickHouse, error) {
	if ch == nil {
		return nil, perr.Unavailablef("clickhouse sink: backend not configured")
	}
	if err := ch.Exec(ctx, eventsDDL); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "clickhouse sink: create %s", EventsTable)
	}
	if batch <= 0 {
		batch = defaultBatch
	}
	return &ClickHouse{ch: ch, repo: repo, runID: runID, batch: batch}, nil
}

// Write implements domain.Sink
func (c *ClickHouse) Write(ctx context.Context, pr timeline.PullRequest) error {
	c.rows = append(c.rows, eventRows(c.runID, c.repo, pr)...)
	if len(c.rows) >= c.batch {
		return c.flush(ctx)
	}
	return nil
}

// Close inserts whatever is still buffered
func (c *ClickHouse) Close(ctx context.Context) error { return c.flush(ctx) }

func (c *ClickHouse) flush(ctx context.Context) error {
	if len(c.rows) == 0 {
		return nil
	}
	err := c.ch.Insert(ctx, EventsTable, c.rows)
	c.rows = nil
	return perr.WrapIf(err, perr.ErrorCodeDB, "clickhouse sink: insert "+EventsTable)
}

// eventRows renders pr in table column order
func eventRows(runID, repo string, pr timeline.PullRequest) [][]any {
	rows := report.Rows(pr)
	out := make([][]any, 0, len(rows))
	for i, r := range rows {
		out = append(out, []any{
			runID,
			repo,
			uint32(r.PRNumber),
			uint16(i),
			pr.Events[i].At.UTC(),
			r.Actor,
			r.EventType,
			r.Delay,
			uint32(r.PRSize),
			nonNil(r.FromTeams),
			nonNil(r.ToTeams),
			r.ReviewState,
			uint32(r.ReviewComments),
		})
	}
	return out
}

func nonNil(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}
