package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"prtimeline/internal/core/timeline"
	"prtimeline/internal/modkit/repokit"
	perr "prtimeline/internal/platform/errors"
	"prtimeline/internal/platform/store"
	pstrings "prtimeline/internal/platform/strings"
	ptime "prtimeline/internal/platform/time"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS pull_requests (
		repo            text        NOT NULL,
		number          integer     NOT NULL,
		title           text        NOT NULL,
		author          text        NULL,
		diff_size       integer     NOT NULL,
		reviewers       text[]      NOT NULL,
		authoring_teams text[]      NOT NULL,
		reviewing_teams text[]      NOT NULL,
		opened_at       timestamptz NOT NULL,
		merged_at       timestamptz NULL,
		closed_at       timestamptz NULL,
		run_id          text        NOT NULL,
		updated_at      timestamptz NOT NULL DEFAULT now(),
		PRIMARY KEY (repo, number)
	)`,
	`CREATE TABLE IF NOT EXISTS pull_request_events (
		repo            text             NOT NULL,
		number          integer          NOT NULL,
		seq             integer          NOT NULL,
		kind            text             NOT NULL,
		actor           text             NULL,
		teams           text[]           NOT NULL,
		at              timestamptz      NOT NULL,
		delay_hours     double precision NOT NULL,
		review_state    text             NULL,
		review_comments integer          NOT NULL DEFAULT 0,
		commit_sha      text             NULL,
		PRIMARY KEY (repo, number, seq),
		FOREIGN KEY (repo, number) REFERENCES pull_requests (repo, number) ON DELETE CASCADE
	)`,
}

// Storage persists assembled pull requests
type Storage interface {
	EnsureSchema(ctx context.Context) error
	UpsertPullRequest(ctx context.Context, repo, runID string, pr timeline.PullRequest) error
	ReplaceEvents(ctx context.Context, repo string, pr timeline.PullRequest) error
}

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG returns a Postgres binder for Storage
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// EnsureSchema implements Storage
func (s *pg) EnsureSchema(ctx context.Context) error {
	for _, ddl := range schema {
		if _, err := store.Exec(ctx, s.q, ddl); err != nil {
			return perr.FromPostgresf(err, "postgres sink: schema")
		}
	}
	return nil
}

// UpsertPullRequest implements Storage
func (s *pg) UpsertPullRequest(ctx context.Context, repo, runID string, pr timeline.PullRequest) error {
	const q = `
		INSERT INTO pull_requests
			(repo, number, title, author, diff_size, reviewers, authoring_teams,
			reviewing_teams, opened_at, merged_at, closed_at, run_id, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12, now())
		ON CONFLICT (repo, number) DO UPDATE SET
			title = EXCLUDED.title,
			author = EXCLUDED.author,
			diff_size = EXCLUDED.diff_size,
			reviewers = EXCLUDED.reviewers,
			authoring_teams = EXCLUDED.authoring_teams,
			reviewing_teams = EXCLUDED.reviewing_teams,
			opened_at = EXCLUDED.opened_at,
			merged_at = EXCLUDED.merged_at,
			closed_at = EXCLUDED.closed_at,
			run_id = EXCLUDED.run_id,
			updated_at = now()`

	var opened, merged, closed time.Time
	for _, ev := range pr.Events {
		switch ev.Detail.(type) {
		case timeline.Open:
			opened = ev.At
		case timeline.Merged:
			merged = ev.At
		case timeline.Closed:
			closed = ev.At
		}
	}
	err := store.ExecOne(ctx, s.q, q,
		repo, pr.Number, pr.Title, pstrings.SQLNull(pr.Author), pr.DiffSize,
		nonNil(pr.Reviewers), nonNil(pr.AuthoringTeams), nonNil(pr.ReviewingTeams),
		opened, ptime.Ptr(merged), ptime.Ptr(closed), runID,
	)
	return perr.FromPostgresf(err, "postgres sink: upsert pull request %s#%d", repo, pr.Number)
}

// ReplaceEvents implements Storage. The previous events of pr are removed first
func (s *pg) ReplaceEvents(ctx context.Context, repo string, pr timeline.PullRequest) error {
	if _, err := store.Exec(ctx, s.q, `DELETE FROM pull_request_events WHERE repo = $1 AND number = $2`, repo, pr.Number); err != nil {
		return perr.FromPostgresf(err, "postgres sink: clear events %s#%d", repo, pr.Number)
	}
	if len(pr.Events) == 0 {
		return nil
	}

	const cols = 11
	var sb strings.Builder
	sb.WriteString(`INSERT INTO pull_request_events
		(repo, number, seq, kind, actor, teams, at, delay_hours, review_state, review_comments, commit_sha)
		VALUES `)
	args := make([]any, 0, len(pr.Events)*cols)
	for i, ev := range pr.Events {
		if i > 0 {
			sb.WriteByte(',')
		}
		base := i*cols + 1
		sb.WriteByte('(')
		for c := range cols {
			if c > 0 {
				sb.WriteByte(',')
			}
			fmt.Fprintf(&sb, "$%d", base+c)
		}
		sb.WriteByte(')')

		var state, sha any
		comments := 0
		switch d := ev.Detail.(type) {
		case timeline.Review:
			state = d.State.String()
			comments = d.Comments
		case timeline.Commit:
			sha = d.SHA
		}
		args = append(args,
			repo, pr.Number, i, ev.Kind().String(), pstrings.SQLNull(ev.Actor), nonNil(ev.Teams),
			ev.At, ev.Delay, state, comments, sha,
		)
	}
	_, err := store.Exec(ctx, s.q, sb.String(), args...)
	return perr.FromPostgresf(err, "postgres sink: insert events %s#%d", repo, pr.Number)
}

// Postgres upserts each pull request and replaces its events in one transaction
type Postgres struct {
	tx    repokit.TxRunner
	bind  repokit.Binder[Storage]
	repo  string
	runID string
}

// NewPostgres ensures the schema and returns the sink. Writers of the same repo
// are serialized with a transaction scoped advisory lock
func NewPostgres(ctx context.Context, tx repokit.TxRunner, repo, runID string) (*Postgres, error) {
	if tx == nil {
		return nil, perr.Unavailablef("postgres sink: backend not configured")
	}
	b := NewPG()
	if err := b.Bind(tx).EnsureSchema(ctx); err != nil {
		return nil, err
	}
	lock := func(ctx context.Context, q repokit.Queryer) error {
		_, err := store.Exec(ctx, q, `SELECT pg_advisory_xact_lock(hashtext($1))`, repo)
		return perr.FromPostgresf(err, "postgres sink: lock %s", repo)
	}
	return &Postgres{
		tx:    repokit.WithBeginHooks(tx, lock),
		bind:  b,
		repo:  repo,
		runID: runID,
	}, nil
}

// Write implements domain.Sink
func (p *Postgres) Write(ctx context.Context, pr timeline.PullRequest) error {
	return repokit.WithTx(ctx, p.tx, func(q repokit.Queryer) error {
		st := repokit.MustBind(p.bind, q)
		if err := st.UpsertPullRequest(ctx, p.repo, p.runID, pr); err != nil {
			return err
		}
		return st.ReplaceEvents(ctx, p.repo, pr)
	})
}

// Close implements domain.Sink; every Write already committed
func (p *Postgres) Close(context.Context) error { return nil }
