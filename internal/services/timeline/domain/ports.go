package domain

import (
	"context"

	"prtimeline/internal/core/pager"
	"prtimeline/internal/core/teams"
	"prtimeline/internal/core/timeline"
)

// Source reads pages from the hosting service
type Source interface {
	FetchTeams(ctx context.Context, req pager.Request) (pager.Page[teams.Team], error)
	FetchPullRequests(ctx context.Context, req pager.Request) (pager.Page[timeline.RawPullRequest], error)
}

// Sink receives each assembled pull request in source order
type Sink interface {
	Write(ctx context.Context, pr timeline.PullRequest) error
	// Close flushes anything buffered; it is called once, also after a failed run
	Close(ctx context.Context) error
}

// RunnerPort streams the timelines of a target into a sink
type RunnerPort interface {
	Run(ctx context.Context, t Target, sink Sink) (Summary, error)
}

// QueryPort returns the timelines of a target in memory
type QueryPort interface {
	Timelines(ctx context.Context, t Target) ([]timeline.PullRequest, error)
}

// Ports are dependencies that may be injected into the timeline module
type Ports struct {
	Source Source // optional, defaults to the GitHub GraphQL client
}
