// Package module wires the timeline service: GitHub source, runner and report sinks
package module

import (
	"context"
	"io"

	gh "prtimeline/internal/adapters/ingest/github"
	"prtimeline/internal/modkit"
	"prtimeline/internal/modkit/httpkit"
	"prtimeline/internal/services/timeline/domain"
	"prtimeline/internal/services/timeline/repo"
	"prtimeline/internal/services/timeline/service"
)

// Ports exposed by the timeline module
type Ports struct {
	Runner domain.RunnerPort
	Query  domain.QueryPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	name  string
	opts  Options
	ports Ports
}

// New constructs the timeline module. Options come from deps.Cfg with the
// non-zero fields of overrides on top. WithPorts(domain.Ports{Source: ...})
// replaces the GitHub client
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("timeline")}, opts...)...)
	cfg := FromConfig(deps.Cfg).merge(overrides)

	var src domain.Source
	if p, ok := b.Ports.(domain.Ports); ok && p.Source != nil {
		src = p.Source
	} else {
		ghOpts := gh.FromConfig(deps.Cfg.Prefix("GITHUB_"))
		ghOpts.TimelineItems = cfg.TimelineItems
		src = gh.NewClient(ghOpts)
	}

	svc := service.New(src, service.Config{Workers: cfg.Workers, MaxTeams: cfg.MaxTeams})
	return &Module{
		deps:  deps,
		name:  b.Name,
		opts:  cfg,
		ports: Ports{Runner: svc, Query: svc},
	}
}

// Options returns the resolved options
func (m *Module) Options() Options { return m.opts }

// NewSink assembles the text report on out plus the enabled database sinks.
// A database sink that is enabled without its backend is an error
func (m *Module) NewSink(ctx context.Context, out io.Writer, runID string) (domain.Sink, error) {
	slug := m.opts.Target().Slug()
	sinks := repo.Multi{repo.NewReport(out, m.opts.Format)}

	if m.opts.ClickHouse {
		ch, err := repo.NewClickHouse(ctx, m.deps.CH, slug, runID, m.opts.BatchSize)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, ch)
	}
	if m.opts.Postgres {
		pg, err := repo.NewPostgres(ctx, m.deps.PG, slug, runID)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, pg)
	}
	return sinks, nil
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return m.name }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module; the HTTP surface lives in the api service
func (m *Module) MountRoutes(httpkit.Router) {}
