// Package service implements the timeline runner: roster, pull request pages,
// per pull request assembly and delivery to a sink
package service

import (
	"context"
	"time"

	"prtimeline/internal/core/pager"
	"prtimeline/internal/core/teams"
	"prtimeline/internal/core/timeline"
	perr "prtimeline/internal/platform/errors"
	"prtimeline/internal/platform/logger"
	"prtimeline/internal/platform/validate"
	"prtimeline/internal/services/timeline/domain"

	"golang.org/x/sync/errgroup"
)

const defaultMaxTeams = 100

// Config for the timeline service
type Config struct {
	// Workers builds the pull requests of one page concurrently when > 1
	Workers int
	// MaxTeams is used when a Target leaves it zero
	MaxTeams int
}

// Service implements domain.RunnerPort and domain.QueryPort
type Service struct {
	src domain.Source
	cfg Config
	now func() time.Time
}

// New constructs a new timeline service
func New(src domain.Source, cfg Config) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxTeams <= 0 {
		cfg.MaxTeams = defaultMaxTeams
	}
	return &Service{src: src, cfg: cfg, now: time.Now}
}

// Run reads the team roster, then every pull request page of t, and writes each
// assembled pull request to sink in source order. The first error aborts the run
func (s *Service) Run(ctx context.Context, t domain.Target, sink domain.Sink) (domain.Summary, error) {
	start := s.now()
	var sum domain.Summary
	if err := validate.Struct(t); err != nil {
		field, _ := validate.FieldAndMessage(err)
		return sum, perr.WithField(perr.InvalidArgf("invalid target: %v", err), field)
	}
	if t.MaxTeams == 0 {
		t.MaxTeams = s.cfg.MaxTeams
	}
	log := logger.C(ctx)

	idx, err := s.roster(ctx, t)
	if err != nil {
		return sum, err
	}
	sum.Teams = idx.Len()
	log.Debug().Str("org", t.TeamOrg()).Int("logins", idx.Len()).Msg("team index built")

	prs := pager.New(t.Owner, t.Repo, t.Total, s.src.FetchPullRequests)
	for batch, err := range prs.All(ctx) {
		if err != nil {
			return s.finish(sum, prs, start), err
		}
		built, err := s.buildPage(ctx, batch, idx)
		if err != nil {
			return s.finish(sum, prs, start), err
		}
		for _, pr := range built {
			if err := sink.Write(ctx, pr); err != nil {
				return s.finish(sum, prs, start), perr.Wrapf(err, perr.CodeOf(err), "write pull request #%d", pr.Number)
			}
			sum.PullRequests++
			sum.Events += len(pr.Events)
		}
		log.Info().
			Int("fetched", prs.Fetched()).
			Int("total", prs.Total()).
			Msg("fetching pull requests")
	}
	return s.finish(sum, prs, start), nil
}

// Timelines runs t into memory
func (s *Service) Timelines(ctx context.Context, t domain.Target) ([]timeline.PullRequest, error) {
	c := collector{prs: []timeline.PullRequest{}}
	if _, err := s.Run(ctx, t, &c); err != nil {
		return nil, err
	}
	return c.prs, nil
}

func (s *Service) finish(sum domain.Summary, c *pager.Cursor[timeline.RawPullRequest], start time.Time) domain.Summary {
	sum.Pages = c.Pages()
	sum.Elapsed = s.now().Sub(start)
	return sum
}

// roster reads up to MaxTeams teams of the target org and indexes them by login
func (s *Service) roster(ctx context.Context, t domain.Target) (*teams.Index, error) {
	var all []teams.Team
	c := pager.New(t.TeamOrg(), t.TeamFilter, t.MaxTeams, s.src.FetchTeams)
	for batch, err := range c.All(ctx) {
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
	}
	return teams.Build(all), nil
}

// buildPage assembles one page of raw pull requests. Results keep page order
// whatever the worker count
func (s *Service) buildPage(ctx context.Context, raws []timeline.RawPullRequest, idx *teams.Index) ([]timeline.PullRequest, error) {
	out := make([]timeline.PullRequest, len(raws))
	if s.cfg.Workers <= 1 || len(raws) < 2 {
		for i, raw := range raws {
			pr, err := timeline.Build(raw, idx)
			if err != nil {
				return nil, err
			}
			out[i] = pr
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, raw := range raws {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pr, err := timeline.Build(raw, idx)
			if err != nil {
				return err
			}
			out[i] = pr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// collector is the in-memory sink behind Timelines
type collector struct{ prs []timeline.PullRequest }

func (c *collector) Write(_ context.Context, pr timeline.PullRequest) error {
	c.prs = append(c.prs, pr)
	return nil
}

func (c *collector) Close(context.Context) error { return nil }
