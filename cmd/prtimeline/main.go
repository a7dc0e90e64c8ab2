// Command prtimeline prints the review timeline of a repository's pull requests
// as tab or comma separated rows, optionally also loading them into ClickHouse
// and Postgres
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"prtimeline/internal/core/report"
	"prtimeline/internal/modkit"
	"prtimeline/internal/modkit/module"
	"prtimeline/internal/modkit/repokit"
	"prtimeline/internal/platform/config"
	perr "prtimeline/internal/platform/errors"
	"prtimeline/internal/platform/logger"
	"prtimeline/internal/platform/store"

	timelinemod "prtimeline/internal/services/timeline/module"

	"github.com/google/uuid"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run returns the process exit code so deferred cleanup always happens before exit
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("prtimeline", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		fOrg      = fs.String("org", "", "org whose teams are indexed (defaults to -owner)")
		fOwner    = fs.String("owner", "", "repository owner")
		fRepo     = fs.String("repo", "", "repository name")
		fFilter   = fs.String("team-filter", "", "only index teams matching this query")
		fTotal    = fs.Int("total", 0, "most recent pull requests to report (0 uses TIMELINE_TOTAL)")
		fWorkers  = fs.Int("workers", 0, "pull requests built concurrently per page")
		fFormat   = fs.String("format", "", "report format: tsv | csv")
		fCH       = fs.Bool("clickhouse", false, "also insert events into ClickHouse")
		fPG       = fs.Bool("pg", false, "also upsert pull requests into Postgres")
		fLogLevel = fs.String("log-level", "", "overrides LOG_LEVEL")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	logOpts := logger.FromEnv()
	if *fLogLevel != "" {
		logOpts.Level = *fLogLevel
	}
	logOpts.Service = "prtimeline"
	logOpts.Writer = stderr
	logger.Init(logOpts)
	l := logger.Get()

	root := config.New()
	overrides := timelinemod.Options{
		Org:        *fOrg,
		Owner:      *fOwner,
		Repo:       *fRepo,
		TeamFilter: *fFilter,
		Total:      *fTotal,
		Workers:    *fWorkers,
		Format:     report.Format(*fFormat),
		ClickHouse: *fCH,
		Postgres:   *fPG,
	}
	if f := overrides.Format; f != "" && f != report.FormatTSV && f != report.FormatCSV {
		l.Error().Str("format", string(f)).Msg("-format must be tsv or csv")
		return 2
	}

	// backends are only opened when a database sink is asked for
	probe := timelinemod.FromConfig(root)
	var st *store.Store
	if probe.ClickHouse || probe.Postgres || *fCH || *fPG {
		var err error
		st, err = store.Open(ctx, store.FromConfig(root, "prtimeline"), store.WithLogger(*l))
		if err != nil {
			l.Error().Err(err).Msg("store.Open failed")
			return 1
		}
		defer func() {
			if err := st.Close(context.Background()); err != nil {
				l.Error().Err(err).Msg("failed to close store")
			}
		}()
		repokit.MustGuard(ctx, st, root.MayDuration("STORE_GUARD_TIMEOUT", 5*time.Second))
	}

	deps := modkit.Deps{Cfg: root, Log: *l}.FromStore(st)
	tl := timelinemod.New(deps, overrides)
	module.Register(tl.Name(), tl.Ports())
	runner := module.MustPortsOf[timelinemod.Ports](tl).Runner

	target := tl.Options().Target()
	runID := uuid.NewString()
	ctx = logger.WithRun(ctx, runID, target.Slug())
	log := logger.C(ctx)

	sink, err := tl.NewSink(ctx, stdout, runID)
	if err != nil {
		log.Error().Err(err).Msg("report sinks")
		return 1
	}

	log.Info().Str("team_org", target.TeamOrg()).Int("total", target.Total).Msg("run started")
	sum, runErr := runner.Run(ctx, target, sink)
	// buffered rows are flushed even when the run failed part way
	closeErr := sink.Close(context.WithoutCancel(ctx))
	if runErr != nil {
		log.Error().Err(runErr).
			Str("code", perr.CodeOf(runErr).String()).
			Bool("retryable", perr.Retryable(runErr)).
			Int("pull_requests", sum.PullRequests).
			Msg("run failed")
		return 1
	}
	if closeErr != nil {
		log.Error().Err(closeErr).Msg("closing report sinks")
		return 1
	}
	log.Info().
		Int("teams", sum.Teams).
		Int("pages", sum.Pages).
		Int("pull_requests", sum.PullRequests).
		Int("events", sum.Events).
		Dur("elapsed", sum.Elapsed).
		Msg("run finished")
	return 0
}
