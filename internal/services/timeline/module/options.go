package module

import (
	"prtimeline/internal/core/report"
	"prtimeline/internal/platform/config"
	"prtimeline/internal/services/timeline/domain"
)

// Options holds configuration settings for the timeline module
type Options struct {
	Org        string
	Owner      string
	Repo       string
	TeamFilter string
	Total      int
	MaxTeams   int

	// TimelineItems caps the timeline items read per pull request
	TimelineItems int
	Workers       int

	Format     report.Format
	ClickHouse bool
	Postgres   bool
	BatchSize  int
}

// FromConfig reads TIMELINE_* and REPORT_* keys under cfg
func FromConfig(cfg config.Conf) Options {
	tc := cfg.Prefix("TIMELINE_")
	rc := cfg.Prefix("REPORT_")
	return Options{
		Org:           tc.MayString("ORG", ""),
		Owner:         tc.MayString("REPO_OWNER", ""),
		Repo:          tc.MayString("REPO", ""),
		TeamFilter:    tc.MayString("TEAM_FILTER", ""),
		Total:         tc.MayInt("TOTAL", 600),
		MaxTeams:      tc.MayInt("MAX_TEAMS", 100),
		TimelineItems: tc.MayInt("TIMELINE_ITEMS", 100),
		Workers:       tc.MayInt("WORKERS", 1),
		Format:        report.Format(rc.MayEnum("FORMAT", string(report.FormatTSV), string(report.FormatTSV), string(report.FormatCSV))),
		ClickHouse:    rc.MayBool("CLICKHOUSE", false),
		Postgres:      rc.MayBool("PG", false),
		BatchSize:     rc.MayInt("BATCH_SIZE", 5000),
	}
}

// merge overlays the non-zero fields of o on base. Sink toggles are or-ed
func (base Options) merge(o Options) Options {
	pick := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	pickInt := func(dst *int, v int) {
		if v != 0 {
			*dst = v
		}
	}
	pick(&base.Org, o.Org)
	pick(&base.Owner, o.Owner)
	pick(&base.Repo, o.Repo)
	pick(&base.TeamFilter, o.TeamFilter)
	pickInt(&base.Total, o.Total)
	pickInt(&base.MaxTeams, o.MaxTeams)
	pickInt(&base.TimelineItems, o.TimelineItems)
	pickInt(&base.Workers, o.Workers)
	pickInt(&base.BatchSize, o.BatchSize)
	if o.Format != "" {
		base.Format = o.Format
	}
	base.ClickHouse = base.ClickHouse || o.ClickHouse
	base.Postgres = base.Postgres || o.Postgres
	return base
}

// Target is the run target described by o
func (o Options) Target() domain.Target {
	return domain.Target{
		Org:        o.Org,
		Owner:      o.Owner,
		Repo:       o.Repo,
		TeamFilter: o.TeamFilter,
		Total:      o.Total,
		MaxTeams:   o.MaxTeams,
	}
}
