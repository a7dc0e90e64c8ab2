// Package http provides the timelines endpoints
package http

import (
	"bytes"
	stdhttp "net/http"

	"prtimeline/internal/core/report"
	"prtimeline/internal/modkit/httpkit"
	"prtimeline/internal/platform/logger"
	"prtimeline/internal/services/api/timelines/domain"
	tldomain "prtimeline/internal/services/timeline/domain"
)

// Deps are the handler dependencies
type Deps struct {
	Query        tldomain.QueryPort
	DefaultTotal int
}

type handlers struct{ deps Deps }

// Register mounts the timelines routes on r
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d}

	httpkit.GetQuery(r, "/repos/{owner}/{repo}/timelines", h.list)
	httpkit.GetQuery(r, "/repos/{owner}/{repo}/timelines.tsv", h.tsv)
}

func (h *handlers) target(r *stdhttp.Request, q domain.TimelinesQuery) tldomain.Target {
	return q.Target(httpkit.Param(r, "owner"), httpkit.Param(r, "repo"), h.deps.DefaultTotal)
}

func (h *handlers) list(r *stdhttp.Request, q domain.TimelinesQuery) (any, error) {
	t := h.target(r, q)
	prs, err := h.deps.Query.Timelines(r.Context(), t)
	if err != nil {
		return nil, err
	}
	logger.C(r.Context()).Debug().Str("repo", t.Slug()).Int("pull_requests", len(prs)).Msg("timelines served")
	return domain.FromPullRequests(prs), nil
}

// tsv renders the report rows; a failure before the first byte still gets the envelope
func (h *handlers) tsv(r *stdhttp.Request, q domain.TimelinesQuery) (any, error) {
	prs, err := h.deps.Query.Timelines(r.Context(), h.target(r, q))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	w := report.NewWriter(&buf, report.FormatTSV)
	if err := w.WriteHeader(); err != nil {
		return nil, err
	}
	for _, pr := range prs {
		if err := w.Write(pr); err != nil {
			return nil, err
		}
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return httpkit.Text("text/tab-separated-values; charset=utf-8", buf.Bytes()), nil
}
