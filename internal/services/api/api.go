// Package api assembles the HTTP API from its modules
package api

import (
	"net/http"

	"prtimeline/internal/modkit"
	"prtimeline/internal/modkit/httpkit"
	"prtimeline/internal/modkit/module"
	"prtimeline/internal/platform/config"
	perr "prtimeline/internal/platform/errors"
	phttp "prtimeline/internal/platform/net/http"
	"prtimeline/internal/platform/store"

	metamod "prtimeline/internal/services/api/meta/module"
	timelinesmod "prtimeline/internal/services/api/timelines/module"
	timelinemod "prtimeline/internal/services/timeline/module"
)

// Options are the API options
type Options struct {
	Config config.Conf
	// Store may be nil; readiness then reports every backend as skipped
	Store          *store.Store
	EnableProfiler bool

	// Timeline replaces the timeline module, mainly for tests
	Timeline *timelinemod.Module
}

// Mount mounts every API module onto r behind the common middleware stack
func Mount(r phttp.Router, opt Options) {
	deps := modkit.Deps{Cfg: opt.Config}.FromStore(opt.Store)

	tl := opt.Timeline
	if tl == nil {
		tl = timelinemod.New(deps, timelinemod.Options{})
	}
	query := module.MustPortsOf[timelinemod.Ports](tl).Query

	meta := metamod.New(deps)
	mods := []modkit.Module{
		tl,
		timelinesmod.New(deps, modkit.WithPorts(timelinesmod.Ports{Query: query})),
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		phttp.RespondError(w, req, perr.NotFoundf("no route for %s", req.URL.Path))
	})

	r.Group(func(root httpkit.Router) {
		root.Use(httpkit.CommonStack(opt.Config.Prefix("CORE_API_"))...)

		module.Register(meta.Name(), meta.Ports())
		meta.MountRoutes(root)
		phttp.MountProfiler(root, "/debug", opt.EnableProfiler)

		httpkit.MountAPIV1(root, nil, func(v1 httpkit.Router) {
			for _, m := range mods {
				module.Register(m.Name(), m.Ports())
				m.MountRoutes(v1)
			}
		})
	})
}
