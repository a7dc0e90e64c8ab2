// Package module wires the meta endpoints into the API
package module

import (
	"time"

	"prtimeline/internal/modkit"
	"prtimeline/internal/modkit/httpkit"
	metahttp "prtimeline/internal/services/api/meta/http"
)

// Module implements modkit.Module
type Module struct {
	name   string
	prefix string
	built  modkit.Built
	deps   metahttp.Deps
}

// New constructs the meta module. Routes mount at the root unless WithPrefix says otherwise
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("meta")}, opts...)...)

	// a nil interface stays nil so the check reports skipped
	var pg, ch any
	if deps.PG != nil {
		pg = deps.PG
	}
	if deps.CH != nil {
		ch = deps.CH
	}
	return &Module{
		name:   b.Name,
		prefix: b.Prefix,
		built:  b,
		deps: metahttp.Deps{
			ServiceName:  deps.Cfg.Prefix("CORE_API_").MayString("SERVICE_NAME", "prtimeline-api"),
			StartedAt:    time.Now(),
			PG:           pg,
			CH:           ch,
			ReadyTimeout: deps.Cfg.Prefix("CORE_API_").MayDuration("READY_TIMEOUT", 2*time.Second),
		},
	}
}

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, m.prefix, m.built.Mw, func(rr httpkit.Router) {
		metahttp.Register(rr, m.deps)
		m.built.Register(rr)
	})
}

// Name implements modkit.Module
func (m *Module) Name() string { return m.name }

// Ports implements modkit.Module; meta exposes none
func (m *Module) Ports() any { return nil }
