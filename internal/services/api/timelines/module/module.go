// Package module wires the timelines endpoints into the API using modkit
package module

import (
	"prtimeline/internal/modkit"
	"prtimeline/internal/modkit/httpkit"
	pstrings "prtimeline/internal/platform/strings"
	tlhttp "prtimeline/internal/services/api/timelines/http"
	tldomain "prtimeline/internal/services/timeline/domain"
)

// Ports are the ports the timelines API consumes
type Ports struct {
	Query tldomain.QueryPort
}

// Module implements modkit.Module
type Module struct {
	name   string
	prefix string
	built  modkit.Built
	deps   tlhttp.Deps
}

// New constructs the timelines API module. WithPorts(Ports{...}) is required
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("timelines")}, opts...)...)
	p, ok := b.Ports.(Ports)
	if !ok || p.Query == nil {
		panic("timelines module: WithPorts(Ports{Query}) is required")
	}
	return &Module{
		name:   b.Name,
		prefix: b.Prefix,
		built:  b,
		deps: tlhttp.Deps{
			Query:        p.Query,
			DefaultTotal: deps.Cfg.Prefix("CORE_API_").MayInt("DEFAULT_TOTAL", 100),
		},
	}
}

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, m.prefix, m.built.Mw, func(rr httpkit.Router) {
		tlhttp.Register(rr, m.deps)
		m.built.Register(rr)
	})
}

// Name implements modkit.Module
func (m *Module) Name() string { return m.name }

// Prefix is the normalized mount prefix, empty for the parent level
func (m *Module) Prefix() string { return pstrings.MustPrefix(m.prefix) }

// Ports implements modkit.Module
func (m *Module) Ports() any { return Ports{Query: m.deps.Query} }
