// Package modkit provides module wiring and core deps
package modkit

import (
	"prtimeline/internal/modkit/repokit"
	"prtimeline/internal/platform/config"
	"prtimeline/internal/platform/logger"
	"prtimeline/internal/platform/store"
)

// Deps holds core dependencies passed to modules.
// PG and CH are nil when the backend is not configured
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse
}

// FromStore fills the backend seams of d from an opened store
func (d Deps) FromStore(st *store.Store) Deps {
	if st != nil {
		d.PG = st.PG
		d.CH = st.CH
	}
	return d
}
