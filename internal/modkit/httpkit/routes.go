package httpkit

import (
	"net/http"

	pstrings "prtimeline/internal/platform/strings"
)

// MountUnder mounts a subrouter at prefix and applies per module middlewares.
// An empty prefix mounts in a group at the current level
func MountUnder(r Router, prefix string, mw []func(http.Handler) http.Handler, mount func(Router)) {
	scoped := func(sub Router) {
		if len(mw) > 0 {
			sub.Use(mw...)
		}
		mount(sub)
	}
	if p := pstrings.MustPrefix(prefix); p != "" {
		r.Route(p, scoped)
		return
	}
	r.Group(scoped)
}
