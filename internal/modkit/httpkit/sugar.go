package httpkit

import (
	"net/http"

	phttp "prtimeline/internal/platform/net/http"
)

// Get mounts an enveloped handler without input under GET
func Get(r Router, path string, h func(*http.Request) (any, error)) { phttp.Get(r, path, h) }

// GetQuery mounts an enveloped handler whose input is bound from the query string
func GetQuery[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	phttp.GetQuery(r, path, h)
}
