package http

import "net/http"

// Get mounts a handler without input under GET
func Get(r Router, path string, h func(*http.Request) (any, error)) {
	r.Get(path, NoInputHandler(h))
}

// GetQuery mounts a query bound handler under GET
func GetQuery[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Get(path, QueryHandler(h))
}
