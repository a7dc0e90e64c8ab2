package http

import (
	"net/http"

	"prtimeline/internal/platform/net/http/bind"
)

// QueryHandler binds T from the query string, then wraps fn's result in the envelope.
// fn may return a Response to control the body itself
func QueryHandler[T any](fn func(*http.Request, T) (any, error)) Handler {
	return Handle(func(r *http.Request) Response {
		in, err := bind.Query[T](r)
		if err != nil {
			return Error(err)
		}
		return wrap(fn(r, in))
	})
}

// NoInputHandler calls fn without binding any input
func NoInputHandler(fn func(*http.Request) (any, error)) Handler {
	return Handle(func(r *http.Request) Response { return wrap(fn(r)) })
}

func wrap(out any, err error) Response {
	if err != nil {
		return Error(err)
	}
	if resp, ok := out.(Response); ok {
		return resp
	}
	return OK(out)
}
