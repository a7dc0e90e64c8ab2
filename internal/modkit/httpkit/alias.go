// Package httpkit re-exports the platform http seam for modules so they do not
// import internal/platform/net/http directly
package httpkit

import (
	"net/http"

	phttp "prtimeline/internal/platform/net/http"
)

type (
	// Envelope is the transport envelope type
	Envelope = phttp.Envelope

	// Response is the return-style response type
	Response = phttp.Response

	// Handler is the platform handler type
	Handler = phttp.Handler

	// Router is the platform router seam
	Router = phttp.Router
)

// OK returns a 200 enveloped response
func OK(data any) Response { return phttp.OK(data) }

// Error returns a response that maps an error to status and envelope
func Error(err error) Response { return phttp.Error(err) }

// Text returns a 200 response written verbatim
func Text(contentType string, body []byte) Response { return phttp.Text(contentType, body) }

// Param returns a URL path parameter
func Param(r *http.Request, name string) string { return phttp.Param(r, name) }

// JSON writes v without the envelope
func JSON(w http.ResponseWriter, status int, v any) { phttp.JSON(w, status, v) }
