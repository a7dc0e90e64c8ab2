package httpkit

import (
	"net/http"
	"time"

	"prtimeline/internal/platform/config"
	"prtimeline/internal/platform/net/middleware"
)

// CommonStack is the baseline middleware for every route, configured from cfg
// (CORS_ORIGINS, SLOW_REQUEST, REQUEST_TIMEOUT)
func CommonStack(cfg config.Conf) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.AccessLogZerolog(middleware.AccessLogOptions{
			Slow: cfg.MayDuration("SLOW_REQUEST", 5*time.Second),
		}),
		middleware.RecoverJSON,
		middleware.NoCache(),
		middleware.StripSlashes(),
		middleware.CORS(middleware.CORSOptions{
			AllowedOrigins: cfg.MayCSV("CORS_ORIGINS", nil),
		}),
		middleware.Timeout(cfg.MayDuration("REQUEST_TIMEOUT", 2*time.Minute)),
	}
}
