// Command prtimeline-api serves pull request timelines over HTTP
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"prtimeline/internal/platform/config"
	"prtimeline/internal/platform/logger"
	phttp "prtimeline/internal/platform/net/http"
	"prtimeline/internal/platform/store"

	"prtimeline/internal/services/api"
)

func main() {
	root := config.New()
	// CORE_API_PORT, CORE_API_WRITE_TIMEOUT, CORE_API_PROFILER
	apiCfg := root.Prefix("CORE_API_")

	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// both backends are optional for the API; readiness reports what is configured
	st, err := store.Open(ctx, store.FromConfig(root, "prtimeline-api"), store.WithLogger(*l))
	if err != nil {
		l.Fatal().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	srv := phttp.NewServer(apiCfg)
	api.Mount(srv.Router(), api.Options{
		Config:         root,
		Store:          st,
		EnableProfiler: apiCfg.MayBool("PROFILER", false),
	})

	if err := srv.Run(ctx); err != nil {
		l.Fatal().Err(err).Msg("http server stopped")
	}
}
