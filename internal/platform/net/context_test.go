package net_test

import (
	"context"
	"testing"

	"prtimeline/internal/platform/logger"
	pnet "prtimeline/internal/platform/net"

	chimw "github.com/go-chi/chi/v5/middleware"
)

func TestWithRequest(t *testing.T) {
	ctx := pnet.WithRequest(context.Background(), "req-9")
	if got := pnet.RequestID(ctx); got != "req-9" {
		t.Fatalf("RequestID = %q", got)
	}
	if got := chimw.GetReqID(ctx); got != "req-9" {
		t.Fatalf("chi GetReqID = %q", got)
	}
	// logger reads the same id without going through chi
	_ = logger.C(ctx)
}

func TestWithRequestEmpty(t *testing.T) {
	base := context.Background()
	if ctx := pnet.WithRequest(base, ""); ctx != base {
		t.Fatalf("empty id should return ctx unchanged")
	}
	if got := pnet.RequestID(base); got != "" {
		t.Fatalf("RequestID(empty) = %q", got)
	}
}
