package modkit

import (
	"net/http"
	"testing"

	"prtimeline/internal/modkit/httpkit"
	"prtimeline/internal/platform/store"
)

func TestBuildDefaults(t *testing.T) {
	b := Build()
	if b.Name != "" || b.Prefix != "" || b.Ports != nil || len(b.Mw) != 0 {
		t.Fatalf("Build() = %+v", b)
	}
	b.Register(nil) // no-op default must not panic
}

func TestBuildOptions(t *testing.T) {
	type ports struct{ N int }
	mw := func(next http.Handler) http.Handler { return next }
	src := []func(http.Handler) http.Handler{mw}
	called := false

	b := Build(
		WithName("timelines"),
		WithPrefix("/repos"),
		WithMiddlewares(src...),
		WithPorts(ports{N: 3}),
		WithRegister(func(httpkit.Router) { called = true }),
		WithName("override"),
	)
	if b.Name != "override" || b.Prefix != "/repos" {
		t.Fatalf("name/prefix = %q %q", b.Name, b.Prefix)
	}
	if p, ok := b.Ports.(ports); !ok || p.N != 3 {
		t.Fatalf("ports = %#v", b.Ports)
	}
	src[0] = nil
	if len(b.Mw) != 1 || b.Mw[0] == nil {
		t.Fatalf("middleware slice should be copied")
	}
	b.Register(nil)
	if !called {
		t.Fatalf("register hook not called")
	}
}

func TestDepsFromStore(t *testing.T) {
	d := Deps{}.FromStore(nil)
	if d.PG != nil || d.CH != nil {
		t.Fatalf("nil store should leave seams nil")
	}
	d = Deps{}.FromStore(&store.Store{})
	if d.PG != nil || d.CH != nil {
		t.Fatalf("empty store should leave seams nil")
	}
}
