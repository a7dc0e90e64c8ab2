package version

import (
	"runtime"
	"testing"
)

func TestInfo(t *testing.T) {
	got := Info("prtimeline-api")
	if got.Service != "prtimeline-api" || got.Version != "dev" || got.GoVersion != runtime.Version() {
		t.Fatalf("info = %+v", got)
	}
}
