package ch

import (
	"context"
	"testing"
)

func TestOpenRejectsBadDSN(t *testing.T) {
	t.Parallel()
	if _, err := Open(context.Background(), Config{URL: "://nope"}); err == nil {
		t.Fatalf("expected dsn error")
	}
}

func TestInsertEmptyIsNoop(t *testing.T) {
	t.Parallel()
	c := &CH{}
	if err := c.Insert(context.Background(), "pr_timeline_events", nil); err != nil {
		t.Fatalf("Insert(nil) = %v", err)
	}
}

func TestCloseNilSafe(t *testing.T) {
	t.Parallel()
	var c *CH
	if err := c.Close(); err != nil {
		t.Fatalf("Close = %v", err)
	}
	if err := (&CH{}).Close(); err != nil {
		t.Fatalf("Close zero = %v", err)
	}
}

func TestBuildClientInfo(t *testing.T) {
	t.Parallel()
	info := BuildClientInfo("cli", "")
	got := map[string]string{}
	for _, p := range info.Products {
		got[p.Name] = p.Version
	}
	if got["role"] != "cli" {
		t.Fatalf("role = %q", got["role"])
	}
	if got["prtimeline"] != "unknown" {
		t.Fatalf("blank tag should read unknown, got %q", got["prtimeline"])
	}
	if got["go"] == "" || got["commit"] == "" {
		t.Fatalf("products = %v", got)
	}
}
