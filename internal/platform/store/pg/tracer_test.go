package pg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"prtimeline/internal/platform/logger"

	"github.com/rs/zerolog"
)

func TestCompact(t *testing.T) {
	t.Parallel()
	cases := []struct{ in, want string }{
		{"select 1", "select 1"},
		{"  select   1  ", "select 1"},
		{"INSERT INTO pull_request_events\n\t(repo, pr_number)\r\nVALUES ($1, $2)", "INSERT INTO pull_request_events (repo, pr_number) VALUES ($1, $2)"},
		{"", ""},
	}
	for _, c := range cases {
		if got := compact(c.in); got != c.want {
			t.Fatalf("compact(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestTracerLevelsAndFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	tr := Tracer(zerolog.New(&buf))

	type line struct {
		Level     string  `json:"level"`
		ElapsedMS float64 `json:"elapsed_ms"`
		Slow      bool    `json:"slow"`
		SQL       string  `json:"sql"`
		Error     string  `json:"error"`
		RunID     string  `json:"run_id"`
		Component string  `json:"component"`
		Message   string  `json:"message"`
	}
	decode := func() line {
		t.Helper()
		var l line
		if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &l); err != nil {
			t.Fatalf("unmarshal: %v raw=%s", err, buf.String())
		}
		buf.Reset()
		return l
	}

	ctx := logger.WithRun(context.Background(), "run-7", "acme/widgets")
	ev := QueryEvent{SQL: "DELETE FROM pull_request_events\n WHERE repo = $1", Args: []any{"acme/widgets"}, ElapsedUS: 2500, Err: errors.New("boom")}
	tr.OnQuery(ctx, ev)
	l := decode()
	if l.Level != "info" || l.Slow || l.ElapsedMS != 2.5 || l.Error != "boom" || l.Message != "pg query" {
		t.Fatalf("info line = %+v", l)
	}
	if l.SQL != "DELETE FROM pull_request_events WHERE repo = $1" || l.RunID != "run-7" || l.Component != "pg" {
		t.Fatalf("fields = %+v", l)
	}

	ev.Slow = true
	tr.OnQuery(context.Background(), ev)
	l = decode()
	if l.Level != "warn" || !l.Slow || l.RunID != "" {
		t.Fatalf("warn line = %+v", l)
	}
}
