package repo

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"prtimeline/internal/core/report"
	"prtimeline/internal/core/teams"
	"prtimeline/internal/core/timeline"
	"prtimeline/internal/modkit/repokit"
	perr "prtimeline/internal/platform/errors"
	"prtimeline/internal/platform/store"
	kit "prtimeline/internal/platform/testkit"
	"prtimeline/internal/services/timeline/timelinetest"
)

func built(t *testing.T, n int) timeline.PullRequest {
	t.Helper()
	idx := teams.Build([]teams.Team{{Name: "core", Members: []string{"alice"}}})
	pr, err := timeline.Build(timelinetest.SimplePR(n, "alice", "bob", "2024-03-01T09:00:00Z"), idx)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return pr
}

func TestReportSink(t *testing.T) {
	var buf bytes.Buffer
	r := NewReport(&buf, report.FormatTSV)
	ctx := context.Background()
	if err := r.Write(ctx, built(t, 1)); err != nil {
		t.Fatalf("write: %v", err)
	}
	// flushed per pull request, before Close
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.HasPrefix(lines[0], "timestamp\tactor\tevent_type") {
		t.Fatalf("header = %q", lines[0])
	}
	kit.MustContain(t, lines[1], "2024-03-01T09:00:00Z\talice\tOPEN\t")
	if err := r.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if strings.Count(buf.String(), "timestamp\t") != 1 {
		t.Fatalf("header repeated: %q", buf.String())
	}
}

func TestReportSinkEmptyWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := NewReport(&buf, report.FormatCSV).Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := buf.String(); got != strings.Join(report.Header, ",")+"\n" {
		t.Fatalf("empty report = %q", got)
	}
}

type stubSink struct {
	writes   int
	writeErr error
	closeErr error
	closed   bool
}

func (s *stubSink) Write(context.Context, timeline.PullRequest) error {
	s.writes++
	return s.writeErr
}

func (s *stubSink) Close(context.Context) error { s.closed = true; return s.closeErr }

func TestMulti(t *testing.T) {
	a, b, c := &stubSink{}, &stubSink{writeErr: errors.New("b broke"), closeErr: errors.New("b close")}, &stubSink{closeErr: errors.New("c close")}
	m := Multi{a, b, c}
	ctx := context.Background()

	if err := m.Write(ctx, timeline.PullRequest{Number: 1}); err == nil || err.Error() != "b broke" {
		t.Fatalf("write err = %v", err)
	}
	if a.writes != 1 || b.writes != 1 || c.writes != 0 {
		t.Fatalf("writes = %d %d %d", a.writes, b.writes, c.writes)
	}

	err := m.Close(ctx)
	if !a.closed || !b.closed || !c.closed {
		t.Fatalf("every sink must be closed")
	}
	kit.MustContain(t, err.Error(), "b close")
	kit.MustContain(t, err.Error(), "c close")
}

type fakeCH struct {
	store.Clickhouse
	execs   []string
	inserts [][][]any
	execErr error
	insErr  error
}

func (f *fakeCH) Exec(_ context.Context, sql string, _ ...any) error {
	f.execs = append(f.execs, sql)
	return f.execErr
}

func (f *fakeCH) Insert(_ context.Context, table string, rows [][]any) error {
	if table != EventsTable {
		return errors.New("wrong table " + table)
	}
	f.inserts = append(f.inserts, rows)
	return f.insErr
}

func TestClickHouseBatches(t *testing.T) {
	ctx := context.Background()
	fc := &fakeCH{}
	sink, err := NewClickHouse(ctx, fc, "acme/widgets", "run-1", 3)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if len(fc.execs) != 1 || !strings.Contains(fc.execs[0], "CREATE TABLE IF NOT EXISTS "+EventsTable) {
		t.Fatalf("ddl = %v", fc.execs)
	}

	// two events per pull request: the second write crosses the batch
	for n := 1; n <= 3; n++ {
		if err := sink.Write(ctx, built(t, n)); err != nil {
			t.Fatalf("write %d: %v", n, err)
		}
	}
	if len(fc.inserts) != 1 || len(fc.inserts[0]) != 4 {
		t.Fatalf("inserts after writes = %d", len(fc.inserts))
	}
	if err := sink.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(fc.inserts) != 2 || len(fc.inserts[1]) != 2 {
		t.Fatalf("inserts after close = %d", len(fc.inserts))
	}
	// nothing left to flush
	if err := sink.Close(ctx); err != nil || len(fc.inserts) != 2 {
		t.Fatalf("second close = %v, inserts %d", err, len(fc.inserts))
	}

	row := fc.inserts[0][1]
	if len(row) != 13 {
		t.Fatalf("row width = %d", len(row))
	}
	if row[0] != "run-1" || row[1] != "acme/widgets" || row[2] != uint32(1) || row[3] != uint16(1) {
		t.Fatalf("row head = %v", row[:4])
	}
	if ts, ok := row[4].(time.Time); !ok || ts.Location() != time.UTC {
		t.Fatalf("ts = %#v", row[4])
	}
	if row[6] != "REVIEW" || row[12] != uint32(1) {
		t.Fatalf("event = %v comments = %v", row[6], row[12])
	}
	if to, ok := row[10].([]string); !ok || to == nil {
		t.Fatalf("to_teams must be a non-nil slice, got %#v", row[10])
	}
}

func TestClickHouseErrors(t *testing.T) {
	ctx := context.Background()
	if _, err := NewClickHouse(ctx, nil, "a/b", "r", 0); !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("nil backend = %v", err)
	}
	if _, err := NewClickHouse(ctx, &fakeCH{execErr: errors.New("denied")}, "a/b", "r", 0); !perr.IsCode(err, perr.ErrorCodeDB) {
		t.Fatalf("ddl failure = %v", err)
	}

	fc := &fakeCH{insErr: errors.New("full")}
	sink, err := NewClickHouse(ctx, fc, "a/b", "r", 1)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := sink.Write(ctx, built(t, 1)); !perr.IsCode(err, perr.ErrorCodeDB) {
		t.Fatalf("insert failure = %v", err)
	}
}

type call struct {
	sql  string
	args []any
}

type pgTag int64

func (t pgTag) String() string      { return "INSERT 0 1" }
func (t pgTag) RowsAffected() int64 { return int64(t) }

type fakePG struct {
	repokit.TxRunner
	calls   []call
	failOn  string
	txCount int
	// upserted is what the pull request upsert reports as affected
	upserted *int64
}

func (f *fakePG) Exec(_ context.Context, sql string, args ...any) (repokit.CommandTag, error) {
	f.calls = append(f.calls, call{sql: sql, args: args})
	if f.failOn != "" && strings.Contains(sql, f.failOn) {
		return nil, errors.New("boom")
	}
	if f.upserted != nil && strings.Contains(sql, "INSERT INTO pull_requests") {
		return pgTag(*f.upserted), nil
	}
	return pgTag(1), nil
}

func (f *fakePG) Tx(_ context.Context, fn func(repokit.Queryer) error) error {
	f.txCount++
	f.calls = append(f.calls, call{sql: "BEGIN"})
	if err := fn(f); err != nil {
		f.calls = append(f.calls, call{sql: "ROLLBACK"})
		return err
	}
	f.calls = append(f.calls, call{sql: "COMMIT"})
	return nil
}

func (f *fakePG) sqls() []string {
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = strings.Fields(c.sql)[0]
	}
	return out
}

func TestPostgresWrite(t *testing.T) {
	ctx := context.Background()
	fp := &fakePG{}
	sink, err := NewPostgres(ctx, fp, "acme/widgets", "run-1")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if len(fp.calls) != len(schema) {
		t.Fatalf("schema calls = %d", len(fp.calls))
	}
	fp.calls = nil

	if err := sink.Write(ctx, built(t, 42)); err != nil {
		t.Fatalf("write: %v", err)
	}
	got := strings.Join(fp.sqls(), " ")
	if got != "BEGIN SELECT INSERT DELETE INSERT COMMIT" {
		t.Fatalf("statements = %s", got)
	}
	if fp.calls[1].args[0] != "acme/widgets" {
		t.Fatalf("lock key = %v", fp.calls[1].args)
	}

	up := fp.calls[2].args
	if up[0] != "acme/widgets" || up[1] != 42 || up[3] != "alice" || up[11] != "run-1" {
		t.Fatalf("upsert args = %v", up)
	}
	if up[9] != (*time.Time)(nil) || up[10] != (*time.Time)(nil) {
		t.Fatalf("open pull request must store null merged/closed, got %v %v", up[9], up[10])
	}

	ev := fp.calls[4]
	if len(ev.args) != 2*11 {
		t.Fatalf("event args = %d", len(ev.args))
	}
	kit.MustContain(t, ev.sql, "($12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)")
	if ev.args[11+3] != "REVIEW" || ev.args[11+8] != "APPROVED" || ev.args[11+9] != 1 {
		t.Fatalf("review row = %v", ev.args[11:])
	}
	if ev.args[8] != nil || ev.args[10] != nil {
		t.Fatalf("open row state/sha = %v %v", ev.args[8], ev.args[10])
	}
	if err := sink.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestPostgresRollsBack(t *testing.T) {
	ctx := context.Background()
	fp := &fakePG{}
	sink, err := NewPostgres(ctx, fp, "a/b", "r")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	fp.calls, fp.failOn = nil, "DELETE"
	err = sink.Write(ctx, built(t, 1))
	if !perr.IsCode(err, perr.ErrorCodeDB) {
		t.Fatalf("err = %v", err)
	}
	if got := fp.sqls(); got[len(got)-1] != "ROLLBACK" {
		t.Fatalf("statements = %v", got)
	}
}

func TestPostgresUpsertMustTouchOneRow(t *testing.T) {
	ctx := context.Background()
	none := int64(0)
	fp := &fakePG{upserted: &none}
	sink, err := NewPostgres(ctx, fp, "a/b", "r")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	fp.calls = nil
	err = sink.Write(ctx, built(t, 1))
	if !perr.IsCode(err, perr.ErrorCodeDB) {
		t.Fatalf("err = %v", err)
	}
	kit.MustContain(t, err.Error(), "upsert pull request a/b#1")
	if got := fp.sqls(); got[len(got)-1] != "ROLLBACK" || slices.Contains(got, "DELETE") {
		t.Fatalf("statements = %v", got)
	}
}

func TestPostgresErrors(t *testing.T) {
	ctx := context.Background()
	if _, err := NewPostgres(ctx, nil, "a/b", "r"); !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("nil backend = %v", err)
	}
	if _, err := NewPostgres(ctx, &fakePG{failOn: "CREATE"}, "a/b", "r"); !perr.IsCode(err, perr.ErrorCodeDB) {
		t.Fatalf("schema failure = %v", err)
	}
}
