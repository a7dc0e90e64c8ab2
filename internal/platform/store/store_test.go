package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"prtimeline/internal/platform/config"
	perr "prtimeline/internal/platform/errors"
	"prtimeline/internal/platform/store/ch"
	kit "prtimeline/internal/platform/testkit"
)

// fakeCH records calls and satisfies both chConn and Clickhouse
type fakeCH struct {
	inserted map[string][][]any
	execs    []string
	pingErr  error
	closed   bool
}

func (f *fakeCH) Insert(_ context.Context, table string, rows [][]any) error {
	if f.inserted == nil {
		f.inserted = map[string][][]any{}
	}
	f.inserted[table] = append(f.inserted[table], rows...)
	return nil
}
func (f *fakeCH) Exec(_ context.Context, sql string, _ ...any) error {
	f.execs = append(f.execs, sql)
	return nil
}
func (f *fakeCH) Query(context.Context, string, ...any) (ch.Rows, error) {
	return nil, errors.New("no rows in fake")
}
func (f *fakeCH) Ping(context.Context) error { return f.pingErr }
func (f *fakeCH) Close() error               { f.closed = true; return nil }

type fakePG struct {
	TxRunner
	pingErr error
	closed  bool
}

func (f *fakePG) Ping(context.Context) error { return f.pingErr }
func (f *fakePG) Close() error               { f.closed = true; return nil }

func TestOpenDisabledBackendsStayNil(t *testing.T) {
	kit.Serial(t)
	s, err := Open(context.Background(), Config{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.PG != nil || s.CH != nil {
		t.Fatalf("unexpected seams PG=%T CH=%T", s.PG, s.CH)
	}
	if err := s.Guard(context.Background()); err != nil {
		t.Fatalf("Guard on empty store = %v", err)
	}
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close = %v", err)
	}
}

func TestOpenWiresBothBackends(t *testing.T) {
	kit.Serial(t)
	pg := &fakePG{}
	c := &fakeCH{}
	kit.Swap(t, &openPGFn, func(context.Context, Config, *Store) (TxRunner, error) { return pg, nil })
	kit.Swap(t, &openCHFn, func(context.Context, Config, *Store) (Clickhouse, error) { return newCHAdapter(c), nil })

	s, err := Open(context.Background(), Config{PG: PGConfig{Enabled: true}, CH: CHConfig{Enabled: true}})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.PG == nil || s.CH == nil {
		t.Fatalf("backends not wired")
	}

	pg.pingErr = errors.New("pg down")
	c.pingErr = errors.New("ch down")
	err = s.Guard(context.Background())
	kit.MustContain(t, err.Error(), "pg: pg down")
	kit.MustContain(t, err.Error(), "ch: ch down")

	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !pg.closed || !c.closed {
		t.Fatalf("close not propagated pg=%v ch=%v", pg.closed, c.closed)
	}
}

func TestOpenCHFailureClosesPG(t *testing.T) {
	kit.Serial(t)
	pg := &fakePG{}
	kit.Swap(t, &openPGFn, func(context.Context, Config, *Store) (TxRunner, error) { return pg, nil })
	kit.Swap(t, &openCHFn, func(context.Context, Config, *Store) (Clickhouse, error) { return nil, errors.New("dial") })

	if _, err := Open(context.Background(), Config{PG: PGConfig{Enabled: true}, CH: CHConfig{Enabled: true}}); err == nil {
		t.Fatalf("expected error")
	}
	if !pg.closed {
		t.Fatalf("pg should be closed when ch fails")
	}
}

func TestOpenPGBadURL(t *testing.T) {
	kit.Serial(t)
	_, err := Open(context.Background(), Config{PG: PGConfig{Enabled: true, URL: "://bad"}})
	if err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestCHAdapterDelegates(t *testing.T) {
	c := &fakeCH{}
	a := newCHAdapter(c)
	rows := [][]any{{"acme/widgets", 1}, {"acme/widgets", 2}}
	if err := a.Insert(context.Background(), "pr_timeline_events", rows); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if len(c.inserted["pr_timeline_events"]) != 2 {
		t.Fatalf("inserted = %v", c.inserted)
	}
	if err := a.Exec(context.Background(), "SELECT 1"); err != nil || len(c.execs) != 1 {
		t.Fatalf("Exec not delegated")
	}
	if _, err := a.Query(context.Background(), "SELECT 1"); err == nil {
		t.Fatalf("Query error should bubble")
	}
	if err := a.(Pinger).Ping(context.Background()); err != nil {
		t.Fatalf("Ping = %v", err)
	}
}

func TestFromConfig(t *testing.T) {
	t.Setenv("SERVICE_PGSQL_DBURL", "postgres://u:p@db:5432/prs")
	t.Setenv("SERVICE_PGSQL_MAX_CONNS", "9")
	t.Setenv("SERVICE_PGSQL_PING_TIMEOUT", "1s")
	t.Setenv("SERVICE_CLICKHOUSE_DBURL", "")

	c := FromConfig(config.New(), "prtimeline-cli")
	if !c.PG.Enabled || c.PG.URL != "postgres://u:p@db:5432/prs" || c.PG.MaxConns != 9 || c.PG.PingTimeout != time.Second {
		t.Fatalf("pg config = %+v", c.PG)
	}
	if c.CH.Enabled {
		t.Fatalf("ch should be disabled without DBURL")
	}
	if c.AppName != "prtimeline-cli" || c.PG.ConnectRetries != 6 {
		t.Fatalf("defaults = %+v", c)
	}
}

// fakeQuerier serves canned results for the helper tests
type fakeQuerier struct {
	affected int64
	scalar   any
	err      error
}

type fakeTag int64

func (t fakeTag) String() string      { return "INSERT 0" }
func (t fakeTag) RowsAffected() int64 { return int64(t) }

type fakeRow struct {
	v   any
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int)) = r.v.(int)
	return nil
}

func (f *fakeQuerier) Exec(context.Context, string, ...any) (CommandTag, error) {
	return fakeTag(f.affected), f.err
}
func (f *fakeQuerier) Query(context.Context, string, ...any) (Rows, error) {
	return nil, f.err
}
func (f *fakeQuerier) QueryRow(context.Context, string, ...any) Row {
	return fakeRow{v: f.scalar, err: f.err}
}

func TestHelpers(t *testing.T) {
	ctx := context.Background()

	if err := ExecOne(ctx, &fakeQuerier{affected: 1}, "UPDATE"); err != nil {
		t.Fatalf("ExecOne(1) = %v", err)
	}
	err := ExecOne(ctx, &fakeQuerier{affected: 2}, "UPDATE")
	if !perr.IsCode(err, perr.ErrorCodeDB) {
		t.Fatalf("ExecOne(2) code = %v", perr.CodeOf(err))
	}

	n, err := Scalar[int](ctx, &fakeQuerier{scalar: 42}, "SELECT count(*)")
	if err != nil || n != 42 {
		t.Fatalf("Scalar = %d, %v", n, err)
	}
	if _, err := Scalar[int](ctx, &fakeQuerier{err: errors.New("x")}, "SELECT"); err == nil {
		t.Fatalf("Scalar should bubble errors")
	}
}
