//go:build integration_pg
// +build integration_pg

package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"prtimeline/internal/platform/store"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres launches a disposable Postgres and returns its DSN
func startPostgres(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	t.Cleanup(cancel)

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "postgres",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections"),
			).WithDeadline(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	mp, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("mapped port: %v", err)
	}
	return fmt.Sprintf("postgres://postgres:postgres@%s:%s/postgres?sslmode=disable", host, mp.Port())
}

func TestPostgresSink_Integration(t *testing.T) {
	dsn := startPostgres(t)
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	st, err := store.Open(ctx, store.Config{
		AppName: "prtimeline-test",
		PG:      store.PGConfig{Enabled: true, URL: dsn, MaxConns: 2, ConnectRetries: 10, PingTimeout: 3 * time.Second},
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = st.Close(ctx) }()

	sink, err := NewPostgres(ctx, st.PG, "acme/widgets", "run-1")
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	pr := built(t, 7)
	// a rerun replaces rather than duplicates
	for range 2 {
		if err := sink.Write(ctx, pr); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := sink.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	n, err := store.Scalar[int](ctx, st.PG, `SELECT count(*)::int FROM pull_request_events WHERE repo = $1 AND number = $2`, "acme/widgets", 7)
	if err != nil || n != 2 {
		t.Fatalf("events = %d err = %v", n, err)
	}
	author, err := store.Scalar[string](ctx, st.PG, `SELECT author FROM pull_requests WHERE repo = $1 AND number = $2`, "acme/widgets", 7)
	if err != nil || author != "alice" {
		t.Fatalf("author = %q err = %v", author, err)
	}
	state, err := store.Scalar[string](ctx, st.PG, `SELECT review_state FROM pull_request_events WHERE repo = $1 AND number = $2 AND kind = 'REVIEW'`, "acme/widgets", 7)
	if err != nil || state != "APPROVED" {
		t.Fatalf("review state = %q err = %v", state, err)
	}
}
