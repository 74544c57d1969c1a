// Package dbtest starts a throwaway Postgres container for tests.
package dbtest

import (
	"fmt"
	"testing"
	"time"

	"github.com/irsalhamdi/course-market/config"
	"github.com/irsalhamdi/course-market/database"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

// New returns a migrated database. The test is skipped in short mode or when
// Docker is not reachable.
func New(t *testing.T) *sqlx.DB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker not available: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker not reachable: %v", err)
	}
	pool.MaxWait = 2 * time.Minute

	res, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "15-alpine",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_PASSWORD=postgres",
			"POSTGRES_DB=courses",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := pool.Purge(res); err != nil {
			t.Logf("purging postgres container: %v", err)
		}
	})
	_ = res.Expire(300)

	cfg := config.DB{
		User:         "postgres",
		Password:     "postgres",
		Host:         res.GetHostPort("5432/tcp"),
		Name:         "courses",
		MaxIdleConns: 5,
		MaxOpenConns: 20,
		DisableTLS:   true,
	}

	var db *sqlx.DB
	err = pool.Retry(func() error {
		var err error
		if db, err = database.Open(cfg); err != nil {
			return err
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return fmt.Errorf("pinging postgres: %w", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("connecting to postgres: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return db
}
