//go:build database

package integration

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestPatternscanWithMySQL tests the patternscan CLI with a MySQL backend.
func TestPatternscanWithMySQL(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "patternscan",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/patternscan", host, port.Port())
	exerciseDatabaseBackend(t, "mysql", connStr)
}

// TestPatternscanWithPostgres tests the patternscan CLI with a PostgreSQL backend.
func TestPatternscanWithPostgres(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres", host, port.Port())
	exerciseDatabaseBackend(t, "postgresql", connStr)
}

// exerciseDatabaseBackend runs the cache and history commands against a
// database backend configured through the environment.
func exerciseDatabaseBackend(t *testing.T, backend, connStr string) {
	t.Helper()
	root := seedNuxtProject(t)
	env := isolatedEnv(t,
		"PATTERNSCAN_CACHE_BACKEND="+backend,
		"PATTERNSCAN_CACHE_DB_CONNECT="+connStr,
		"PATTERNSCAN_HISTORY_BACKEND="+backend,
		"PATTERNSCAN_HISTORY_DB_CONNECT="+connStr,
	)

	mustRun := func(args ...string) result {
		t.Helper()
		res := runPatternscan(t, root, env, args...)
		require.Zero(t, res.exitCode, "patternscan %v", args)
		return res
	}

	mustRun("history", "migrate")
	mustRun("cache", "clear")
	mustRun("history", "clear")

	// Cold then warm scan
	mustRun("patterns", "--output", "json")
	mustRun("patterns", "--output", "json")

	res := mustRun("cache", "status")
	assert.Contains(t, res.stdout, "Cache Backend: "+backend)

	res = mustRun("history", "status")
	assert.Contains(t, res.stdout, "History Backend: "+backend)

	out := filepath.Join(t.TempDir(), "pattern-history")
	res = mustRun("history", "export", "--output-file", out)
	assert.Contains(t, res.stdout, "Total runs: 2")
	assert.FileExists(t, out+".runs.parquet")
	assert.FileExists(t, out+".frequencies.parquet")

	// Roll the schema back and forward again
	mustRun("history", "migrate", "--target-version", "0")
	mustRun("history", "migrate")
}
