// Package testutil provides an in-memory database built from the production migrations for repository and HTTP tests.
package testutil

import (
	"braidbook/infras/postgres"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// sqliteDialect rewrites the postgres-only column types and defaults used by the migrations.
var sqliteDialect = strings.NewReplacer(
	"TIMESTAMPTZ", "TIMESTAMP",
	"DEFAULT NOW()", "DEFAULT CURRENT_TIMESTAMP",
)

// MigrationsDir is the directory holding the production up/down migrations.
func MigrationsDir(t *testing.T) string {
	t.Helper()

	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)

	return filepath.Join(filepath.Dir(file), "..", "..", "migrations", "postgres")
}

// Schema returns every up migration in order, rewritten for sqlite.
func Schema(t *testing.T) string {
	t.Helper()

	files, err := filepath.Glob(filepath.Join(MigrationsDir(t), "*.up.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	var schema strings.Builder

	for _, file := range files {
		raw, err := os.ReadFile(file)
		require.NoError(t, err)

		schema.WriteString(sqliteDialect.Replace(string(raw)))
		schema.WriteString("\n")
	}

	return schema.String()
}

var databases atomic.Int64

// NewDB opens a private in-memory database with the migrations applied. A single connection
// serialises access: concurrent callers interleave on the same rows and the unique index decides
// between them, but statements never run in parallel.
func NewDB(t *testing.T) *postgres.Connection {
	t.Helper()

	dsn := fmt.Sprintf("file:braidbook_%d?mode=memory&cache=shared&_busy_timeout=5000", databases.Add(1))

	db, err := sqlx.Open("sqlite3", dsn)
	require.NoError(t, err)

	db.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = db.Close()
	})

	_, err = db.Exec(Schema(t))
	require.NoError(t, err)

	return postgres.NewFromDB(db)
}

// Exec runs a raw statement, for seeding and for asserting on state the repositories do not expose.
func Exec(t *testing.T, conn *postgres.Connection, query string, args ...any) {
	t.Helper()

	_, err := conn.Write.Exec(conn.Write.Rebind(query), args...)
	require.NoError(t, err)
}
