package testdb

import (
	"context"
	"testing"

	"student-records/internal/db"
	"student-records/internal/db/migrations"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

// NewSQLite returns a migrated in-memory database private to t.
func NewSQLite(t *testing.T) *bun.DB {
	t.Helper()
	ctx := context.Background()

	database, err := db.NewSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	require.NoError(t, migrations.Up(ctx, database))
	return database
}
