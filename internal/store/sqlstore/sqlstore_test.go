package sqlstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialsync/internal/store"
	"socialsync/internal/store/storetest"
)

func makeSQLiteStore(t *testing.T) store.Store {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "socialsync.db"))
	if err != nil {
		t.Fatalf("sqlite open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func makePGStore(t *testing.T) store.Store {
	t.Helper()
	dsn := os.Getenv("SOCIALSYNC_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SOCIALSYNC_TEST_POSTGRES_DSN not set; skipping postgres store integration test")
	}
	s, err := OpenPostgres(context.Background(), dsn)
	if err != nil {
		t.Fatalf("postgres open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_Compliance(t *testing.T) {
	storetest.Run(t, makeSQLiteStore)
}

func TestPostgresStore_Compliance(t *testing.T) {
	storetest.Run(t, makePGStore)
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := makeSQLiteStore(t).(*Store)
	require.NoError(t, s.Migrate(context.Background()))
}

func TestRebind(t *testing.T) {
	pg := &Store{dialect: Postgres}
	assert.Equal(t, "SELECT a FROM t WHERE a = $1 AND b IN ($2,$3)", pg.rebind("SELECT a FROM t WHERE a = ? AND b IN (?,?)"))

	lite := &Store{dialect: SQLite}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}
