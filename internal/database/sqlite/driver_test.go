package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/datame/internal/database"
	"github.com/koustreak/datame/internal/errs"
)

func open(t *testing.T) *Driver {
	t.Helper()
	cfg := database.DefaultConfig(database.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	d, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(d.Close)
	return d
}

func TestDriver_TableLifecycle(t *testing.T) {
	ctx := context.Background()
	d := open(t)
	assert.Equal(t, database.DialectSQLite, d.Dialect())

	exists, err := d.TableExists(ctx, "things")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, d.Exec(ctx, `CREATE TABLE "things" ("id" INTEGER, "name" TEXT)`))
	exists, err = d.TableExists(ctx, "things")
	require.NoError(t, err)
	assert.True(t, exists)

	tx, err := d.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Exec(ctx, `INSERT INTO "things" ("id", "name") VALUES (?, ?)`, 1, "a"))
	require.NoError(t, tx.Exec(ctx, `INSERT INTO "things" ("id", "name") VALUES (?, ?)`, 2, "b"))
	require.NoError(t, tx.Commit(ctx))
	require.NoError(t, tx.Rollback(ctx), "rollback after commit is a no-op")

	var n int
	require.NoError(t, d.QueryRow(ctx, `SELECT COUNT(*) FROM "things"`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestDriver_RollbackDiscards(t *testing.T) {
	ctx := context.Background()
	d := open(t)
	require.NoError(t, d.Exec(ctx, `CREATE TABLE "t" ("id" INTEGER)`))

	tx, err := d.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Exec(ctx, `INSERT INTO "t" ("id") VALUES (?)`, 1))
	require.NoError(t, tx.Rollback(ctx))

	var n int
	require.NoError(t, d.QueryRow(ctx, `SELECT COUNT(*) FROM "t"`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestDriver_QueryErrorIsMapped(t *testing.T) {
	d := open(t)
	err := d.Exec(context.Background(), `INSERT INTO "missing" ("id") VALUES (1)`)
	require.Error(t, err)
	assert.True(t, errs.IsQueryFailed(err), "got %v", err)
}

func TestClassifyCode(t *testing.T) {
	assert.Equal(t, errs.ErrKindInvalidInput, classifyCode(19))   // SQLITE_CONSTRAINT
	assert.Equal(t, errs.ErrKindInvalidInput, classifyCode(2067)) // SQLITE_CONSTRAINT_UNIQUE
	assert.Equal(t, errs.ErrKindTimeout, classifyCode(5))         // SQLITE_BUSY
	assert.Equal(t, errs.ErrKindQueryFailed, classifyCode(1))     // SQLITE_ERROR
}
