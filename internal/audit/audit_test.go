package audit

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jpl-au/sqlitepdo/internal/driver"
	"github.com/jpl-au/sqlitepdo/internal/value"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useTempDB(t *testing.T) {
	t.Helper()
	tmpDir := t.TempDir()
	orig := dbPathFunc
	dbPathFunc = func() string { return filepath.Join(tmpDir, "log", "test.db") }
	t.Cleanup(func() {
		Close()
		dbPathFunc = orig
	})
}

// readLog opens the audit database through a separate driver.
func readLog(t *testing.T, query string) *driver.Result {
	t.Helper()
	logger, _ := test.NewNullLogger()
	d, err := driver.New(driver.Options{Path: DBPath(), Logger: logger}, driver.PoolOptions{}, driver.Attributes{})
	require.NoError(t, err)
	defer d.Close()

	res, err := d.Query(context.Background(), query)
	require.NoError(t, err)
	return res
}

func TestOpenClose(t *testing.T) {
	useTempDB(t)
	require.NoError(t, Open())
	require.NoError(t, Open(), "open is idempotent")
	assert.FileExists(t, DBPath())
	Close()
	Close()
}

func TestEvent_Success(t *testing.T) {
	useTempDB(t)
	require.NoError(t, Open())

	Event("cli:exec", "exec").
		Database("/data/app.db").
		Statement("INSERT INTO t VALUES (1)").
		Rows(1).
		Write(nil)

	res := readLog(t, `SELECT source, action, db_hash, statement, row_count, success, error, end >= start FROM log`)
	require.Len(t, res.Rows, 1)
	row := res.Rows[0]
	assert.Equal(t, value.NewText("cli:exec"), row[0])
	assert.Equal(t, value.NewText("exec"), row[1])
	assert.Equal(t, value.NewText(hash("/data/app.db")), row[2])
	assert.Equal(t, value.NewText("INSERT INTO t VALUES (1)"), row[3])
	assert.Equal(t, value.NewInt(1), row[4])
	assert.Equal(t, value.NewInt(1), row[5])
	assert.True(t, row[6].IsNull())
	assert.Equal(t, value.NewInt(1), row[7])
}

func TestEvent_Failure(t *testing.T) {
	useTempDB(t)
	require.NoError(t, Open())

	Event("mcp:sqlite_query", "query").Write(errors.New("no such table: t"))

	res := readLog(t, `SELECT success, error, db_hash, statement FROM log ORDER BY id DESC LIMIT 1`)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, value.NewInt(0), res.Value(0, 0))
	assert.Equal(t, value.NewText("no such table: t"), res.Value(0, 1))
	assert.True(t, res.Value(0, 2).IsNull())
	assert.True(t, res.Value(0, 3).IsNull())
}

func TestEvent_Detail(t *testing.T) {
	useTempDB(t)
	require.NoError(t, Open())

	Event("cli:wal", "checkpoint").Detail("size_mb", 12.5).Detail("trigger", "manual").Write(nil)

	res := readLog(t, `SELECT detail FROM log ORDER BY id DESC LIMIT 1`)
	detail := res.Value(0, 0).String()
	assert.Contains(t, detail, `"size_mb":12.5`)
	assert.Contains(t, detail, `"trigger":"manual"`)
}

func TestLog_WithoutOpenIsNoop(t *testing.T) {
	Close()
	assert.NotPanics(t, func() {
		Log(Entry{Source: "test:cmd", Action: "test", Success: true})
	})
}

func TestHash(t *testing.T) {
	h := hash("/data/app.db")
	assert.Len(t, h, 16)
	assert.Equal(t, h, hash("/data/app.db"))
	assert.NotEqual(t, h, hash("/data/other.db"))
}
