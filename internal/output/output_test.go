package output

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/datame/internal/config"
	"github.com/koustreak/datame/internal/database"
	"github.com/koustreak/datame/internal/database/sqlite"
	"github.com/koustreak/datame/internal/errs"
	"github.com/koustreak/datame/internal/parser"
	"github.com/koustreak/datame/internal/pipeline"
	"github.com/koustreak/datame/internal/writer"
)

func run(t *testing.T, req Request, records int) (pipeline.Stats, error) {
	t.Helper()
	target, err := Resolve(req)
	require.NoError(t, err)
	return pipeline.Run(context.Background(), req.Schema, target, pipeline.Options{Records: records})
}

func TestResolve_CSVFile(t *testing.T) {
	tbl, err := parser.ParseTable("table foo(total float, name string,);")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "foo.csv")

	stats, err := run(t, Request{Format: writer.FormatCSV, Dest: path, Table: tbl.Name, Schema: tbl.Schema, Config: config.Default()}, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "total,name", lines[0])
	assert.True(t, strings.HasSuffix(lines[1], ",placeholder"))
}

func TestResolve_GateFailureCreatesNothing(t *testing.T) {
	s, err := parser.Parse("table t(items list(integer),);")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "never.csv")

	_, err = run(t, Request{Format: writer.FormatCSV, Dest: path, Table: "t", Schema: s}, 10)
	require.Error(t, err)
	assert.True(t, errs.IsCapability(err))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestResolve_StdoutLZ4(t *testing.T) {
	s, err := parser.Parse("table t(a integer, r record(b string,),);")
	require.NoError(t, err)
	cfg := config.Default()
	cfg.Compress = "lz4"

	var buf bytes.Buffer
	_, err = run(t, Request{Format: writer.FormatJSON, Dest: "-", Table: "t", Schema: s, Config: cfg, Stdout: &buf}, 2)
	require.NoError(t, err)

	var plain bytes.Buffer
	_, err = plain.ReadFrom(lz4.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(plain.String(), `"r":{"b":"placeholder"}`))
}

func TestResolve_SQLite(t *testing.T) {
	tbl, err := parser.ParseTable("table sales(id integer, total float, agent string,);")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "sales.db")
	cfg := config.Default()
	cfg.BatchSize = 4

	stats, err := run(t, Request{Format: writer.FormatSQLite, Dest: path, Table: tbl.Name, Schema: tbl.Schema, Config: cfg}, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Written)

	db, err := sqlite.New(context.Background(), database.DefaultConfig(database.DriverSQLite, path))
	require.NoError(t, err)
	defer db.Close()
	var n int
	require.NoError(t, db.QueryRow(context.Background(), `SELECT COUNT(*) FROM "sales"`).Scan(&n))
	assert.Equal(t, 10, n)
}

func TestResolve_Invalid(t *testing.T) {
	s, err := parser.Parse("table t(a integer,);")
	require.NoError(t, err)

	tests := []struct {
		name string
		req  Request
	}{
		{"postgres without dsn", Request{Format: writer.FormatPostgres, Dest: "-", Schema: s}},
		{"mongo with wrong scheme", Request{Format: writer.FormatMongo, Dest: "postgres://x/y", Schema: s}},
		{"s3 without key", Request{Format: writer.FormatJSON, Dest: "s3://bucket/", Schema: s}},
		{"unknown format", Request{Format: "xml", Schema: s}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.req)
			require.Error(t, err)
			assert.True(t, errs.IsInvalidInput(err), "got %v", err)
		})
	}
}

func TestResolve_DatabaseDSNFallsBackToConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Database.DSN = "postgres://localhost/app"
	req := Request{Format: writer.FormatPostgres, Dest: "", Config: cfg}
	assert.Equal(t, "postgres://localhost/app", req.dsn())

	req.Dest = "postgres://other/db"
	assert.Equal(t, "postgres://other/db", req.dsn())
}
