package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/datame/internal/errs"
)

type result struct {
	stdout, stderr string
	err            error
}

func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	err := Run(context.Background(), args, Env{
		Getenv: func(string) string { return "" },
		Stdin:  strings.NewReader(stdin),
		Stdout: &out,
		Stderr: &errOut,
	})
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

func schemaFile(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.tbl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestGenerate_JSONToStdout(t *testing.T) {
	path := schemaFile(t, "table t(a integer, tags list(string),);")
	res := run(t, "", "-s", path, "-f", "json", "-r", "3", "-")
	require.NoError(t, res.err, res.stderr)

	lines := strings.Split(strings.TrimSuffix(res.stdout, "\n"), "\n")
	require.Len(t, lines, 3)
	for _, l := range lines {
		assert.Contains(t, l, `"tags":["placeholder","placeholder","placeholder","placeholder"]`)
	}
}

func TestGenerate_DefaultRecordCount(t *testing.T) {
	res := run(t, "table t(a integer,);", "-s", "-", "-f", "csv", "--no-header", "-")
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, 10, strings.Count(res.stdout, "\n"))
}

func TestGenerate_CSVFileWithWorkers(t *testing.T) {
	path := schemaFile(t, "table foo(total float, name string,);")
	out := filepath.Join(t.TempDir(), "foo.csv")

	res := run(t, "", "-s", path, "-f", "csv", "-r", "500", "-w", "4", out)
	require.NoError(t, res.err, res.stderr)
	assert.Empty(t, res.stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "total,name\n"))
	assert.Equal(t, 501, strings.Count(string(data), "\n"))
}

func TestGenerate_SQLite(t *testing.T) {
	path := schemaFile(t, "table sales(id integer, agent string,);")
	db := filepath.Join(t.TempDir(), "sales.db")

	res := run(t, "", "-s", path, "-f", "sqlite", "-r", "20", "--batch-size", "7", db)
	require.NoError(t, res.err, res.stderr)
	_, err := os.Stat(db)
	assert.NoError(t, err)
}

func TestGenerate_Errors(t *testing.T) {
	flat := schemaFile(t, "table t(a integer,);")
	nested := schemaFile(t, "table t(items list(integer),);")
	broken := schemaFile(t, "table t(a integer")

	tests := []struct {
		name string
		args []string
		kind errs.ErrKind
		msg  string
	}{
		{"missing schema", []string{"-f", "json", "-"}, errs.ErrKindInvalidInput, "schema is required"},
		{"missing format", []string{"-s", flat, "-"}, errs.ErrKindInvalidInput, "format is required"},
		{"unknown format", []string{"-s", flat, "-f", "xml", "-"}, errs.ErrKindInvalidInput, "unknown output format"},
		{"parse error", []string{"-s", broken, "-f", "json", "-"}, errs.ErrKindParse, "remaining"},
		{"capability", []string{"-s", nested, "-f", "csv", "-"}, errs.ErrKindCapability, "lists"},
		{"bad workers", []string{"-s", flat, "-f", "json", "-w", "0", "-"}, errs.ErrKindInvalidInput, "workers"},
		{"bad compression", []string{"-s", flat, "-f", "json", "--compress", "zip", "-"}, errs.ErrKindInvalidInput, "compression"},
		{"missing schema file", []string{"-s", "/nonexistent/x.tbl", "-f", "json", "-"}, errs.ErrKindIO, "read schema"},
		{"missing output", []string{"-s", flat, "-f", "json"}, errs.ErrKindInvalidInput, "OUTPUT argument is required"},
		{"two outputs", []string{"-s", flat, "-f", "json", "a.json", "b.json"}, errs.ErrKindInvalidInput, "got 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, "", tt.args...)
			require.Error(t, res.err)
			assert.Equal(t, tt.kind, errs.KindOf(res.err), res.err.Error())
			assert.Contains(t, res.err.Error(), tt.msg)
			assert.Contains(t, res.stderr, "error: ")
			assert.Empty(t, res.stdout)
		})
	}
}

func TestGenerate_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "datame.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("records: 2\nformat: yaml\n"), 0o644))
	path := schemaFile(t, "table t(a string,);")

	res := run(t, "", "--config", cfgPath, "-s", path, "-")
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "a: placeholder\n---\na: placeholder\n", res.stdout)

	res = run(t, "", "--config", cfgPath, "-s", path, "-r", "1", "-")
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "a: placeholder\n", res.stdout, "flags override the file")
}

func TestValidate(t *testing.T) {
	path := schemaFile(t, "TABLE sales ( total FLOAT , team record(name string,), );")
	res := run(t, "", "validate", path)
	require.NoError(t, res.err, res.stderr)

	assert.Contains(t, res.stdout, "table sales(total float, team record(name string,),);\n")
	assert.Contains(t, res.stdout, "contains record: true")
	assert.Contains(t, res.stdout, "contains list:   false")
	assert.Contains(t, res.stdout, "[json yaml mongo]")
	assert.Contains(t, res.stdout, `sample:          {"total":`)
	assert.Contains(t, res.stdout, `"team":{"name":"placeholder"}}`)
}

func TestValidate_Dump(t *testing.T) {
	res := run(t, "table t(a integer,);", "validate", "-", "--dump")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "parser.Table")
}

func TestValidate_ParseError(t *testing.T) {
	res := run(t, "table t(a blob,);", "validate", "-")
	require.Error(t, res.err)
	assert.True(t, errs.IsParse(res.err))
}
