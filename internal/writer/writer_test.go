package writer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/koustreak/datame/internal/errs"
	"github.com/koustreak/datame/internal/parser"
	"github.com/koustreak/datame/internal/schema"
	"github.com/koustreak/datame/internal/value"
)

type caps struct{ list, record bool }

func (c caps) SupportsList() bool   { return c.list }
func (c caps) SupportsRecord() bool { return c.record }

func mustParse(t *testing.T, src string) *schema.RecordSchema {
	t.Helper()
	s, err := parser.Parse(src)
	require.NoError(t, err)
	return s
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		caps    caps
		wantErr string
	}{
		{name: "flat schema flat writer", src: "table t(a integer, b string,);", caps: caps{}},
		{name: "empty schema", src: "table t();", caps: caps{}},
		{name: "list rejected", src: "table t(items list(integer),);", caps: caps{record: true}, wantErr: "lists"},
		{name: "record rejected", src: "table t(r record(a integer,),);", caps: caps{list: true}, wantErr: "nested records"},
		{name: "both rejected", src: "table t(r record(a integer,), l list(float),);", caps: caps{}, wantErr: "nested records and lists"},
		{name: "list of record needs both", src: "table t(l list(record(a integer,)),);", caps: caps{list: true}, wantErr: "nested records"},
		{name: "full writer", src: "table t(r record(l list(integer),),);", caps: caps{list: true, record: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(mustParse(t, tt.src), tt.caps)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errs.IsCapability(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCheck_NamesFormat(t *testing.T) {
	err := Check(mustParse(t, "table t(l list(integer),);"), FormatCSV)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv output")
}

func TestFormatCapabilitiesMatchWriters(t *testing.T) {
	var buf bytes.Buffer
	s := schema.New()
	writers := map[Format]Writer{
		FormatCSV:  NewCSV(&buf, s, CSVOptions{}),
		FormatJSON: NewJSON(&buf, JSONOptions{}),
		FormatYAML: NewYAML(&buf),
	}
	for f, w := range writers {
		assert.Equal(t, f.SupportsList(), w.SupportsList(), f)
		assert.Equal(t, f.SupportsRecord(), w.SupportsRecord(), f)
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
	assert.Contains(t, err.Error(), "csv, json, yaml")
}

func flatTuple() *value.Tuple {
	t := value.NewTuple(3)
	t.Add("total", value.Float(12.5))
	t.Add("id", value.Int(7))
	t.Add("name", value.String("a,b"))
	return t
}

func nestedTuple() *value.Tuple {
	inner := value.NewTuple(2)
	inner.Add("pm", value.String("ann"))
	inner.Add("budget", value.Float(3))

	t := value.NewTuple(3)
	t.Add("id", value.Int(1))
	t.Add("tags", value.List{value.String("x"), value.String("y")})
	t.Add("team", value.Record{Tuple: inner})
	return t
}

func TestCSV(t *testing.T) {
	s := mustParse(t, "table t(total float, id integer, name string,);")
	ctx := context.Background()

	t.Run("with header", func(t *testing.T) {
		var buf bytes.Buffer
		w := NewCSV(&buf, s, CSVOptions{Header: true})
		require.NoError(t, w.WriteTuple(ctx, flatTuple()))
		require.NoError(t, w.WriteTuple(ctx, flatTuple()))
		require.NoError(t, w.Flush(ctx))
		assert.Equal(t, "total,id,name\n12.5,7,\"a,b\"\n12.5,7,\"a,b\"\n", buf.String())
	})

	t.Run("without header", func(t *testing.T) {
		var buf bytes.Buffer
		w := NewCSV(&buf, s, CSVOptions{})
		require.NoError(t, w.WriteTuple(ctx, flatTuple()))
		require.NoError(t, w.Flush(ctx))
		assert.Equal(t, "12.5,7,\"a,b\"\n", buf.String())
	})

	t.Run("nested value is an invariant violation", func(t *testing.T) {
		var buf bytes.Buffer
		w := NewCSV(&buf, s, CSVOptions{})
		err := w.WriteTuple(ctx, nestedTuple())
		require.Error(t, err)
		assert.True(t, errs.IsInvariant(err))
		assert.Contains(t, err.Error(), `"tags"`)
	})
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestCSV_IOError(t *testing.T) {
	w := NewCSV(failingWriter{}, schema.New(), CSVOptions{})
	require.NoError(t, w.WriteTuple(context.Background(), flatTuple()))
	err := w.Flush(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsIO(err))
	assert.Contains(t, err.Error(), "disk full")
}

func TestJSON(t *testing.T) {
	ctx := context.Background()

	t.Run("ndjson preserves field order", func(t *testing.T) {
		var buf bytes.Buffer
		w := NewJSON(&buf, JSONOptions{})
		require.NoError(t, w.WriteTuple(ctx, nestedTuple()))
		require.NoError(t, w.WriteTuple(ctx, flatTuple()))
		require.NoError(t, w.Flush(ctx))

		lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, `{"id":1,"tags":["x","y"],"team":{"pm":"ann","budget":3}}`, lines[0])
		assert.Equal(t, `{"total":12.5,"id":7,"name":"a,b"}`, lines[1])
		for _, l := range lines {
			assert.True(t, json.Valid([]byte(l)))
		}
	})

	t.Run("pretty", func(t *testing.T) {
		var buf bytes.Buffer
		w := NewJSON(&buf, JSONOptions{Pretty: true})
		require.NoError(t, w.WriteTuple(ctx, flatTuple()))
		require.NoError(t, w.Flush(ctx))
		assert.Equal(t, "{\n  \"total\": 12.5,\n  \"id\": 7,\n  \"name\": \"a,b\"\n}\n", buf.String())
	})

	t.Run("escapes strings", func(t *testing.T) {
		tup := value.NewTuple(1)
		tup.Add("q", value.String("say \"hi\"\n"))
		b, err := MarshalTuple(tup)
		require.NoError(t, err)
		assert.Equal(t, `{"q":"say \"hi\"\n"}`, string(b))
	})

	t.Run("empty record", func(t *testing.T) {
		tup := value.NewTuple(1)
		tup.Add("r", value.Record{Tuple: value.NewTuple(0)})
		b, err := MarshalTuple(tup)
		require.NoError(t, err)
		assert.Equal(t, `{"r":{}}`, string(b))
	})
}

func TestYAML(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	w := NewYAML(&buf)
	require.NoError(t, w.WriteTuple(ctx, nestedTuple()))
	require.NoError(t, w.WriteTuple(ctx, flatTuple()))
	require.NoError(t, w.Flush(ctx))

	want := `id: 1
tags:
  - x
  - y
team:
  pm: ann
  budget: 3.0
---
total: 12.5
id: 7
name: a,b
`
	assert.Equal(t, want, buf.String())

	dec := yaml.NewDecoder(strings.NewReader(buf.String()))
	var docs []map[string]any
	for {
		var doc map[string]any
		if err := dec.Decode(&doc); err != nil {
			break
		}
		docs = append(docs, doc)
	}
	require.Len(t, docs, 2)
	assert.Equal(t, 3.0, docs[0]["team"].(map[string]any)["budget"])
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "3.0", formatFloat(3))
	assert.Equal(t, "12.5", formatFloat(12.5))
	assert.Equal(t, "1e+21", formatFloat(1e21))
}
