package writer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"strconv"

	"github.com/koustreak/datame/internal/errs"
	"github.com/koustreak/datame/internal/value"
)

// JSON writes newline-delimited JSON objects, one per tuple. Field order in
// each object follows the schema.
type JSON struct {
	Nested
	w      *bufio.Writer
	pretty bool
	buf    []byte
	indent bytes.Buffer
}

// JSONOptions configures a JSON writer.
type JSONOptions struct {
	Pretty bool // indent objects with two spaces
}

// NewJSON returns a JSON writer.
func NewJSON(out io.Writer, opts JSONOptions) *JSON {
	return &JSON{w: bufio.NewWriter(out), pretty: opts.Pretty}
}

func (j *JSON) String() string { return string(FormatJSON) }

func (j *JSON) WriteTuple(_ context.Context, t *value.Tuple) error {
	var err error
	j.buf, err = appendTuple(j.buf[:0], t)
	if err != nil {
		return err
	}

	out := j.buf
	if j.pretty {
		j.indent.Reset()
		if err := json.Indent(&j.indent, j.buf, "", "  "); err != nil {
			return errs.Wrap(errs.ErrKindInvariant, "json: indent object", err)
		}
		out = j.indent.Bytes()
	}

	if _, err := j.w.Write(out); err != nil {
		return ioError("json", "write object", err)
	}
	if err := j.w.WriteByte('\n'); err != nil {
		return ioError("json", "write object", err)
	}
	return nil
}

func (j *JSON) Flush(_ context.Context) error {
	if err := j.w.Flush(); err != nil {
		return ioError("json", "flush", err)
	}
	return nil
}

// MarshalTuple encodes t as a compact JSON object with fields in order.
func MarshalTuple(t *value.Tuple) ([]byte, error) {
	return appendTuple(nil, t)
}

func appendTuple(b []byte, t *value.Tuple) ([]byte, error) {
	b = append(b, '{')
	first := true
	for name, d := range t.All() {
		if !first {
			b = append(b, ',')
		}
		first = false
		b = appendString(b, name)
		b = append(b, ':')
		var err error
		if b, err = appendData(b, name, d); err != nil {
			return nil, err
		}
	}
	return append(b, '}'), nil
}

func appendData(b []byte, name string, d value.Data) ([]byte, error) {
	switch v := d.(type) {
	case value.Int:
		return strconv.AppendInt(b, int64(v), 10), nil
	case value.Float:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, errs.Newf(errs.ErrKindInvalidInput, "json: field %q holds non-finite float %v", name, f)
		}
		return strconv.AppendFloat(b, f, 'g', -1, 64), nil
	case value.String:
		return appendString(b, string(v)), nil
	case value.List:
		b = append(b, '[')
		for i, e := range v {
			if i > 0 {
				b = append(b, ',')
			}
			var err error
			if b, err = appendData(b, name, e); err != nil {
				return nil, err
			}
		}
		return append(b, ']'), nil
	case value.Record:
		if v.Tuple == nil {
			return append(b, "{}"...), nil
		}
		return appendTuple(b, v.Tuple)
	}
	return nil, errs.Newf(errs.ErrKindInvariant, "json: unknown value %T for field %q", d, name)
}

func appendString(b []byte, s string) []byte {
	// json.Marshal on a string cannot fail.
	enc, _ := json.Marshal(s)
	return append(b, enc...)
}
