package writer

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/koustreak/datame/internal/schema"
	"github.com/koustreak/datame/internal/value"
)

// CSV writes one row per tuple. It supports scalar fields only.
type CSV struct {
	Flat
	w           *csv.Writer
	header      []string
	wroteHeader bool
	row         []string
}

// CSVOptions configures a CSV writer.
type CSVOptions struct {
	Header bool // emit the schema's field names as the first row
}

// NewCSV returns a CSV writer for tuples of s.
func NewCSV(out io.Writer, s *schema.RecordSchema, opts CSVOptions) *CSV {
	c := &CSV{w: csv.NewWriter(out)}
	if opts.Header && s.Len() > 0 {
		c.header = s.Names()
	}
	return c
}

func (c *CSV) String() string { return string(FormatCSV) }

func (c *CSV) WriteTuple(_ context.Context, t *value.Tuple) error {
	if c.header != nil && !c.wroteHeader {
		if err := c.w.Write(c.header); err != nil {
			return ioError("csv", "write header", err)
		}
		c.wroteHeader = true
	}

	c.row = c.row[:0]
	for name, d := range t.All() {
		switch v := d.(type) {
		case value.Int:
			c.row = append(c.row, strconv.FormatInt(int64(v), 10))
		case value.Float:
			c.row = append(c.row, strconv.FormatFloat(float64(v), 'f', -1, 64))
		case value.String:
			c.row = append(c.row, string(v))
		default:
			return unsupported("csv", name, d)
		}
	}
	if err := c.w.Write(c.row); err != nil {
		return ioError("csv", "write row", err)
	}
	return nil
}

func (c *CSV) Flush(_ context.Context) error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return ioError("csv", "flush", err)
	}
	return nil
}
