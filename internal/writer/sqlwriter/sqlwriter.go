// Package sqlwriter loads tuples into a relational table through a
// database.DB. Columns map one to one onto the schema's scalar fields.
package sqlwriter

import (
	"context"

	"github.com/koustreak/datame/internal/database"
	"github.com/koustreak/datame/internal/errs"
	"github.com/koustreak/datame/internal/logger"
	"github.com/koustreak/datame/internal/schema"
	"github.com/koustreak/datame/internal/value"
	"github.com/koustreak/datame/internal/writer"
)

// Options configures a Writer.
type Options struct {
	BatchSize int // rows per transaction; <= 0 means 500
	Log       *logger.Logger
}

// Writer buffers rows and inserts them one transaction per batch. It
// supports scalar fields only.
type Writer struct {
	writer.Flat
	db      database.DB
	table   string
	schema  *schema.RecordSchema
	insert  string
	batch   [][]any
	size    int
	ready   bool
	written int
	log     *logger.Logger
}

// New returns a writer that loads into table. The table is created on first
// write if it does not already exist.
func New(db database.DB, table string, s *schema.RecordSchema, opts Options) *Writer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	return &Writer{
		db:     db,
		table:  table,
		schema: s,
		insert: database.Insert(db.Dialect(), table, s.Names()),
		size:   opts.BatchSize,
		batch:  make([][]any, 0, opts.BatchSize),
		log:    opts.Log.With().Str("table", table).Str("dialect", db.Dialect().String()).Logger(),
	}
}

func (w *Writer) String() string { return w.db.Dialect().String() }

// Written reports rows committed so far.
func (w *Writer) Written() int { return w.written }

func (w *Writer) WriteTuple(ctx context.Context, t *value.Tuple) error {
	if !w.ready {
		if err := w.prepare(ctx); err != nil {
			return err
		}
	}

	row := make([]any, 0, t.Len())
	for name, d := range t.All() {
		switch v := d.(type) {
		case value.Int:
			row = append(row, int64(v))
		case value.Float:
			row = append(row, float64(v))
		case value.String:
			row = append(row, string(v))
		default:
			return errs.Newf(errs.ErrKindInvariant,
				"%s writer received %s value for field %q after the capability gate passed",
				w, d.Kind(), name)
		}
	}
	w.batch = append(w.batch, row)

	if len(w.batch) >= w.size {
		return w.flushBatch(ctx)
	}
	return nil
}

func (w *Writer) Flush(ctx context.Context) error {
	if !w.ready {
		// Zero tuples still leave an empty table behind.
		if err := w.prepare(ctx); err != nil {
			return err
		}
	}
	return w.flushBatch(ctx)
}

func (w *Writer) prepare(ctx context.Context) error {
	exists, err := w.db.TableExists(ctx, w.table)
	if err != nil {
		return err
	}
	if !exists {
		ddl, err := database.CreateTable(w.db.Dialect(), w.table, w.schema)
		if err != nil {
			return err
		}
		if err := w.db.Exec(ctx, ddl); err != nil {
			return err
		}
		w.log.Info("created table")
	} else {
		w.log.Debug("appending to existing table")
	}
	w.ready = true
	return nil
}

func (w *Writer) flushBatch(ctx context.Context) error {
	if len(w.batch) == 0 {
		return nil
	}

	tx, err := w.db.Begin(ctx)
	if err != nil {
		return err
	}
	for _, row := range w.batch {
		if err := tx.Exec(ctx, w.insert, row...); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	w.written += len(w.batch)
	w.log.Debugf("committed batch of %d rows (%d total)", len(w.batch), w.written)
	w.batch = w.batch[:0]
	return nil
}
