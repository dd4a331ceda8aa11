// Package output resolves a format and destination into a pipeline.Target.
// Nothing is connected or created until the target is opened, so a run that
// fails the capability gate leaves no trace.
package output

import (
	"context"
	"errors"
	"io"

	"github.com/koustreak/datame/internal/config"
	"github.com/koustreak/datame/internal/database"
	"github.com/koustreak/datame/internal/database/mysql"
	"github.com/koustreak/datame/internal/database/postgres"
	"github.com/koustreak/datame/internal/database/sqlite"
	"github.com/koustreak/datame/internal/errs"
	"github.com/koustreak/datame/internal/filestore"
	"github.com/koustreak/datame/internal/filestore/minio"
	"github.com/koustreak/datame/internal/logger"
	"github.com/koustreak/datame/internal/pipeline"
	"github.com/koustreak/datame/internal/schema"
	"github.com/koustreak/datame/internal/sink"
	"github.com/koustreak/datame/internal/writer"
	"github.com/koustreak/datame/internal/writer/mongowriter"
	"github.com/koustreak/datame/internal/writer/sqlwriter"
)

// Request describes where a run's tuples go.
type Request struct {
	Format writer.Format
	// Dest is a path, "-" or s3://bucket/key for streamed formats, and a DSN
	// or URI for database formats. Empty database destinations fall back to
	// the configured DSN.
	Dest   string
	Table  string
	Schema *schema.RecordSchema
	Config *config.Config
	Log    *logger.Logger
	Stdout io.Writer
}

// Resolve validates req and returns an unopened target.
func Resolve(req Request) (pipeline.Target, error) {
	if req.Config == nil {
		req.Config = config.Default()
	}
	if req.Log == nil {
		req.Log = logger.Nop()
	}

	var open func(ctx context.Context) (writer.Writer, error)
	switch req.Format {
	case writer.FormatCSV, writer.FormatJSON, writer.FormatYAML:
		if _, err := sink.ParseCompression(req.Config.Compress); err != nil {
			return pipeline.Target{}, err
		}
		if filestore.IsURL(req.Dest) {
			if _, err := filestore.ParseURL(req.Dest); err != nil {
				return pipeline.Target{}, err
			}
		}
		open = req.openStream
	case writer.FormatPostgres, writer.FormatMySQL, writer.FormatSQLite:
		if err := req.databaseConfig().Validate(); err != nil {
			return pipeline.Target{}, err
		}
		open = req.openSQL
	case writer.FormatMongo:
		if _, err := mongowriter.DatabaseName(req.dsn()); err != nil {
			return pipeline.Target{}, err
		}
		open = req.openMongo
	default:
		return pipeline.Target{}, errs.Newf(errs.ErrKindInvalidInput, "unknown output format %q", req.Format)
	}
	return pipeline.Target{Caps: req.Format, Open: open}, nil
}

func (r Request) dsn() string {
	if r.Dest != "" && r.Dest != sink.Stdout {
		return r.Dest
	}
	return r.Config.Database.DSN
}

func (r Request) databaseConfig() *database.Config {
	cfg := database.DefaultConfig(database.Driver(r.Format), r.dsn())
	db := r.Config.Database
	if db.MaxConns > 0 && r.Format != writer.FormatSQLite {
		cfg.MaxConns = db.MaxConns
	}
	if db.ConnectTimeout > 0 {
		cfg.ConnectTimeout = db.ConnectTimeout
	}
	if db.QueryTimeout > 0 {
		cfg.QueryTimeout = db.QueryTimeout
	}
	if db.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = db.MaxConnLifetime
	}
	if r.Config.BatchSize > 0 {
		cfg.BatchSize = r.Config.BatchSize
	}
	return cfg
}

func (r Request) openStream(ctx context.Context) (writer.Writer, error) {
	compress, err := sink.ParseCompression(r.Config.Compress)
	if err != nil {
		return nil, err
	}
	opts := sink.Options{
		Compress:    compress,
		ContentType: r.Format.ContentType(),
		Stdout:      r.Stdout,
		Log:         r.Log,
	}

	var closers []io.Closer
	if filestore.IsURL(r.Dest) {
		store, err := r.openStore(ctx)
		if err != nil {
			return nil, err
		}
		opts.Store = store
		opts.CreateBucket = r.Config.Store.CreateBucket
		opts.PresignTTL = r.Config.Store.Presign
		closers = append(closers, store)
	}

	out, err := sink.Open(ctx, r.Dest, opts)
	if err != nil {
		closeAll(closers)
		return nil, err
	}
	// The sink completes (and uploads) before the store is released.
	closers = append([]io.Closer{out}, closers...)

	var w writer.Writer
	switch r.Format {
	case writer.FormatCSV:
		w = writer.NewCSV(out, r.Schema, writer.CSVOptions{Header: r.Config.Header})
	case writer.FormatJSON:
		w = writer.NewJSON(out, writer.JSONOptions{Pretty: r.Config.Pretty})
	default:
		w = writer.NewYAML(out)
	}
	return &closing{Writer: w, closers: closers}, nil
}

func (r Request) openStore(ctx context.Context) (filestore.Store, error) {
	sc := r.Config.Store
	cfg := filestore.DefaultConfig(sc.Endpoint, sc.AccessKey, sc.SecretKey)
	cfg.UseSSL = sc.UseSSL
	cfg.Region = sc.Region
	cfg.CreateBucket = sc.CreateBucket
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return minio.New(ctx, cfg)
}

func (r Request) openSQL(ctx context.Context) (writer.Writer, error) {
	cfg := r.databaseConfig()

	var (
		db  database.DB
		err error
	)
	switch r.Format {
	case writer.FormatPostgres:
		db, err = postgres.New(ctx, cfg)
	case writer.FormatMySQL:
		db, err = mysql.New(ctx, cfg)
	default:
		db, err = sqlite.New(ctx, cfg)
	}
	if err != nil {
		return nil, err
	}

	w := sqlwriter.New(db, r.Table, r.Schema, sqlwriter.Options{BatchSize: cfg.BatchSize, Log: r.Log})
	return &closing{Writer: w, closers: []io.Closer{closerFunc(func() error { db.Close(); return nil })}}, nil
}

func (r Request) openMongo(ctx context.Context) (writer.Writer, error) {
	w, err := mongowriter.Connect(ctx, r.dsn(), r.Table, mongowriter.Options{
		BatchSize:      r.Config.BatchSize,
		ConnectTimeout: r.Config.Database.ConnectTimeout,
		Log:            r.Log,
	})
	if err != nil {
		return nil, err
	}
	return &closing{Writer: w, closers: []io.Closer{w}}, nil
}

// closing attaches resource cleanup to a writer.
type closing struct {
	writer.Writer
	closers []io.Closer
}

// Unwrap exposes the wrapped writer so callers can reach its optional
// methods, such as a committed count.
func (c *closing) Unwrap() writer.Writer { return c.Writer }

func (c *closing) Close() error {
	return closeAll(c.closers)
}

func closeAll(cs []io.Closer) error {
	var errList []error
	for _, c := range cs {
		if err := c.Close(); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
