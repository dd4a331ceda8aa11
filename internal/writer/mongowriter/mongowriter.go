// Package mongowriter loads tuples into a MongoDB collection, one document
// per tuple. Records become embedded documents and lists become arrays.
package mongowriter

import (
	"context"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/koustreak/datame/internal/errs"
	"github.com/koustreak/datame/internal/logger"
	"github.com/koustreak/datame/internal/value"
	"github.com/koustreak/datame/internal/writer"
)

// DefaultDatabase is used when the URI names no database.
const DefaultDatabase = "datame"

// Options configures a Writer.
type Options struct {
	BatchSize      int // documents per InsertMany; <= 0 means 500
	ConnectTimeout time.Duration
	Log            *logger.Logger
}

// Writer batches documents and inserts them with InsertMany.
type Writer struct {
	writer.Nested
	client  *mongo.Client
	coll    *mongo.Collection
	batch   []any
	size    int
	written int
	log     *logger.Logger
}

// Connect dials uri and returns a writer for collection. The database is the
// URI path, or DefaultDatabase when the path is empty.
func Connect(ctx context.Context, uri, collection string, opts Options) (*Writer, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}

	dbName, err := DatabaseName(uri)
	if err != nil {
		return nil, err
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri).SetConnectTimeout(opts.ConnectTimeout))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "mongo: connect", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "mongo: ping", err)
	}

	return &Writer{
		client: client,
		coll:   client.Database(dbName).Collection(collection),
		size:   opts.BatchSize,
		batch:  make([]any, 0, opts.BatchSize),
		log:    opts.Log.With().Str("database", dbName).Str("collection", collection).Logger(),
	}, nil
}

// DatabaseName extracts the database from a mongodb:// or mongodb+srv:// URI.
func DatabaseName(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", errs.Wrap(errs.ErrKindInvalidInput, "mongo: invalid URI", err)
	}
	if u.Scheme != "mongodb" && u.Scheme != "mongodb+srv" {
		return "", errs.Newf(errs.ErrKindInvalidInput, "mongo: unsupported URI scheme %q", u.Scheme)
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name, nil
	}
	return DefaultDatabase, nil
}

func (w *Writer) String() string { return string(writer.FormatMongo) }

// Written reports documents inserted so far.
func (w *Writer) Written() int { return w.written }

func (w *Writer) WriteTuple(ctx context.Context, t *value.Tuple) error {
	w.batch = append(w.batch, Document(t))
	if len(w.batch) >= w.size {
		return w.flushBatch(ctx)
	}
	return nil
}

func (w *Writer) Flush(ctx context.Context) error {
	return w.flushBatch(ctx)
}

// Close disconnects the client.
func (w *Writer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := w.client.Disconnect(ctx); err != nil {
		return errs.Wrap(errs.ErrKindConnectionFailed, "mongo: disconnect", err)
	}
	return nil
}

func (w *Writer) flushBatch(ctx context.Context) error {
	if len(w.batch) == 0 {
		return nil
	}
	if _, err := w.coll.InsertMany(ctx, w.batch); err != nil {
		return mapError(err, "mongo: insert batch")
	}
	w.written += len(w.batch)
	w.log.Debugf("inserted batch of %d documents (%d total)", len(w.batch), w.written)
	w.batch = w.batch[:0]
	return nil
}

// Document converts t into an ordered BSON document.
func Document(t *value.Tuple) bson.D {
	if t == nil {
		return bson.D{}
	}
	doc := make(bson.D, 0, t.Len())
	for name, d := range t.All() {
		doc = append(doc, bson.E{Key: name, Value: convert(d)})
	}
	return doc
}

func convert(d value.Data) any {
	switch v := d.(type) {
	case value.Int:
		return int64(v)
	case value.Float:
		return float64(v)
	case value.String:
		return string(v)
	case value.List:
		a := make(bson.A, len(v))
		for i, e := range v {
			a[i] = convert(e)
		}
		return a
	case value.Record:
		return Document(v.Tuple)
	}
	return nil
}

func mapError(err error, msg string) error {
	switch {
	case mongo.IsTimeout(err):
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	case mongo.IsNetworkError(err):
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	case mongo.IsDuplicateKeyError(err):
		return errs.Wrap(errs.ErrKindInvalidInput, msg, err)
	}
	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}
