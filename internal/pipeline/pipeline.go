// Package pipeline drives a generation run: capability gate, open the output,
// synthesize and write N tuples, flush.
//
// With more than one worker, tuples are synthesized in parallel chunks. Each
// worker owns a deep clone of the schema, so generators are never shared, and
// every chunk is written in index order.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/koustreak/datame/internal/errs"
	"github.com/koustreak/datame/internal/logger"
	"github.com/koustreak/datame/internal/schema"
	"github.com/koustreak/datame/internal/synth"
	"github.com/koustreak/datame/internal/value"
	"github.com/koustreak/datame/internal/writer"
)

// chunkPerWorker is the number of tuples each worker synthesizes per chunk.
const chunkPerWorker = 64

// Target is an output that has not been opened yet. Caps must report the
// same capabilities as the writer Open returns. If that writer also
// implements io.Closer, Run closes it.
type Target struct {
	Caps writer.Capabilities
	Open func(ctx context.Context) (writer.Writer, error)
}

// WriterTarget wraps an already constructed writer.
func WriterTarget(w writer.Writer) Target {
	return Target{
		Caps: w,
		Open: func(context.Context) (writer.Writer, error) { return w, nil },
	}
}

// Options configures Run.
type Options struct {
	Records int
	Workers int // <= 1 means sequential
	Log     *logger.Logger
}

// Stats summarizes a run.
type Stats struct {
	Written  int
	Duration time.Duration
}

// Run gates s against the target, then writes opts.Records tuples. The gate
// is evaluated exactly once; when it fails nothing is opened or written.
// Errors from the writer carry how many tuples had been written. For
// batching writers that is the committed count, which stats.Written also
// reports after a failure.
func Run(ctx context.Context, s *schema.RecordSchema, target Target, opts Options) (stats Stats, err error) {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	start := time.Now()
	defer func() { stats.Duration = time.Since(start) }()

	if err := writer.Check(s, target.Caps); err != nil {
		return stats, err
	}

	w, err := target.Open(ctx)
	if err != nil {
		return stats, err
	}
	if c, ok := w.(io.Closer); ok {
		defer func() {
			if cerr := c.Close(); cerr != nil && err == nil {
				stats.Written = persisted(w, stats.Written)
				err = writeError(cerr, "close output", stats.Written, opts.Records)
			}
		}()
	}

	if opts.Workers > 1 && opts.Records > opts.Workers {
		err = runParallel(ctx, s, w, opts, &stats)
	} else {
		err = runSequential(ctx, s, w, opts, &stats)
	}
	if err != nil {
		stats.Written = persisted(w, stats.Written)
		return stats, err
	}

	if err := w.Flush(ctx); err != nil {
		stats.Written = persisted(w, stats.Written)
		return stats, writeError(err, "flush", stats.Written, opts.Records)
	}
	log.Debugf("wrote %d tuples", stats.Written)
	return stats, nil
}

func runSequential(ctx context.Context, s *schema.RecordSchema, w writer.Writer, opts Options, stats *Stats) error {
	for i := 0; i < opts.Records; i++ {
		if err := ctx.Err(); err != nil {
			return errs.Wrap(errs.ErrKindTimeout, "run canceled", err)
		}
		if err := w.WriteTuple(ctx, synth.Tuple(s)); err != nil {
			return writeError(err, "write tuple", persisted(w, stats.Written), opts.Records)
		}
		stats.Written++
	}
	return nil
}

func runParallel(ctx context.Context, s *schema.RecordSchema, w writer.Writer, opts Options, stats *Stats) error {
	workers := opts.Workers
	schemas := make([]*schema.RecordSchema, workers)
	for i := range schemas {
		schemas[i] = s.Clone()
	}

	chunk := make([]*value.Tuple, workers*chunkPerWorker)
	for base := 0; base < opts.Records; base += len(chunk) {
		n := min(len(chunk), opts.Records-base)

		g, gctx := errgroup.WithContext(ctx)
		for wk := 0; wk < workers; wk++ {
			g.Go(func() error {
				for i := wk; i < n; i += workers {
					if err := gctx.Err(); err != nil {
						return err
					}
					chunk[i] = synth.Tuple(schemas[wk])
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return errs.Wrap(errs.ErrKindTimeout, "run canceled", err)
		}

		for i := 0; i < n; i++ {
			if err := w.WriteTuple(ctx, chunk[i]); err != nil {
				return writeError(err, "write tuple", persisted(w, stats.Written), opts.Records)
			}
			stats.Written++
			chunk[i] = nil
		}
	}
	return nil
}

// committer is implemented by writers that buffer tuples and persist them in
// batches. Written counts tuples persisted so far.
type committer interface {
	Written() int
}

// persisted reports how many of the accepted tuples w has actually stored.
// Writers that wrap another writer expose it through Unwrap.
func persisted(w writer.Writer, accepted int) int {
	for w != nil {
		if c, ok := w.(committer); ok {
			return c.Written()
		}
		u, ok := w.(interface{ Unwrap() writer.Writer })
		if !ok {
			break
		}
		w = u.Unwrap()
	}
	return accepted
}

// writeError keeps the writer's classification and adds progress. Errors the
// writer did not classify are IO failures.
func writeError(err error, op string, written, total int) error {
	kind := errs.KindOf(err)
	if kind == errs.ErrKindUnknown {
		kind = errs.ErrKindIO
	}
	return errs.Wrap(kind, fmt.Sprintf("%s failed after %d of %d tuples", op, written, total), err)
}
