// Package sink opens the byte destination a streamed writer serializes into:
// stdout, a local file, or an object store key. Output can be wrapped in an
// lz4 frame.
package sink

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pierrec/lz4/v4"

	"github.com/koustreak/datame/internal/errs"
	"github.com/koustreak/datame/internal/filestore"
	"github.com/koustreak/datame/internal/logger"
)

// Stdout is the destination that writes to standard output.
const Stdout = "-"

// Compression names a sink compression codec.
type Compression string

const (
	CompressNone Compression = ""
	CompressLZ4  Compression = "lz4"
)

// ParseCompression validates a --compress value.
func ParseCompression(s string) (Compression, error) {
	switch Compression(s) {
	case CompressNone, "none":
		return CompressNone, nil
	case CompressLZ4:
		return CompressLZ4, nil
	}
	return "", errs.Newf(errs.ErrKindInvalidInput, "unknown compression %q (want lz4)", s)
}

// Options configures Open.
type Options struct {
	Compress    Compression
	ContentType string

	// Store receives s3:// destinations. Required only for those.
	Store filestore.Store
	// CreateBucket creates a missing bucket before uploading.
	CreateBucket bool
	// PresignTTL, when positive, logs a download URL after upload.
	PresignTTL time.Duration

	Stdout io.Writer // defaults to os.Stdout
	Log    *logger.Logger
}

// Open returns a WriteCloser for dest. Closing it completes the output: it
// flushes compression frames, closes files and performs uploads.
func Open(ctx context.Context, dest string, opts Options) (io.WriteCloser, error) {
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}

	var (
		base io.WriteCloser
		err  error
	)
	switch {
	case dest == "" || dest == Stdout:
		out := opts.Stdout
		if out == nil {
			out = os.Stdout
		}
		base = nopCloser{out}
	case filestore.IsURL(dest):
		base, err = openUpload(ctx, dest, opts)
	default:
		base, err = openFile(dest)
	}
	if err != nil {
		return nil, err
	}

	if opts.Compress == CompressLZ4 {
		return &lz4Sink{zw: lz4.NewWriter(base), base: base}, nil
	}
	return base, nil
}

func openFile(path string) (io.WriteCloser, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errs.Wrap(errs.ErrKindIO, "create output directory", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindIO, "create output file", err)
	}
	return &fileSink{f: f}, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

type fileSink struct{ f *os.File }

func (s *fileSink) Write(p []byte) (int, error) {
	n, err := s.f.Write(p)
	if err != nil {
		return n, errs.Wrap(errs.ErrKindIO, "write output file", err)
	}
	return n, nil
}

func (s *fileSink) Close() error {
	if err := s.f.Close(); err != nil {
		return errs.Wrap(errs.ErrKindIO, "close output file", err)
	}
	return nil
}

type lz4Sink struct {
	zw   *lz4.Writer
	base io.WriteCloser
}

func (s *lz4Sink) Write(p []byte) (int, error) {
	n, err := s.zw.Write(p)
	if err != nil {
		return n, errs.Wrap(errs.ErrKindIO, "lz4: compress", err)
	}
	return n, nil
}

func (s *lz4Sink) Close() error {
	zerr := s.zw.Close()
	berr := s.base.Close()
	if zerr != nil {
		return errs.Wrap(errs.ErrKindIO, "lz4: close frame", zerr)
	}
	return berr
}
