package sink

import (
	"context"
	"io"
	"os"

	"github.com/koustreak/datame/internal/errs"
	"github.com/koustreak/datame/internal/filestore"
	"github.com/koustreak/datame/internal/logger"
)

// uploadSink spools output to a temp file and uploads it on Close, so the
// object store sees a single PutObject with a known size.
type uploadSink struct {
	ctx    context.Context
	loc    filestore.Location
	tmp    *os.File
	opts   Options
	log    *logger.Logger
	closed bool
}

func openUpload(ctx context.Context, dest string, opts Options) (io.WriteCloser, error) {
	loc, err := filestore.ParseURL(dest)
	if err != nil {
		return nil, err
	}
	if opts.Store == nil {
		return nil, errs.Newf(errs.ErrKindInvalidInput, "%s: no object store configured", dest)
	}

	tmp, err := os.CreateTemp("", "datame-*.spool")
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindIO, "create spool file", err)
	}
	return &uploadSink{
		ctx:  ctx,
		loc:  loc,
		tmp:  tmp,
		opts: opts,
		log:  opts.Log.With().Str("object", loc.String()).Logger(),
	}, nil
}

func (s *uploadSink) Write(p []byte) (int, error) {
	n, err := s.tmp.Write(p)
	if err != nil {
		return n, errs.Wrap(errs.ErrKindIO, "write spool file", err)
	}
	return n, nil
}

func (s *uploadSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	defer os.Remove(s.tmp.Name())
	defer s.tmp.Close()

	size, err := s.tmp.Seek(0, io.SeekCurrent)
	if err != nil {
		return errs.Wrap(errs.ErrKindIO, "size spool file", err)
	}
	if _, err := s.tmp.Seek(0, io.SeekStart); err != nil {
		return errs.Wrap(errs.ErrKindIO, "rewind spool file", err)
	}

	store := s.opts.Store
	if s.opts.CreateBucket {
		if err := store.EnsureBucket(s.ctx, s.loc.Bucket); err != nil {
			return err
		}
	}

	contentType := s.opts.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if s.opts.Compress == CompressLZ4 {
		contentType = "application/x-lz4"
	}

	if _, err := store.PutObject(s.ctx, s.loc.Bucket, s.loc.Key, s.tmp, size, contentType); err != nil {
		return err
	}

	info, err := store.StatObject(s.ctx, s.loc.Bucket, s.loc.Key)
	if err != nil {
		return err
	}
	s.log.With().Any("size", info.Size).Str("etag", info.ETag).Logger().Info("uploaded")

	if s.opts.PresignTTL > 0 {
		url, err := store.PresignGetURL(s.ctx, s.loc.Bucket, s.loc.Key, s.opts.PresignTTL)
		if err != nil {
			return err
		}
		s.log.With().Str("url", url).Logger().Info("presigned download URL")
	}
	return nil
}
