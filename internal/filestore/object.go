package filestore

import (
	"net/url"
	"strings"
	"time"

	"github.com/koustreak/datame/internal/errs"
)

// ObjectInfo describes a single object stored in a bucket.
type ObjectInfo struct {
	// Key is the full object path within the bucket (e.g. "exports/sales.csv").
	Key string

	// Size is the byte size of the object. -1 if unknown.
	Size int64

	// ContentType is the MIME type (e.g. "text/csv").
	ContentType string

	// ETag is the object's entity tag / hash, as returned by the backend.
	ETag string

	// LastModified is when the object was last written.
	LastModified time.Time
}

// Location addresses an object as bucket plus key.
type Location struct {
	Bucket string
	Key    string
}

func (l Location) String() string { return "s3://" + l.Bucket + "/" + l.Key }

// IsURL reports whether dest uses the s3:// scheme.
func IsURL(dest string) bool {
	return strings.HasPrefix(dest, "s3://")
}

// ParseURL splits an s3://bucket/key destination.
func ParseURL(dest string) (Location, error) {
	u, err := url.Parse(dest)
	if err != nil {
		return Location{}, errs.Wrap(errs.ErrKindInvalidInput, "invalid object URL", err)
	}
	if u.Scheme != "s3" {
		return Location{}, errs.Newf(errs.ErrKindInvalidInput, "object URL %q must use the s3:// scheme", dest)
	}
	loc := Location{Bucket: u.Host, Key: strings.TrimPrefix(u.Path, "/")}
	if loc.Bucket == "" || loc.Key == "" || strings.HasSuffix(loc.Key, "/") {
		return Location{}, errs.Newf(errs.ErrKindInvalidInput, "object URL %q needs both a bucket and a key", dest)
	}
	return loc, nil
}
