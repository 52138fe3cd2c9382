// Package storage keeps uploaded file content in an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"io"
	"mime"
	"strings"
	"time"
)

// ErrObjectNotFound is returned when the key has no object behind it.
var ErrObjectNotFound = errors.New("object not found")

// MaxPresignExpiry is the longest lifetime S3 accepts for a presigned URL.
const MaxPresignExpiry = 7 * 24 * time.Hour

// Upload describes one file being stored. Size is -1 when unknown.
// OwnerID and OriginalName are kept as object metadata so an object can be
// traced back to its file row without the database.
type Upload struct {
	Size         int64
	ContentType  string
	OwnerID      string
	OriginalName string
}

// Object is what the bucket knows about a stored file.
type Object struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	OwnerID      string
	OriginalName string
}

// Presign controls a download URL. DownloadName and ContentType override the
// response headers the bucket sends, so the browser saves the file under its
// original name instead of the generated key.
type Presign struct {
	Expiry       time.Duration
	DownloadName string
	ContentType  string
}

// Storage is the object store behind the file endpoints.
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, up Upload) (Object, error)
	// Get streams an object. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, Object, error)
	// Delete removes an object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, p Presign) (string, error)
}

// ContentDisposition renders an attachment header carrying name. Non-ASCII
// names are written as an RFC 2231 filename* parameter.
func ContentDisposition(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "attachment"
	}
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": name}); v != "" {
		return v
	}
	return "attachment"
}
