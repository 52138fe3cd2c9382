package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatewayapi/internal/config"
)

func TestNewMinIO_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.MinIOConfig
		wantErr string
	}{
		{
			name:    "missing endpoint",
			cfg:     config.MinIOConfig{AccessKey: "ak", SecretKey: "sk", Bucket: "b"},
			wantErr: "minio endpoint is required",
		},
		{
			name:    "missing credentials",
			cfg:     config.MinIOConfig{Endpoint: "localhost:9000", Bucket: "b"},
			wantErr: "minio credentials are required",
		},
		{
			name:    "missing bucket",
			cfg:     config.MinIOConfig{Endpoint: "localhost:9000", AccessKey: "ak", SecretKey: "sk"},
			wantErr: "minio bucket is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewMinIO(context.Background(), tt.cfg)
			assert.Nil(t, s)
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

// s3Request is what the fake bucket saw.
type s3Request struct {
	method string
	path   string
	header http.Header
	body   string
}

func newTestMinIO(t *testing.T, h http.HandlerFunc) (*MinIO, func() []s3Request) {
	t.Helper()

	var (
		mu   sync.Mutex
		seen []s3Request
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = append(seen, s3Request{method: r.Method, path: r.URL.Path, header: r.Header.Clone(), body: string(b)})
		mu.Unlock()
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	m, err := newMinIO(config.MinIOConfig{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "ak",
		SecretKey: "sk",
		Bucket:    "files",
		Region:    "us-east-1",
	})
	require.NoError(t, err)

	return m, func() []s3Request {
		mu.Lock()
		defer mu.Unlock()
		return append([]s3Request(nil), seen...)
	}
}

func TestMinIO_Put(t *testing.T) {
	m, requests := newTestMinIO(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"etag-1"`)
		w.WriteHeader(http.StatusOK)
	})

	obj, err := m.Put(context.Background(), "files/user-1/id-1.pdf", strings.NewReader("hello"), Upload{
		Size:         5,
		ContentType:  "application/pdf",
		OwnerID:      "user-1",
		OriginalName: "Résumé 2024.pdf",
	})
	require.NoError(t, err)

	assert.Equal(t, "files/user-1/id-1.pdf", obj.Key)
	assert.Equal(t, int64(5), obj.Size)
	assert.Equal(t, "etag-1", obj.ETag)
	assert.Equal(t, "Résumé 2024.pdf", obj.OriginalName)
	assert.False(t, obj.LastModified.IsZero())

	reqs := requests()
	require.Len(t, reqs, 1)
	got := reqs[0]
	assert.Equal(t, http.MethodPut, got.method)
	assert.Equal(t, "/files/files/user-1/id-1.pdf", got.path)
	assert.Equal(t, "hello", got.body)
	assert.Equal(t, "application/pdf", got.header.Get("Content-Type"))
	assert.Equal(t, "user-1", got.header.Get("X-Amz-Meta-Owner-Id"))
	assert.Equal(t, url.PathEscape("Résumé 2024.pdf"), got.header.Get("X-Amz-Meta-Original-Name"))
}

func TestMinIO_Get_NotFound(t *testing.T) {
	m, _ := newTestMinIO(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message><Key>files/user-1/gone.txt</Key><BucketName>files</BucketName></Error>`)
	})

	rc, _, err := m.Get(context.Background(), "files/user-1/gone.txt")
	assert.Nil(t, rc)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestMinIO_Delete(t *testing.T) {
	m, requests := newTestMinIO(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, m.Delete(context.Background(), "files/user-1/id-1.pdf"))

	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodDelete, reqs[0].method)
	assert.Equal(t, "/files/files/user-1/id-1.pdf", reqs[0].path)
}

func TestMinIO_PresignGet(t *testing.T) {
	m, requests := newTestMinIO(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	raw, err := m.PresignGet(context.Background(), "files/user-1/id-1.pdf", Presign{
		Expiry:       15 * time.Minute,
		DownloadName: "Quarterly Report.pdf",
		ContentType:  "application/pdf",
	})
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "/files/files/user-1/id-1.pdf", u.Path)
	assert.Equal(t, `attachment; filename="Quarterly Report.pdf"`, q.Get("response-content-disposition"))
	assert.Equal(t, "application/pdf", q.Get("response-content-type"))
	assert.Equal(t, "900", q.Get("X-Amz-Expires"))
	assert.NotEmpty(t, q.Get("X-Amz-Signature"))
	assert.Empty(t, requests(), "presigning with a fixed region must not call the server")

	_, err = m.PresignGet(context.Background(), "k", Presign{Expiry: 8 * 24 * time.Hour})
	assert.ErrorContains(t, err, "expiry")
	_, err = m.PresignGet(context.Background(), "k", Presign{})
	assert.ErrorContains(t, err, "expiry")
}

func TestContentDisposition(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "token", in: "a.txt", want: "attachment; filename=a.txt"},
		{name: "spaces quoted", in: "my report.pdf", want: `attachment; filename="my report.pdf"`},
		{name: "quote escaped", in: `say "hi".txt`, want: `attachment; filename="say \"hi\".txt"`},
		{name: "non-ascii", in: "résumé.pdf", want: "attachment; filename*=utf-8''r%C3%A9sum%C3%A9.pdf"},
		{name: "empty", in: "  ", want: "attachment"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContentDisposition(tt.in))
		})
	}
}
