package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"gatewayapi/internal/config"
)

// Object metadata keys. MinIO stores them as X-Amz-Meta-* headers, so the
// original name is path-escaped to stay within header-safe ASCII.
const (
	metaOwnerID      = "Owner-Id"
	metaOriginalName = "Original-Name"
)

const bucketCheckTimeout = 10 * time.Second

// MinIO is the Storage backed by a MinIO (or any S3-compatible) bucket.
// It is safe for concurrent use.
type MinIO struct {
	client *minio.Client
	bucket string
}

var _ Storage = (*MinIO)(nil)

// NewMinIO connects to cfg.Endpoint and makes sure the bucket exists.
func NewMinIO(ctx context.Context, cfg config.MinIOConfig) (*MinIO, error) {
	m, err := newMinIO(cfg)
	if err != nil {
		return nil, err
	}
	if err := m.ensureBucket(ctx, cfg.Region); err != nil {
		return nil, err
	}
	return m, nil
}

func newMinIO(cfg config.MinIOConfig) (*MinIO, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	// A fixed region keeps presigning local; otherwise minio-go asks the
	// server for the bucket location first.
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinIO{client: cli, bucket: cfg.Bucket}, nil
}

func (m *MinIO) ensureBucket(ctx context.Context, region string) error {
	ctx, cancel := context.WithTimeout(ctx, bucketCheckTimeout)
	defer cancel()

	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", m.bucket, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", m.bucket, err)
	}
	return nil
}

func (m *MinIO) Put(ctx context.Context, key string, r io.Reader, up Upload) (Object, error) {
	meta := map[string]string{}
	if up.OwnerID != "" {
		meta[metaOwnerID] = up.OwnerID
	}
	if up.OriginalName != "" {
		meta[metaOriginalName] = url.PathEscape(up.OriginalName)
	}

	info, err := m.client.PutObject(ctx, m.bucket, key, r, up.Size, minio.PutObjectOptions{
		ContentType:  up.ContentType,
		UserMetadata: meta,
	})
	if err != nil {
		return Object{}, fmt.Errorf("put %s: %w", key, err)
	}

	lastModified := info.LastModified
	if lastModified.IsZero() {
		lastModified = time.Now().UTC()
	}
	return Object{
		Key:          key,
		Size:         info.Size,
		ETag:         info.ETag,
		ContentType:  up.ContentType,
		LastModified: lastModified,
		OwnerID:      up.OwnerID,
		OriginalName: up.OriginalName,
	}, nil
}

// Get stats the object before returning it so a missing key is reported
// here as ErrObjectNotFound instead of on the first Read.
func (m *MinIO) Get(ctx context.Context, key string) (io.ReadCloser, Object, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, Object{}, mapErr(key, err)
	}
	st, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, Object{}, mapErr(key, err)
	}
	return obj, objectFromStat(st), nil
}

func (m *MinIO) Delete(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (m *MinIO) PresignGet(ctx context.Context, key string, p Presign) (string, error) {
	if p.Expiry <= 0 || p.Expiry > MaxPresignExpiry {
		return "", fmt.Errorf("presign %s: expiry %s outside (0, %s]", key, p.Expiry, MaxPresignExpiry)
	}

	params := url.Values{}
	if p.DownloadName != "" {
		params.Set("response-content-disposition", ContentDisposition(p.DownloadName))
	}
	if p.ContentType != "" {
		params.Set("response-content-type", p.ContentType)
	}

	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, p.Expiry, params)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}

func objectFromStat(st minio.ObjectInfo) Object {
	o := Object{
		Key:          st.Key,
		Size:         st.Size,
		ETag:         st.ETag,
		ContentType:  st.ContentType,
		LastModified: st.LastModified,
		OwnerID:      st.UserMetadata[metaOwnerID],
	}
	if name, err := url.PathUnescape(st.UserMetadata[metaOriginalName]); err == nil {
		o.OriginalName = name
	}
	return o
}

func mapErr(key string, err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" {
		return fmt.Errorf("%s: %w", key, ErrObjectNotFound)
	}
	return fmt.Errorf("get %s: %w", key, err)
}
