package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"gatewayapi/internal/idgen"
	"gatewayapi/internal/logger"
	"gatewayapi/internal/model"
	"gatewayapi/internal/repository"
	"gatewayapi/internal/storage"
)

const downloadURLExpiry = 15 * time.Minute

// FileListResult is the service-level DTO for paginated files.
type FileListResult struct {
	Items []model.File `json:"data"`
	Total int          `json:"total"`
}

// DownloadLink is a time-limited URL to fetch a file directly from object storage.
type DownloadLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FileService defines the use cases for files uploaded by authenticated users.
type FileService interface {
	// Upload stores the content in object storage, saves metadata to DB, and rolls back storage if DB save fails.
	// originalFilename is used only to extract the extension; the stored name is a fresh ID + extension.
	Upload(ctx context.Context, ownerID string, r io.Reader, originalFilename, contentType string, size int64) (*model.File, error)

	// List returns the owner's files using limit/offset and a total count.
	List(ctx context.Context, ownerID string, limit, offset int) (*FileListResult, error)

	// Get returns a single file's metadata.
	Get(ctx context.Context, ownerID, id string) (*model.File, error)

	// Open streams a file's content. The caller closes the reader.
	Open(ctx context.Context, ownerID, id string) (io.ReadCloser, *model.File, error)

	// DownloadURL returns a presigned URL for the file.
	DownloadURL(ctx context.Context, ownerID, id string) (*DownloadLink, error)

	// Delete removes a file from both storage and repository.
	Delete(ctx context.Context, ownerID, id string) error
}

type fileService struct {
	store storage.Storage
	repo  repository.FileRepository
	ids   idgen.Generator
}

// NewFileService constructs a new FileService.
func NewFileService(store storage.Storage, repo repository.FileRepository, ids idgen.Generator) FileService {
	return &fileService{store: store, repo: repo, ids: ids}
}

func (s *fileService) Upload(ctx context.Context, ownerID string, r io.Reader, originalFilename, contentType string, size int64) (*model.File, error) {
	if ownerID == "" {
		return nil, ErrIDRequired
	}
	if r == nil {
		return nil, ErrReaderNil
	}

	original := filepath.Base(strings.ReplaceAll(originalFilename, "\\", "/"))
	ext := strings.ToLower(filepath.Ext(original))
	genName := s.ids.Generate() + ext
	key := path.Join("files", ownerID, genName)

	obj, err := s.store.Put(ctx, key, r, storage.Upload{
		Size:         size,
		ContentType:  contentType,
		OwnerID:      ownerID,
		OriginalName: original,
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	f := &model.File{
		ID:           s.ids.Generate(),
		OwnerID:      ownerID,
		Filename:     genName,
		OriginalName: original,
		StoragePath:  obj.Key,
		Size:         obj.Size,
		ContentType:  obj.ContentType,
		CreatedAt:    time.Now().UTC(),
	}
	stored, err := s.repo.Create(ctx, f)
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			logger.FromContext(ctx).Error().Err(delErr).Str("key", key).Msg("rollback of uploaded object failed")
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

func (s *fileService) List(ctx context.Context, ownerID string, limit, offset int) (*FileListResult, error) {
	if ownerID == "" {
		return nil, ErrIDRequired
	}
	limit, offset = normalizePage(limit, offset)

	res, err := s.repo.List(ctx, ownerID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &FileListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *fileService) Get(ctx context.Context, ownerID, id string) (*model.File, error) {
	if ownerID == "" || id == "" {
		return nil, ErrIDRequired
	}
	f, err := s.repo.FindByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *fileService) Open(ctx context.Context, ownerID, id string) (io.ReadCloser, *model.File, error) {
	f, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, nil, err
	}
	rc, _, err := s.store.Get(ctx, f.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			logger.FromContext(ctx).Warn().Str("file_id", f.ID).Str("key", f.StoragePath).Msg("file row has no object")
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("open object: %w", err)
	}
	return rc, f, nil
}

func (s *fileService) DownloadURL(ctx context.Context, ownerID, id string) (*DownloadLink, error) {
	f, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	u, err := s.store.PresignGet(ctx, f.StoragePath, storage.Presign{
		Expiry:       downloadURLExpiry,
		DownloadName: f.OriginalName,
		ContentType:  f.ContentType,
	})
	if err != nil {
		return nil, fmt.Errorf("presign: %w", err)
	}
	return &DownloadLink{URL: u, ExpiresAt: time.Now().UTC().Add(downloadURLExpiry)}, nil
}

// Delete removes the object first, then the row. If storage fails the row is kept
// so the object can still be located.
func (s *fileService) Delete(ctx context.Context, ownerID, id string) error {
	f, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, f.StoragePath); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	return s.repo.Delete(ctx, ownerID, id)
}
