package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"gatewayapi/internal/idgen"
	"gatewayapi/internal/model"
	"gatewayapi/internal/repository"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	maxRecordBytes   = 1 << 20
)

var kindPattern = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// RecordListResult is the service-level DTO for paginated records.
type RecordListResult struct {
	Items  []model.Record `json:"data"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// RecordService manages JSON records owned by authenticated users.
// Records owned by someone else are reported as ErrNotFound.
type RecordService interface {
	Create(ctx context.Context, ownerID, kind string, data json.RawMessage) (*model.Record, error)
	Get(ctx context.Context, ownerID, id string) (*model.Record, error)
	List(ctx context.Context, ownerID, kind string, limit, offset int) (*RecordListResult, error)
	Update(ctx context.Context, ownerID, id string, data json.RawMessage) (*model.Record, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type recordService struct {
	repo repository.RecordRepository
	ids  idgen.Generator
	now  func() time.Time
}

// NewRecordService constructs a new RecordService.
func NewRecordService(repo repository.RecordRepository, ids idgen.Generator) RecordService {
	return &recordService{
		repo: repo,
		ids:  ids,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// normalizePage applies the default and maximum page size.
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// validateData accepts a JSON object or array no larger than maxRecordBytes.
func validateData(data json.RawMessage) error {
	if len(data) > maxRecordBytes {
		return fmt.Errorf("%w: data exceeds %d bytes", ErrInvalidInput, maxRecordBytes)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return fmt.Errorf("%w: data must be valid JSON", ErrInvalidInput)
	}
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return fmt.Errorf("%w: data must be a JSON object or array", ErrInvalidInput)
	}
	return nil
}

func mapRecordErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *recordService) Create(ctx context.Context, ownerID, kind string, data json.RawMessage) (*model.Record, error) {
	if ownerID == "" {
		return nil, ErrIDRequired
	}
	if !kindPattern.MatchString(kind) {
		return nil, fmt.Errorf("%w: kind must match %s", ErrInvalidInput, kindPattern)
	}
	if err := validateData(data); err != nil {
		return nil, err
	}

	now := s.now()
	rec, err := s.repo.Create(ctx, &model.Record{
		ID:        s.ids.Generate(),
		OwnerID:   ownerID,
		Kind:      kind,
		Data:      bytes.TrimSpace(data),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("save record: %w", err)
	}
	return rec, nil
}

func (s *recordService) Get(ctx context.Context, ownerID, id string) (*model.Record, error) {
	if ownerID == "" || id == "" {
		return nil, ErrIDRequired
	}
	rec, err := s.repo.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, mapRecordErr(err)
	}
	return rec, nil
}

func (s *recordService) List(ctx context.Context, ownerID, kind string, limit, offset int) (*RecordListResult, error) {
	if ownerID == "" {
		return nil, ErrIDRequired
	}
	if kind != "" && !kindPattern.MatchString(kind) {
		return nil, fmt.Errorf("%w: kind must match %s", ErrInvalidInput, kindPattern)
	}
	limit, offset = normalizePage(limit, offset)

	res, err := s.repo.List(ctx,
		repository.RecordFilter{OwnerID: ownerID, Kind: kind},
		repository.PageQuery{Limit: limit, Offset: offset},
	)
	if err != nil {
		return nil, err
	}
	return &RecordListResult{Items: res.Items, Total: res.Total, Limit: limit, Offset: offset}, nil
}

func (s *recordService) Update(ctx context.Context, ownerID, id string, data json.RawMessage) (*model.Record, error) {
	if ownerID == "" || id == "" {
		return nil, ErrIDRequired
	}
	if err := validateData(data); err != nil {
		return nil, err
	}
	rec, err := s.repo.UpdateData(ctx, ownerID, id, bytes.TrimSpace(data), s.now())
	if err != nil {
		return nil, mapRecordErr(err)
	}
	return rec, nil
}

func (s *recordService) Delete(ctx context.Context, ownerID, id string) error {
	if ownerID == "" || id == "" {
		return ErrIDRequired
	}
	return mapRecordErr(s.repo.Delete(ctx, ownerID, id))
}
