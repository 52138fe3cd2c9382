package postgres

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"gatewayapi/internal/model"
	"gatewayapi/internal/repository"
)

// FilePostgres is a PostgreSQL implementation of repository.FileRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type FilePostgres struct {
	db *sql.DB
}

// NewFilePostgres creates a new FilePostgres repository.
func NewFilePostgres(db *sql.DB) *FilePostgres {
	return &FilePostgres{db: db}
}

var _ repository.FileRepository = (*FilePostgres)(nil)

var fileColumns = []string{"id", "owner_id", "filename", "original_name", "storage_path", "size", "content_type", "created_at"}

const fileReturning = `id, owner_id, filename, original_name, storage_path, size, content_type, created_at`

func scanFile(s scanner) (*model.File, error) {
	var f model.File
	if err := s.Scan(
		&f.ID,
		&f.OwnerID,
		&f.Filename,
		&f.OriginalName,
		&f.StoragePath,
		&f.Size,
		&f.ContentType,
		&f.CreatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &f, nil
}

// Create inserts a new file row and returns the stored record.
func (r *FilePostgres) Create(ctx context.Context, f *model.File) (*model.File, error) {
	const q = `
		INSERT INTO files (id, owner_id, filename, original_name, storage_path, size, content_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + fileReturning
	row := r.db.QueryRowContext(ctx, q,
		f.ID,
		f.OwnerID,
		f.Filename,
		f.OriginalName,
		f.StoragePath,
		f.Size,
		f.ContentType,
		f.CreatedAt,
	)
	return scanFile(row)
}

// FindByID fetches a single file by its ID within the owner's scope.
func (r *FilePostgres) FindByID(ctx context.Context, ownerID, id string) (*model.File, error) {
	const q = `SELECT ` + fileReturning + ` FROM files WHERE owner_id = $1 AND id = $2`
	return scanFile(r.db.QueryRowContext(ctx, q, ownerID, id))
}

// List returns the owner's files using LIMIT/OFFSET pagination and a total count.
func (r *FilePostgres) List(ctx context.Context, ownerID string, pq repository.PageQuery) (*repository.PageResult[model.File], error) {
	const qCount = `SELECT COUNT(*) FROM files WHERE owner_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, ownerID).Scan(&total); err != nil {
		return nil, err
	}

	qList, args, err := psql.Select(fileColumns...).
		From("files").
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(pq.Limit)).
		Offset(uint64(pq.Offset)).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, qList, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.File, 0)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.File]{Items: items, Total: total}, nil
}

// Delete removes a file row. It does not return an error if the row does not exist.
func (r *FilePostgres) Delete(ctx context.Context, ownerID, id string) error {
	const q = `DELETE FROM files WHERE owner_id = $1 AND id = $2`
	_, err := r.db.ExecContext(ctx, q, ownerID, id)
	return err
}
