package postgres

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"gatewayapi/internal/model"
	"gatewayapi/internal/repository"
)

// RecordPostgres is a PostgreSQL implementation of repository.RecordRepository.
// Every statement is scoped by owner_id.
type RecordPostgres struct {
	db *sql.DB
}

// NewRecordPostgres creates a new RecordPostgres repository.
func NewRecordPostgres(db *sql.DB) *RecordPostgres {
	return &RecordPostgres{db: db}
}

var _ repository.RecordRepository = (*RecordPostgres)(nil)

var recordColumns = []string{"id", "owner_id", "kind", "data", "created_at", "updated_at"}

const recordReturning = `id, owner_id, kind, data, created_at, updated_at`

func scanRecord(s scanner) (*model.Record, error) {
	var (
		rec  model.Record
		data []byte
	)
	if err := s.Scan(
		&rec.ID,
		&rec.OwnerID,
		&rec.Kind,
		&data,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	rec.Data = data
	return &rec, nil
}

// Create inserts a record row and returns the stored record.
func (r *RecordPostgres) Create(ctx context.Context, rec *model.Record) (*model.Record, error) {
	const q = `
		INSERT INTO records (id, owner_id, kind, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + recordReturning
	row := r.db.QueryRowContext(ctx, q,
		rec.ID,
		rec.OwnerID,
		rec.Kind,
		string(rec.Data),
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	return scanRecord(row)
}

// FindByID fetches a single record belonging to ownerID.
func (r *RecordPostgres) FindByID(ctx context.Context, ownerID, id string) (*model.Record, error) {
	const q = `SELECT ` + recordReturning + ` FROM records WHERE owner_id = $1 AND id = $2`
	return scanRecord(r.db.QueryRowContext(ctx, q, ownerID, id))
}

// List returns a page of records ordered newest first together with the total count.
func (r *RecordPostgres) List(ctx context.Context, f repository.RecordFilter, pq repository.PageQuery) (*repository.PageResult[model.Record], error) {
	where := sq.And{sq.Eq{"owner_id": f.OwnerID}}
	if f.Kind != "" {
		where = append(where, sq.Eq{"kind": f.Kind})
	}

	countSQL, countArgs, err := psql.Select("COUNT(*)").From("records").Where(where).ToSql()
	if err != nil {
		return nil, err
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, err
	}

	listSQL, listArgs, err := psql.Select(recordColumns...).
		From("records").
		Where(where).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(pq.Limit)).
		Offset(uint64(pq.Offset)).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Record]{Items: items, Total: total}, nil
}

// UpdateData replaces the record payload and returns the updated row.
func (r *RecordPostgres) UpdateData(ctx context.Context, ownerID, id string, data []byte, at time.Time) (*model.Record, error) {
	const q = `
		UPDATE records SET data = $1, updated_at = $2
		WHERE owner_id = $3 AND id = $4
		RETURNING ` + recordReturning
	return scanRecord(r.db.QueryRowContext(ctx, q, string(data), at, ownerID, id))
}

// Delete removes a record belonging to ownerID.
func (r *RecordPostgres) Delete(ctx context.Context, ownerID, id string) error {
	const q = `DELETE FROM records WHERE owner_id = $1 AND id = $2`
	res, err := r.db.ExecContext(ctx, q, ownerID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
