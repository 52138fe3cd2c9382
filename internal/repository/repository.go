// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g. postgres) and contain no business logic.
package repository

import (
	"context"
	"errors"
	"time"

	"gatewayapi/internal/model"
)

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("conflict")
)

// UserRepository persists user accounts.
type UserRepository interface {
	// Create inserts a user. Returns ErrConflict if the email is already registered.
	Create(ctx context.Context, u *model.User) (*model.User, error)

	// FindByEmail looks a user up by normalized email.
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByID looks a user up by ID.
	FindByID(ctx context.Context, id string) (*model.User, error)

	// TouchLastLogin sets last_login_at for the user.
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// RecordRepository persists owner-scoped JSON records.
type RecordRepository interface {
	Create(ctx context.Context, r *model.Record) (*model.Record, error)
	FindByID(ctx context.Context, ownerID, id string) (*model.Record, error)
	List(ctx context.Context, filter RecordFilter, pq PageQuery) (*PageResult[model.Record], error)
	// UpdateData replaces the payload and bumps updated_at. Returns ErrNotFound if nothing matched.
	UpdateData(ctx context.Context, ownerID, id string, data []byte, at time.Time) (*model.Record, error)
	// Delete removes a record. Returns ErrNotFound if nothing matched.
	Delete(ctx context.Context, ownerID, id string) error
}

// RecordFilter narrows a record listing. Kind is optional.
type RecordFilter struct {
	OwnerID string
	Kind    string
}

// FileRepository defines data access for file metadata using SQL queries only.
type FileRepository interface {
	// Create inserts a new file record and returns the stored row.
	Create(ctx context.Context, f *model.File) (*model.File, error)

	// FindByID returns a file owned by ownerID.
	FindByID(ctx context.Context, ownerID, id string) (*model.File, error)

	// List returns a paginated list of the owner's files and the total count.
	List(ctx context.Context, ownerID string, pq PageQuery) (*PageResult[model.File], error)

	// Delete removes a file row. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, ownerID, id string) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
