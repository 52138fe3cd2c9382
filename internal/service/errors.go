package service

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrIDRequired         = errors.New("id is required")
	ErrNotFound           = errors.New("not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrReaderNil          = errors.New("reader is nil")
)
