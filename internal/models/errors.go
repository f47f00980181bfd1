package models

import "github.com/pkg/errors"

// Ошибки домена. Транспорт маппит их в коды ответа через errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("invalid state")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidSpec       = errors.New("invalid query spec")
	ErrValidation        = errors.New("validation failed")
	// ErrConflict means the journey was changed by another writer since it was read.
	ErrConflict = errors.New("journey was modified concurrently")
)
