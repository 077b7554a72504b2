// Package apperr defines the error categories shared by the core packages.
package apperr

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidPassword   = errors.New("invalid password")
	ErrUnavailable       = errors.New("database unavailable")
	ErrCorpusUnavailable = errors.New("corpus unavailable")
)
