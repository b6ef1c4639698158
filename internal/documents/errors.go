package documents

import "errors"

var (
	ErrNotFound         = errors.New("document not found")
	ErrVersionNotFound  = errors.New("version not found")
	ErrAlreadyExtracted = errors.New("version already has extraction results")
	ErrFileMissing      = errors.New("file missing on storage")
	ErrInvalidInput     = errors.New("invalid input")
	ErrNoFile           = errors.New("no file provided")
	ErrTypeNotAllowed   = errors.New("file type not allowed")
)
