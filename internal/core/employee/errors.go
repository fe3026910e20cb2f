package employee

import "errors"

var (
	ErrRepositoryUnavailable = errors.New("employee: repository unavailable")
	ErrInvalidRecord         = errors.New("employee: invalid record")
)
