package domain

import "errors"

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrMalformedID     = errors.New("malformed project id")
	ErrInvalidBudget   = errors.New("invalid budget")
	ErrInvalidStatus   = errors.New("invalid project status")
	ErrInvalidProgress = errors.New("progress must be between 0 and 100")
	ErrNotEditing      = errors.New("project is not being edited")
)
