package errors

import "errors"

var (
	ErrNotFound  = errors.New("clinic service not found")
	ErrInvalidID = errors.New("invalid clinic service id")
	ErrNameTaken = errors.New("clinic service name already exists")
)
