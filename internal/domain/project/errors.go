package project

import "errors"

var (
	// ErrProjectNotFound indicates the project mapping doesn't exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrInvalidInput indicates invalid project input.
	ErrInvalidInput = errors.New("invalid project input")
)
