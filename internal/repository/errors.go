package repository

import "errors"

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict means the row exists but a write precondition no longer
	// holds, usually because another writer got there first.
	ErrConflict = errors.New("record changed concurrently")
)
