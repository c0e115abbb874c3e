// Package storage persists extracted records. Every sink overwrites an
// existing record of the same name.
package storage

import (
	"context"
	"errors"
	"fmt"

	"snpedia/internal/models"
)

// Sink stores one record at a time.
type Sink interface {
	Name() string
	Store(ctx context.Context, r models.Record) error
}

// WriteError is returned by a sink that failed to persist a record.
type WriteError struct {
	Sink string
	Name string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s: write %q: %v", e.Sink, e.Name, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// ErrInvalidName is the cause of a WriteError for names that cannot be used as a file or key.
var ErrInvalidName = errors.New("invalid record name")
