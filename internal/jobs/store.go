package jobs

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a job does not exist.
var ErrNotFound = errors.New("job not found")

// Store persists translation job records.
type Store interface {
	Create(ctx context.Context, record *Record) (string, error)
	Get(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context) ([]*Record, error)

	// Update persists the record's mutable fields (status, counters, log,
	// error, timestamps). Identity fields are never rewritten.
	Update(ctx context.Context, record *Record) error

	// SetStatus updates only the status field. Used by pause/resume.
	SetStatus(ctx context.Context, id string, status Status) error
}
