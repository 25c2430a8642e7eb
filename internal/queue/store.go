package queue

import (
	"context"
	"errors"

	"github.com/nadmax/pulse/internal/job"
)

var ErrJobNotFound = errors.New("job not found")

// Store persists job records. Implementations must be safe for concurrent use and
// must not share mutable state with the records passed to Save.
type Store interface {
	Save(ctx context.Context, j *job.Job) error
	Get(ctx context.Context, id string) (*job.Job, error)
	List(ctx context.Context) ([]*job.Job, error)
	Close() error
}
