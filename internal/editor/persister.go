package editor

import (
	"context"

	"handyman/internal/model"
)

// Persister writes a batch of changes. A nil error means the batch is durable.
type Persister interface {
	Save(ctx context.Context, b model.Batch) error
}

type PersisterFunc func(ctx context.Context, b model.Batch) error

func (f PersisterFunc) Save(ctx context.Context, b model.Batch) error { return f(ctx, b) }
