package cache

import (
	"context"
)

// ReportCache stores rendered report views. Get reports the generation it
// looked in; passing that generation back to Set keeps a view computed
// before an Invalidate from being served after it.
type ReportCache interface {
	Get(ctx context.Context, key string, dst any) (hit bool, generation int64, err error)
	Set(ctx context.Context, key string, generation int64, value any) error
	Invalidate(ctx context.Context) error
}

type NoopCache struct{}

func (NoopCache) Get(_ context.Context, _ string, _ any) (bool, int64, error) {
	return false, 0, nil
}

func (NoopCache) Set(_ context.Context, _ string, _ int64, _ any) error {
	return nil
}

func (NoopCache) Invalidate(_ context.Context) error {
	return nil
}
