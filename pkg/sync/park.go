package sync

import "context"

// Parker suspends the calling task at a blocking point. A scheduler
// installs its own Parker in the context so suspension hands the run
// token back to it; the default Parker just blocks the goroutine.
type Parker interface {
	// Park blocks until ready fires or ctx ends. A nil return means
	// the task was woken and the awaited resource is committed to it;
	// otherwise the context error is returned.
	Park(ctx context.Context, ready <-chan struct{}) error
}

var parkerCtxKey = &goParker{}

// WithParker attaches a scheduler's Parker to the context.
func WithParker(ctx context.Context, p Parker) context.Context {
	return context.WithValue(ctx, parkerCtxKey, p)
}

// ParkerFrom retrieves the Parker from the context, falling back to
// the goroutine-blocking default.
func ParkerFrom(ctx context.Context) Parker {
	if p, ok := ctx.Value(parkerCtxKey).(Parker); ok {
		return p
	}
	return goParker{}
}

type goParker struct{}

func (goParker) Park(ctx context.Context, ready <-chan struct{}) error {
	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
