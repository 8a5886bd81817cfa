// internal/workflow/optional.go
package workflow

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Optional runs a best-effort step: on failure it logs a warning and returns
// the fallback value instead of propagating the error. Collection creation,
// license attachment and the persistence write all share this shape.
func Optional[T any](ctx context.Context, name string, fallback T, step func(context.Context) (T, error)) T {
	result, err := step(ctx)
	if err != nil {
		logrus.WithError(err).WithField("step", name).Warn("Optional workflow step failed, using fallback")
		return fallback
	}
	return result
}

// OptionalRun is Optional for steps with no result value.
func OptionalRun(ctx context.Context, name string, step func(context.Context) error) bool {
	if err := step(ctx); err != nil {
		logrus.WithError(err).WithField("step", name).Warn("Optional workflow step failed, continuing")
		return false
	}
	return true
}
