package stage

import (
	"context"

	"github.com/c360/flowkit/container"
	"github.com/c360/flowkit/event"
)

type reportKey struct{}

type reportScope struct {
	stage     *Stage
	container *container.Container
}

func withStage(ctx context.Context, s *Stage, c *container.Container) context.Context {
	return context.WithValue(ctx, reportKey{}, reportScope{stage: s, container: c})
}

// FromContext returns the stage running the current Process call
func FromContext(ctx context.Context) (*Stage, bool) {
	scope, ok := ctx.Value(reportKey{}).(reportScope)
	if !ok {
		return nil, false
	}
	return scope.stage, true
}

// Report lets a processor emit a progress or warning event for the container
// it is processing. It reports false outside Process or for any other type.
func Report(ctx context.Context, t event.StageType, msg string) bool {
	if t != event.StageProgress && t != event.StageWarning {
		return false
	}
	scope, ok := ctx.Value(reportKey{}).(reportScope)
	if !ok {
		return false
	}
	scope.stage.fire(t, scope.container.ID(), msg)
	return true
}
