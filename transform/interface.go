package transform

import (
	"context"

	"github.com/relloyd/eltpipe/rdbms/shared"
	"github.com/relloyd/eltpipe/stats"
)

// StatsManager abstracts stats capture for pipeline steps.
type StatsManager interface {
	StartDumping()
	StopDumping()
	AddStepWatcher(stepName string) *stats.StepWatcher
}

// TransformManager gives step launchers access to the running pipeline.
type TransformManager interface {
	getTransformGuid() string
	getConnectionDetails(name string) (shared.ConnectionDetails, error)
	openDbConnector(ctx context.Context, name string) (shared.Connector, error)
}
