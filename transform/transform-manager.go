package transform

import (
	"context"
	"fmt"

	"github.com/relloyd/eltpipe/logger"
	"github.com/relloyd/eltpipe/rdbms"
	"github.com/relloyd/eltpipe/rdbms/shared"
)

// Transform holds the state of a single pipeline run.
type Transform struct {
	log           logger.Logger
	transformGuid string
	defn          *TransformDefinition
}

func NewTransformManager(log logger.Logger, t *TransformDefinition, transformGuid string) *Transform {
	return &Transform{log: log, defn: t, transformGuid: transformGuid}
}

func (t *Transform) getTransformGuid() string {
	return t.transformGuid
}

func (t *Transform) getConnectionDetails(name string) (shared.ConnectionDetails, error) {
	c, ok := t.defn.Connections[name]
	if !ok {
		return shared.ConnectionDetails{}, fmt.Errorf("connection %q not found in pipeline", name)
	}
	if c.LogicalName == "" {
		c.LogicalName = name
	}
	return c, nil
}

// openDbConnector opens a new connection per call. Callers must close it.
func (t *Transform) openDbConnector(ctx context.Context, name string) (shared.Connector, error) {
	c, err := t.getConnectionDetails(name)
	if err != nil {
		return nil, err
	}
	return rdbms.OpenDbConnection(ctx, t.log, c)
}
