package transform

import (
	"context"
	"fmt"

	"github.com/relloyd/eltpipe/rdbms/shared"
)

// MockTransformManager serves connections from a map and hands out a single mock database.
type MockTransformManager struct {
	connections shared.DBConnections
	db          *shared.MockConnection
	opened      int
}

func NewMockTransformManager(connections shared.DBConnections, db *shared.MockConnection) *MockTransformManager {
	return &MockTransformManager{connections: connections, db: db}
}

func (tm *MockTransformManager) getTransformGuid() string {
	return "mockTransformGuid-123456789"
}

func (tm *MockTransformManager) getConnectionDetails(name string) (shared.ConnectionDetails, error) {
	c, ok := tm.connections[name]
	if !ok {
		return shared.ConnectionDetails{}, fmt.Errorf("connection %q not found in pipeline", name)
	}
	return c, nil
}

func (tm *MockTransformManager) openDbConnector(ctx context.Context, name string) (shared.Connector, error) {
	if _, err := tm.getConnectionDetails(name); err != nil {
		return nil, err
	}
	tm.opened++
	tm.db.Reopen()
	return tm.db, nil
}
