package rdbms

import (
	"context"
	"fmt"
	"sync"

	"github.com/relloyd/eltpipe/constants"
	"github.com/relloyd/eltpipe/helper"
	"github.com/relloyd/eltpipe/logger"
	"github.com/relloyd/eltpipe/rdbms/shared"
)

// SafeMapMockConnections wraps a map of logical name to in-memory connection with locking.
type SafeMapMockConnections struct {
	sync.Mutex
	internal map[string]*shared.MockConnection
}

// MockConnections holds the in-memory connections handed out for type mockSnowflake, keyed by logical name.
// Tests register a mock here before running a pipeline against it.
var MockConnections = &SafeMapMockConnections{internal: make(map[string]*shared.MockConnection)}

func (s *SafeMapMockConnections) Load(name string) (m *shared.MockConnection, ok bool) {
	s.Lock()
	m, ok = s.internal[name]
	s.Unlock()
	return
}

func (s *SafeMapMockConnections) Store(name string, m *shared.MockConnection) {
	s.Lock()
	s.internal[name] = m
	s.Unlock()
}

func (s *SafeMapMockConnections) Delete(name string) {
	s.Lock()
	delete(s.internal, name)
	s.Unlock()
}

// loadOrCreate returns the mock registered under name, creating one for the default upsert tables if needed.
func (s *SafeMapMockConnections) loadOrCreate(name string) *shared.MockConnection {
	s.Lock()
	defer s.Unlock()
	m, ok := s.internal[name]
	if !ok {
		m = shared.NewMockConnection(
			helper.OrderedMapKeys(helper.TokensToOrderedMap(constants.UpsertKeyColsDefault)),
			helper.OrderedMapKeys(helper.TokensToOrderedMap(constants.UpsertOtherColsDefault)))
		s.internal[name] = m
	}
	return m
}

// OpenDbConnection opens a database connection using the supplied ConnectionDetails struct in c.
// Only Snowflake is supported.
func OpenDbConnection(ctx context.Context, log logger.Logger, c shared.ConnectionDetails) (db shared.Connector, err error) {
	log.Debug("opening connection type ", c.Type, " with logicalName ", c.LogicalName) // don't log password details in c.Data!
	switch c.Type {
	case constants.ConnectionTypeSnowflake:
		db, err = newSnowflakeConnection(ctx, log, c.GetDsn())
	case constants.ConnectionTypeMockSnowflake:
		m := MockConnections.loadOrCreate(c.LogicalName)
		m.Reopen()
		db = m
	default:
		err = fmt.Errorf("unsupported database type, %q", c.Type)
	}
	return
}
