package config

import (
	"fmt"

	"github.com/relloyd/eltpipe/rdbms/shared"
)

// GetConnectionType returns the type of the named connection.
func (c *File) GetConnectionType(connectionName string) (connectionType string, err error) {
	d, err := c.GetConnectionDetails(connectionName)
	if err != nil {
		return "", err
	}
	return d.Type, nil
}

// GetConnectionDetails fetches generic connection details from the File c using the connectionName to do the lookup.
// If the connection is not found then an error is produced.
func (c *File) GetConnectionDetails(connectionName string) (*shared.ConnectionDetails, error) {
	d, err := c.LoadConnection(connectionName)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// LoadConnection implements shared.ConnectionGetter.
func (c *File) LoadConnection(connectionName string) (shared.ConnectionDetails, error) {
	d := shared.ConnectionDetails{}
	if err := c.Get(connectionName, &d); err != nil {
		return d, fmt.Errorf("connection %q is not configured, use 'config connections add' to create it: %w", connectionName, err)
	}
	if d.Type == "" {
		return d, fmt.Errorf("unknown type for connection %q", connectionName)
	}
	if d.LogicalName == "" {
		d.LogicalName = connectionName
	}
	return d, nil
}

// SaveConnection writes d under its logical name.
func (c *File) SaveConnection(d shared.ConnectionDetails) error {
	if d.LogicalName == "" {
		return fmt.Errorf("connection logical name must be set")
	}
	return c.Set(d.LogicalName, d)
}
