package shared

import (
	"fmt"
	"sort"
	"strings"

	"github.com/relloyd/eltpipe/constants"
	"github.com/xo/dburl"
)

var DefaultDsnConnectionKeyNames = struct {
	Dsn string
}{
	Dsn: "dsn",
}

// ConnectionDetails is intended to hold credentials for a logical connection.
// Database connections hold a DSN in Data while S3 connections hold bucket, prefix and region.
type ConnectionDetails struct {
	Type        string            `json:"type" errorTxt:"connection type" mandatory:"yes" yaml:"type"`
	LogicalName string            `json:"logicalName" errorTxt:"connection logical name" mandatory:"yes" yaml:"logicalName"`
	Data        map[string]string `json:"data" yaml:"data"`
}

// GetDsn returns the DSN saved in the connection Data.
func (c ConnectionDetails) GetDsn() string {
	return c.Data[DefaultDsnConnectionKeyNames.Dsn]
}

// String redacts passwords and pretty-prints the contents of ConnectionDetails.
func (c ConnectionDetails) String() string {
	x := make([]string, 0, len(c.Data)+1)
	x = append(x, fmt.Sprintf("  type = %v", c.Type))
	if v, ok := c.Data[DefaultDsnConnectionKeyNames.Dsn]; ok { // if there's a DSN...
		x = append(x, fmt.Sprintf("  dsn = %v", RedactDsn(v)))
	} else { // else there's no DSN... (could be S3 connection)
		keys := make([]string, 0, len(c.Data))
		for k := range c.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v := c.Data[k]
			if k == "password" {
				v = constants.RedactedValue
			}
			x = append(x, fmt.Sprintf("  %v = %v", k, v))
		}
	}
	return strings.Join(x, "\n")
}

// RedactDsn returns dsn with any password removed.
// DSNs that can't be parsed are hidden entirely since we can't tell where the password is.
func RedactDsn(dsn string) string {
	u, err := dburl.Parse(dsn)
	if err != nil {
		return constants.RedactedValue
	}
	return u.Redacted()
}

// DBConnections is used by transform code and pipeline definitions.
type DBConnections map[string]ConnectionDetails

// LoadConnection will load the supplied *c[connectionName], which is expected to be in c, using the interface
// to do the actual loading.
func (c *DBConnections) LoadConnection(i ConnectionGetter, connectionName string) error {
	conn, ok := (*c)[connectionName]
	if !ok {
		return fmt.Errorf("connection %q not found in pipeline", connectionName)
	}
	name := conn.LogicalName
	if name == "" {
		name = connectionName
	}
	d, err := i.LoadConnection(name) // fetch new ConnectionDetails from config using the logicalName, not the connectionName!
	if err != nil {
		return err
	}
	(*c)[connectionName] = d // replace the connection with the loaded version
	return nil
}
