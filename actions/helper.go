package actions

import (
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/relloyd/eltpipe/logger"
	"github.com/relloyd/eltpipe/rdbms"
	"github.com/relloyd/eltpipe/rdbms/shared"
	"github.com/relloyd/eltpipe/transform"
)

// debugLogSnowflakeDBDetails dumps connection details to the log for debugging, never the password.
func debugLogSnowflakeDBDetails(log logger.Logger, d *rdbms.SnowflakeConnectionDetails) {
	if d != nil {
		log.Debug("snowAccount=", d.Account)
		log.Debug("snowDbName=", d.DBName)
		log.Debug("snowSchema=", d.Schema)
		log.Debug("snowWarehouse=", d.Warehouse)
		log.Debug("snowRole=", d.RoleName)
		log.Debug("snowUser=", d.User)
		log.Debug("snowPass exists =", d.Password != "") // don't log password!
	} else {
		log.Debug("nil pointer supplied for snowflake connection details")
	}
}

// outputPipeDefinition writes t to w as YAML or JSON.
// Connection data is removed unless includeConnections is true.
func outputPipeDefinition(log logger.Logger, t *transform.TransformDefinition, w io.Writer, yamlOrJson string, includeConnections bool) error {
	c := *t
	if !includeConnections {
		c.Connections = deleteConnections(t.Connections)
	}
	switch yamlOrJson {
	case "yaml":
		return writeTransformConfigToFile(log, &c, w, true)
	case "json":
		return writeTransformConfigToFile(log, &c, w, false)
	default:
		return fmt.Errorf("unsupported output format %q", yamlOrJson)
	}
}

// deleteConnections returns a copy of conns holding only the type and logical name of each connection.
func deleteConnections(conns shared.DBConnections) shared.DBConnections {
	retval := make(shared.DBConnections, len(conns))
	for k, c := range conns {
		retval[k] = shared.ConnectionDetails{Type: c.Type, LogicalName: c.LogicalName}
	}
	return retval
}

func writeTransformConfigToFile(log logger.Logger, t *transform.TransformDefinition, f io.Writer, useYaml bool) error {
	var err error
	var data []byte
	if useYaml {
		data, err = yaml.Marshal(t)
	} else {
		data, err = json.MarshalIndent(t, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("unable to marshal the pipe: %w", err)
	}
	log.Debug("writing pipe definition of ", len(data), " bytes")
	_, err = f.Write(data)
	return err
}

// loadTransformFromFile reads a pipe definition from a .json, .yaml or .yml file.
func loadTransformFromFile(transformFileName string) (*transform.TransformDefinition, error) {
	raw, err := ioutil.ReadFile(transformFileName)
	if err != nil {
		return nil, err
	}
	t := transform.TransformDefinition{}
	switch strings.ToLower(filepath.Ext(transformFileName)) {
	case ".json":
		if err = json.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("error reading pipe JSON: unmarshal errors: %w", err)
		}
	case ".yaml", ".yml":
		b, err := yaml.YAMLToJSON(raw)
		if err != nil {
			return nil, err
		}
		if err = json.Unmarshal(b, &t); err != nil {
			return nil, fmt.Errorf("error reading pipe YAML after conversion to JSON: unmarshal errors: %w", err)
		}
	default:
		return nil, fmt.Errorf("unable to identify type of pipe file by its extension, please use .yaml or .json")
	}
	return &t, nil
}

// ConnectionLoader fetches connection details by logical name from the connections file or the environment.
type ConnectionLoader interface {
	LoadConnection(connectionName string) (shared.ConnectionDetails, error)
}

// loadConnectionDataIfMissing loads connections from c by logical name when the pipe holds no credentials.
func loadConnectionDataIfMissing(c ConnectionLoader, t *transform.TransformDefinition) error {
	for connectionName, v := range t.Connections {
		if len(v.Data) == 0 { // if the credentials are missing...
			if err := t.Connections.LoadConnection(c, connectionName); err != nil {
				return err
			}
		}
	}
	return nil
}
