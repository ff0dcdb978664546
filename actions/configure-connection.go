package actions

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/relloyd/eltpipe/config"
	"github.com/relloyd/eltpipe/helper"
	"github.com/relloyd/eltpipe/rdbms/shared"
)

// ConnectionGetterSetter stores connection details keyed by logical name.
type ConnectionGetterSetter interface {
	Get(key string, out interface{}) error
	Set(key string, val interface{}) error
	Delete(key string) error
	GetAllKeys() ([]string, error)
}

type ConnectionConfig struct {
	ConfigFile  ConnectionGetterSetter `errorTxt:"config file" mandatory:"yes"`
	LogicalName string                 `errorTxt:"connection-name" mandatory:"yes"`
	Type        string
	ConnDetails ConnectionValidator // rdbms.SnowflakeConnectionDetails or s3.AwsS3Bucket
	Force       bool
	Out         io.Writer
}

type ConnectionListConfig struct {
	ConfigFile ConnectionGetterSetter `errorTxt:"config file" mandatory:"yes"`
	Out        io.Writer
}

func RunConnectionAdd(cfg *ConnectionConfig) error {
	connection := shared.ConnectionDetails{
		LogicalName: cfg.LogicalName,
		Type:        cfg.Type,
		Data:        make(map[string]string),
	}
	if err := helper.ValidateStructIsPopulated(connection); err != nil { // if the basics were not supplied...
		return err
	}
	if strings.Contains(cfg.LogicalName, ".") {
		return fmt.Errorf("connection name cannot contain period characters '.'")
	}
	if !IsSupportedConnectionType(cfg.Type) {
		return fmt.Errorf("unsupported connection type %q, please use one of: %v", cfg.Type, GetSupportedConnectionTypes())
	}
	if cfg.ConnDetails == nil {
		return fmt.Errorf("no connection details supplied for %q", cfg.LogicalName)
	}
	// Validate DSN and metadata based on connection type.
	if err := cfg.ConnDetails.Parse(); err != nil {
		return pkgerrors.Wrap(err, "unable to create connection")
	}
	scheme, err := cfg.ConnDetails.GetScheme()
	if err != nil {
		return err
	}
	if scheme != cfg.Type {
		return fmt.Errorf("connection details of type %q do not match requested type %q", scheme, cfg.Type)
	}
	cfg.ConnDetails.GetMap(connection.Data)
	// Check for an existing saved connection.
	existing := shared.ConnectionDetails{}
	err = cfg.ConfigFile.Get(cfg.LogicalName, &existing)
	if err != nil {
		if !isMissingKeyOrFile(err) { // if the error is real...
			return err
		}
	} else if !cfg.Force { // else the connection exists but we are not allowed to overwrite it...
		return fmt.Errorf("connection %q exists, use force to update the connection or remove it first", cfg.LogicalName)
	}
	// Set config (creates the file if missing).
	if err = cfg.ConfigFile.Set(cfg.LogicalName, connection); err != nil {
		return fmt.Errorf("error writing connections config file after adding: %w", err)
	}
	fmt.Fprintf(out(cfg.Out), "Connection %q added\n", cfg.LogicalName)
	return nil
}

func RunConnectionRemove(cfg *ConnectionConfig) error {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil { // if the basics were not supplied...
		return err
	}
	err := cfg.ConfigFile.Delete(cfg.LogicalName)
	if err != nil {
		return fmt.Errorf("unable to delete connection %q from config: %w", cfg.LogicalName, err)
	}
	fmt.Fprintf(out(cfg.Out), "Connection %q removed\n", cfg.LogicalName)
	return nil
}

// RunConnectionList prints every saved connection with passwords redacted.
func RunConnectionList(cfg *ConnectionListConfig) error {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	keys, err := cfg.ConfigFile.GetAllKeys()
	if err != nil {
		return err
	}
	for _, k := range keys { // for each connection name...
		conn := shared.ConnectionDetails{}
		if err := cfg.ConfigFile.Get(k, &conn); err != nil {
			return err
		}
		fmt.Fprintf(out(cfg.Out), "%v:\n%v\n", k, conn)
	}
	return nil
}

func isMissingKeyOrFile(err error) bool {
	return errors.As(err, &config.KeyNotFoundError{}) || errors.As(err, &config.FileNotFoundError{})
}

func out(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
