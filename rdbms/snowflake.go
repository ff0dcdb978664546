package rdbms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/relloyd/eltpipe/constants"
	"github.com/relloyd/eltpipe/logger"
	"github.com/relloyd/eltpipe/rdbms/shared"
	sf "github.com/snowflakedb/gosnowflake"
)

const snowflakeDsnPrefix = "snowflake://"

var reSnowflakeDsnPrefix = regexp.MustCompile("^" + snowflakeDsnPrefix)

// SnowflakeConnectionDetails holds the parts of a Snowflake DSN that are exported to dbt and used by the upsert.
type SnowflakeConnectionDetails struct {
	Account        string `errorTxt:"Snowflake account" mandatory:"yes"`
	DBName         string `errorTxt:"Snowflake db name"`
	Schema         string `errorTxt:"Snowflake schema"`
	User           string `errorTxt:"Snowflake username" mandatory:"yes"`
	Password       string `errorTxt:"Snowflake password"`
	Warehouse      string `errorTxt:"Snowflake warehouse"`
	RoleName       string `errorTxt:"Snowflake role name"`
	Dsn            string
	OriginalScheme string
}

func (d SnowflakeConnectionDetails) String() string {
	return fmt.Sprintf("%v:%v@%v/%v?schema=%v&warehouse=%v&role=%v",
		d.User,
		constants.RedactedValue,
		d.Account,
		d.DBName,
		d.Schema,
		d.Warehouse,
		d.RoleName,
	)
}

// Parse validates the DSN held in d.
func (d SnowflakeConnectionDetails) Parse() error {
	_, err := SnowflakeParseDSN(d.Dsn)
	return err
}

func (d SnowflakeConnectionDetails) GetScheme() (string, error) {
	return constants.ConnectionTypeSnowflake, nil
}

func (d SnowflakeConnectionDetails) GetMap(m map[string]string) map[string]string {
	if m == nil {
		m = make(map[string]string)
	}
	m[shared.DefaultDsnConnectionKeyNames.Dsn] = d.Dsn
	return m
}

// DbtEnv returns the DBT_* variables that a dbt profile reads to connect to Snowflake.
// Missing values are exported as empty strings and the schema falls back to ANALYTICS.
func (d SnowflakeConnectionDetails) DbtEnv() map[string]string {
	schema := d.Schema
	if schema == "" {
		schema = constants.DbtSchemaDefault
	}
	return map[string]string{
		constants.DbtEnvVarUser:      d.User,
		constants.DbtEnvVarPassword:  d.Password,
		constants.DbtEnvVarAccount:   d.Account,
		constants.DbtEnvVarSchema:    schema,
		constants.DbtEnvVarDatabase:  d.DBName,
		constants.DbtEnvVarRole:      d.RoleName,
		constants.DbtEnvVarWarehouse: d.Warehouse,
		constants.DbtEnvVarType:      constants.ConnectionTypeSnowflake,
	}
}

// NewSnowflakeConnectionDetails parses the DSN saved in the generic connection c.
func NewSnowflakeConnectionDetails(c shared.ConnectionDetails) (*SnowflakeConnectionDetails, error) {
	if c.Type != constants.ConnectionTypeSnowflake && c.Type != constants.ConnectionTypeMockSnowflake {
		return nil, fmt.Errorf("connection %q is of type %q, expected %q", c.LogicalName, c.Type, constants.ConnectionTypeSnowflake)
	}
	return SnowflakeParseDSN(c.GetDsn())
}

// newSnowflakeConnection opens the Snowflake database connection specified by dsn and pings it.
func newSnowflakeConnection(ctx context.Context, log logger.Logger, dsn string) (shared.Connector, error) {
	conn := &shared.SqlConnection{
		DbType: constants.ConnectionTypeSnowflake,
	}
	var err error
	conn.DbSql, err = sql.Open("snowflake", strings.TrimPrefix(dsn, snowflakeDsnPrefix))
	if err != nil {
		return nil, err
	}
	if err = conn.DbSql.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to connect to Snowflake: %w", err)
	}
	log.Info("Successful database connection to Snowflake.")
	return conn, nil
}

// SnowflakeGetDSN constructs a DSN based on SnowflakeConnectionDetails.
// The prefix 'snowflake://' is added to the DSN.
func SnowflakeGetDSN(c *SnowflakeConnectionDetails) (string, error) {
	cfg := &sf.Config{
		Account:   c.Account,
		Database:  c.DBName,
		Schema:    c.Schema,
		User:      c.User,
		Password:  c.Password,
		Warehouse: c.Warehouse,
		Role:      c.RoleName,
	}
	dsn, err := sf.DSN(cfg)
	if err != nil {
		return "", err
	}
	if !reSnowflakeDsnPrefix.MatchString(dsn) { // if the prefix is missing...
		dsn = snowflakeDsnPrefix + dsn
	}
	return dsn, nil
}

// SnowflakeParseDSN converts a Snowflake DSN into native connection details.
// The DSN must start with 'snowflake://'.
func SnowflakeParseDSN(d string) (*SnowflakeConnectionDetails, error) {
	if !reSnowflakeDsnPrefix.MatchString(d) {
		return nil, errors.New("unsupported Snowflake DSN format, expected prefix " + snowflakeDsnPrefix)
	}
	cfg, err := sf.ParseDSN(strings.TrimPrefix(d, snowflakeDsnPrefix))
	if err != nil {
		return nil, err
	}
	retval := &SnowflakeConnectionDetails{
		User:           cfg.User,
		Password:       cfg.Password,
		Schema:         cfg.Schema,
		DBName:         cfg.Database,
		Account:        cfg.Account,
		RoleName:       cfg.Role,
		Warehouse:      cfg.Warehouse,
		Dsn:            d,
		OriginalScheme: constants.ConnectionTypeSnowflake,
	}
	if cfg.Region != "" { // if region exists in the parsed config...
		// Add it to our account settings.
		retval.Account = fmt.Sprintf("%v.%v", retval.Account, cfg.Region)
	}
	return retval, nil
}
