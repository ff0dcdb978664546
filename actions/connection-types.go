package actions

import (
	"fmt"
	"sort"
	"strings"

	"github.com/relloyd/eltpipe/aws/s3"
	"github.com/relloyd/eltpipe/constants"
	"github.com/relloyd/eltpipe/rdbms"
)

// ConnectionValidator checks a DSN and renders it as connection data.
type ConnectionValidator interface {
	Parse() error
	GetMap(m map[string]string) map[string]string
	GetScheme() (string, error)
}

// connectionValidatorFuncs builds a validator for each supported connection type
// given a DSN and an optional region.
var connectionValidatorFuncs = map[string]func(dsn string, region string) ConnectionValidator{
	constants.ConnectionTypeSnowflake: func(dsn string, region string) ConnectionValidator {
		return rdbms.SnowflakeConnectionDetails{Dsn: dsn}
	},
	constants.ConnectionTypeS3: func(dsn string, region string) ConnectionValidator {
		return s3.AwsS3Bucket{Dsn: dsn, Region: region}
	},
}

// IsSupportedConnectionType returns true if connections of the given type can be configured.
func IsSupportedConnectionType(connectionType string) bool {
	_, ok := connectionValidatorFuncs[connectionType]
	return ok
}

// GetSupportedConnectionTypes returns a sorted, comma separated list of connection types.
func GetSupportedConnectionTypes() string {
	s := make([]string, 0, len(connectionValidatorFuncs))
	for k := range connectionValidatorFuncs {
		s = append(s, k)
	}
	sort.Strings(s)
	return strings.Join(s, ", ")
}

// NewConnectionValidator returns the validator for connectionType populated with dsn and region.
func NewConnectionValidator(connectionType string, dsn string, region string) (ConnectionValidator, error) {
	fn, ok := connectionValidatorFuncs[connectionType]
	if !ok {
		return nil, fmt.Errorf("unsupported connection type %q, please use one of: %v", connectionType, GetSupportedConnectionTypes())
	}
	return fn(dsn, region), nil
}
