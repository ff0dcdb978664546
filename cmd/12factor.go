package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/relloyd/eltpipe/actions"
	"github.com/relloyd/eltpipe/config"
	c "github.com/relloyd/eltpipe/constants"
	"github.com/relloyd/eltpipe/helper"
	"github.com/relloyd/eltpipe/logger"
	"github.com/relloyd/eltpipe/rdbms/shared"
)

// init will be called first due to the lexical order in which these functions are executed.
// This ensures the value of twelveFactorMode is set before other init() functions configure
// Cobra flags, which read the environment instead of the CLI in this mode.
func init() {
	setupTwelveFactorMode()
}

// setupTwelveFactorMode will enable or disable 12 factor mode based on environment variable.
func setupTwelveFactorMode() {
	mode := os.Getenv(envVarTwelveFactorMode)
	if mode != "" { // if variable for 12factor mode is set and we should read env vars to determine actions...
		twelveFactorMode = true
		lambdaMode = strings.ToLower(mode) == "lambda"
	} else { // else 12factor mode should be off...
		twelveFactorMode = false // explicitly turn off this mode since tests may have turned it on while others require it off.
		lambdaMode = false
	}
}

const (
	envVarTwelveFactorMode     = c.EnvVarPrefix + "_" + "12FACTOR_MODE"
	envVarCommand              = c.EnvVarPrefix + "_" + "COMMAND"
	envVarStep                 = c.EnvVarPrefix + "_" + "STEP"
	envVarLogLevel             = c.EnvVarPrefix + "_" + "LOG_LEVEL"
	envVarStackDump            = c.EnvVarPrefix + "_" + "STACK_DUMP"
	envVarDbtDir               = c.EnvVarPrefix + "_" + "DBT_DIR"
	envVarDbtBin               = c.EnvVarPrefix + "_" + "DBT_BIN"
	twelveFactorConnectionName = "snowflake"
)

var (
	twelveFactorMode bool // true if os env var envVarTwelveFactorMode is set
	lambdaMode       bool // true if envVarTwelveFactorMode is "lambda"
	twelveFactorVars = map[string]string{
		envVarCommand:   "",
		envVarStep:      "",
		envVarLogLevel:  "",
		envVarStackDump: "",
		envVarDbtDir:    "",
		envVarDbtBin:    "",
		helper.GetDsnEnvVarName(twelveFactorConnectionName): "",
	}
	twelveFactorVarsSensitive = map[string]string{ // used to flag some of the above variables as being sensitive.
		helper.GetDsnEnvVarName(twelveFactorConnectionName): "",
	}
)

type twelveFactorAction struct {
	setupFunc  func(vars map[string]string)
	runnerFunc func() error
}

var twelveFactorActions = map[string]twelveFactorAction{
	"run": {
		runnerFunc: runPipeline,
	},
	"merge": {
		runnerFunc: runMerge,
	},
	"env": {
		runnerFunc: runEnv,
	},
	"step": {
		setupFunc: func(vars map[string]string) {
			stepCfg.StepName = vars[envVarStep]
		},
		runnerFunc: runStep,
	},
}

func getConnectionLoader() actions.ConnectionLoader {
	if twelveFactorMode {
		return &TwelveFactorConnections{}
	}
	return config.Connections
}

func getConnectionGetterSetter() (actions.ConnectionGetterSetter, error) {
	if twelveFactorMode {
		return nil, fmt.Errorf("connections cannot be configured when %v is set (supply them using %v instead)",
			envVarTwelveFactorMode, helper.GetDsnEnvVarName("<connection-name>"))
	}
	return config.Connections, nil
}

func execute12FactorMode(acts map[string]twelveFactorAction) (err error) {
	logLevel := helper.ReadValueFromEnvWithDefault(envVarLogLevel, "warn")
	stackDump := helper.GetTrueFalseStringAsBool(os.Getenv(envVarStackDump))
	log := logger.NewLogger(c.ServiceName, logLevel, stackDump)
	log.Info("eltpipe is running in 12 Factor mode...")
	keys := make([]string, 0, len(twelveFactorVars))
	for k := range twelveFactorVars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys { // for each env variable that we need...
		twelveFactorVars[k] = os.Getenv(k)
		if _, sensitive := twelveFactorVarsSensitive[k]; !sensitive {
			log.Debug(k, "=", twelveFactorVars[k])
		} else {
			log.Debug(k, "=", shared.RedactDsn(twelveFactorVars[k]))
		}
	}
	stackDumpOnPanic = stackDump
	a, ok := acts[strings.ToLower(twelveFactorVars[envVarCommand])]
	if !ok {
		err = fmt.Errorf("invalid command %q, set %v to one of: %v", twelveFactorVars[envVarCommand], envVarCommand, twelveFactorCommands(acts))
		log.Error(err.Error())
		return
	}
	if a.setupFunc != nil {
		a.setupFunc(twelveFactorVars)
	}
	if err = a.runnerFunc(); err != nil {
		log.Error("Error: ", err)
	}
	return err
}

func twelveFactorCommands(acts map[string]twelveFactorAction) string {
	s := make([]string, 0, len(acts))
	for k := range acts {
		s = append(s, k)
	}
	sort.Strings(s)
	return strings.Join(s, ", ")
}

type TwelveFactorConnections struct{} // implements interfaces in module, actions.

// GetConnectionType derives the type of connectionName from the scheme of its DSN in the environment.
func (t *TwelveFactorConnections) GetConnectionType(connectionName string) (string, error) {
	d, err := t.GetConnectionDetails(connectionName)
	if err != nil {
		return "", err
	}
	return d.Type, nil
}

func (t *TwelveFactorConnections) GetConnectionDetails(connectionName string) (*shared.ConnectionDetails, error) {
	d, err := t.LoadConnection(connectionName)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// LoadConnection reads the DSN for connectionName from ELT_<NAME>_DSN and the optional region
// from ELT_<NAME>_S3_REGION, validates them and returns the generic connection details.
// This mimics loading connections from the config file.
func (t *TwelveFactorConnections) LoadConnection(connectionName string) (shared.ConnectionDetails, error) {
	var dsn, region string
	kDsn := helper.GetDsnEnvVarName(connectionName)
	if err := helper.ReadValueFromEnv(kDsn, &dsn); err != nil { // if we cannot find the DSN in the environment...
		return shared.ConnectionDetails{}, err
	}
	region = helper.ReadValueFromEnvWithDefault(helper.GetRegionEnvVarName(connectionName), os.Getenv("AWS_REGION"))
	idx := strings.Index(dsn, "://")
	if idx <= 0 {
		return shared.ConnectionDetails{}, fmt.Errorf("unable to find a scheme in %v", kDsn)
	}
	connType := strings.ToLower(dsn[:idx])
	v, err := actions.NewConnectionValidator(connType, dsn, region)
	if err != nil {
		return shared.ConnectionDetails{}, err
	}
	if err = v.Parse(); err != nil {
		return shared.ConnectionDetails{}, fmt.Errorf("invalid value for %v: %w", kDsn, err)
	}
	return shared.ConnectionDetails{
		Type:        connType,
		LogicalName: connectionName,
		Data:        v.GetMap(nil),
	}, nil
}
