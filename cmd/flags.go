package cmd

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/relloyd/eltpipe/actions"
	"github.com/relloyd/eltpipe/config"
	"github.com/relloyd/eltpipe/constants"
	"github.com/relloyd/eltpipe/helper"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type cliFlag struct {
	name      string // name of flag
	val       string // default value
	shortHand string // single character name for the flag
	desc      string // description of the flag; the long text
}

type cliFlags map[string]cliFlag

var switches = cliFlags{
	"mock": cliFlag{name: "mock", shortHand: "m", desc: "mock switch for testing"},
	"connection-name": cliFlag{name: "connection-name", shortHand: "c",
		desc: "Snowflake connection name used by dbt and the merge"},
	"artifacts-connection": cliFlag{name: "artifacts-connection", shortHand: "A",
		desc: "S3 connection name to copy dbt artifacts to after the pipeline (omit to skip the copy)"},
	"dbt-dir": cliFlag{name: "dbt-dir", shortHand: "d",
		desc: "dbt project directory"},
	"dbt-profiles-dir": cliFlag{name: "dbt-profiles-dir", shortHand: "P",
		desc: "dbt profiles directory (omit to use the project directory)"},
	"dbt-bin": cliFlag{name: "dbt-bin", shortHand: "b",
		desc: "dbt executable, resolved using PATH plus the extra path"},
	"dbt-extra-path": cliFlag{name: "dbt-extra-path", shortHand: "x",
		desc: "Directory appended to PATH when running dbt"},
	"database-name": cliFlag{name: "database-name", shortHand: "D",
		desc: "Snowflake database for the merge (omit to use the connection database)"},
	"role": cliFlag{name: "role", shortHand: "r",
		desc: "Snowflake role for the merge (omit to use the connection role)"},
	"warehouse": cliFlag{name: "warehouse", shortHand: "W",
		desc: "Snowflake warehouse for the merge (omit to use the connection warehouse)"},
	"source-table": cliFlag{name: "source-table", shortHand: "s",
		desc: "Raw table to merge from, as [<schema>.]<table>"},
	"target-table": cliFlag{name: "target-table", shortHand: "t",
		desc: "Staging table to merge into, as [<schema>.]<table>"},
	"key-cols": cliFlag{name: "key-cols", shortHand: "k",
		desc: "Key columns of the staging table as <col>:<type>,..."},
	"other-cols": cliFlag{name: "other-cols", shortHand: "O",
		desc: "Non-key columns of the staging table as <col>:<type>,..."},
	"constraint-name": cliFlag{name: "constraint-name", shortHand: "n",
		desc: "Primary key constraint name added to a new staging table"},
	"output": cliFlag{name: "output", shortHand: "o",
		desc: "Specify \"yaml\" or \"json\" to print the pipe definition instead of running it. Redirect this \n" +
			"output to a file for use with the --file flag"},
	"log-level": cliFlag{name: "log-level", shortHand: "l",
		desc: "Log level: \"error | warn | info | debug\" where only step stats are \n" +
			"output at using \"warn\""},
	"file": cliFlag{name: "file", shortHand: "f",
		desc: "File containing the pipe definition (.yaml or .json)"},
	"web-service": cliFlag{name: "web-service", shortHand: "w",
		desc: "Launch a web service to monitor the pipe"},
	"port": cliFlag{name: "port", shortHand: "p",
		desc: "Port to listen on"},
	"stats": cliFlag{name: "stats", shortHand: "L",
		desc: "Number of seconds between dumping step statistics (use 0 to disable)"},
	"dsn": cliFlag{name: "dsn", shortHand: "d",
		desc: "Snowflake DSN of the form snowflake://<user>:<password>@<account>/<database>?schema=<schema>&warehouse=<warehouse>&role=<role>"},
	"s3-dsn": cliFlag{name: "dsn", shortHand: "d",
		desc: "DSN of the form s3://<bucket name>/<prefix> (takes priority over individual flags)"},
	"s3-bucket": cliFlag{name: "s3-bucket", shortHand: "b",
		desc: "AWS S3 bucket name"},
	"s3-prefix": cliFlag{name: "s3-prefix", shortHand: "P",
		desc: "AWS S3 bucket prefix"},
	"s3-region": cliFlag{name: "s3-region", shortHand: "R",
		desc: "AWS S3 bucket region"},
	"force-connection": cliFlag{name: "force", shortHand: "f",
		desc: "Allow overwrite of existing connections"},
}

// addFlag adds a flag to cobra.Command c, based on the type of targetVar (which must be a pointer).
// The name of the flag is looked up in map cliFlags.
// When running in twelveFactorMode, targetVar is populated using the environment variable for the supplied
// name, or the supplied default value if it is not set.
// Otherwise the default value is fetched from config if it exists else defaultValue is applied.
// The flag is marked as required in Cobra based on the value of required.
// Supply a value for desc2 to append to the existing description found in map cliFlags.
func (f *cliFlags) addFlag(c *cobra.Command, targetVar interface{}, name string, defaultValue string, required bool, desc2 string) {
	v := reflect.ValueOf(targetVar)
	if v.Kind() != reflect.Ptr {
		fmt.Println("error adding flag: targetVar must be a pointer")
		os.Exit(1)
	}
	sw := f.getCliFlag(name, defaultValue, config.Main.Get) // defaults come from config or the supplied defaultValue
	desc := sw.desc + desc2
	switch p := targetVar.(type) {
	case *string:
		if twelveFactorMode {
			*p = sw.val
		} else {
			c.Flags().StringVarP(p, sw.name, sw.shortHand, sw.val, desc)
			if sw.val != "" { // if there is a value via config or default...
				mustSetFlag(c.Flags(), sw.name, sw.val)
			}
		}
	case *bool:
		if twelveFactorMode {
			*p = helper.GetTrueFalseStringAsBool(sw.val)
		} else {
			defaultBool := strings.ToLower(sw.val) == "true"
			c.Flags().BoolVarP(p, sw.name, sw.shortHand, defaultBool, desc)
			mustSetFlag(c.Flags(), sw.name, strconv.FormatBool(defaultBool))
		}
	case *int:
		defaultInt, err := strconv.Atoi(sw.val)
		if err != nil {
			fmt.Printf("the value for flag %q must be an integer: %v\n", sw.name, err)
			os.Exit(1)
		}
		if twelveFactorMode {
			*p = defaultInt
		} else {
			c.Flags().IntVarP(p, sw.name, sw.shortHand, defaultInt, desc)
			if sw.val != "" {
				mustSetFlag(c.Flags(), sw.name, sw.val)
			}
		}
	default:
		panic("Error: unhandled CLI flag target value type")
	}
	if required && !twelveFactorMode { // if the flag is required...
		_ = c.MarkFlagRequired(sw.name)
	}
}

// getCliFlag fetches the value of name from the environment, when running in twelveFactorMode,
// else reads the Main config file to find it.
// If a value cannot be found then the supplied defaultValue is used in its place.
func (f *cliFlags) getCliFlag(name string, defaultValue string, fnGetConfig func(key string, out interface{}) error) cliFlag {
	s, ok := (*f)[name]
	if !ok {
		panic(fmt.Sprintf("unregistered CLI flag, %q", name))
	}
	s.val = ""
	if twelveFactorMode { // if we should read env vars...
		if err := helper.ReadValueFromEnv(flagNameToEnvVar(name), &s.val); err != nil {
			s.val = defaultValue
		}
	} else { // else check the config file or apply default...
		err := fnGetConfig(s.name, &s.val)
		if errors.As(err, &config.KeyNotFoundError{}) || s.val == "" { // if there was no key found...
			s.val = defaultValue
		}
	}
	return s
}

// flagNameToEnvVar will form a sanitised environment variable name using constants.EnvVarPrefix.
func flagNameToEnvVar(name string) string {
	return constants.EnvVarPrefix + "_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

func mustSetFlag(f *pflag.FlagSet, name string, val string) {
	if err := f.Set(name, val); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// defaultConnectionName is the connection used when none is supplied.
// In twelveFactorMode it matches the DSN variable ELT_SNOWFLAKE_DSN.
func defaultConnectionName() string {
	if twelveFactorMode {
		return twelveFactorConnectionName
	}
	return constants.DefaultConnectionName
}

// addDbtFlags registers the flags that control how dbt is run.
func addDbtFlags(c *cobra.Command, cfg *actions.RunConfig) {
	switches.addFlag(c, &cfg.DbtProjectDir, "dbt-dir", constants.DbtDirDefault, false, "")
	switches.addFlag(c, &cfg.DbtProfilesDir, "dbt-profiles-dir", "", false, "")
	switches.addFlag(c, &cfg.DbtBin, "dbt-bin", constants.DbtBinDefault, false, "")
	switches.addFlag(c, &cfg.DbtExtraPath, "dbt-extra-path", constants.DbtExtraPathDefault, false, "")
}

// addMergeFlags registers the flags that control the merge of raw data into staging.
func addMergeFlags(c *cobra.Command, cfg *actions.RunConfig) {
	switches.addFlag(c, &cfg.DatabaseName, "database-name", "", false, "")
	switches.addFlag(c, &cfg.RoleName, "role", "", false, "")
	switches.addFlag(c, &cfg.Warehouse, "warehouse", "", false, "")
	switches.addFlag(c, &cfg.SourceSchemaTable.SchemaTable, "source-table",
		constants.UpsertSourceSchemaDefault+"."+constants.UpsertSourceTableDefault, false, "")
	switches.addFlag(c, &cfg.TargetSchemaTable.SchemaTable, "target-table",
		constants.UpsertTargetSchemaDefault+"."+constants.UpsertTargetTableDefault, false, "")
	switches.addFlag(c, &cfg.TargetKeyCols, "key-cols", constants.UpsertKeyColsDefault, false, "")
	switches.addFlag(c, &cfg.TargetOtherCols, "other-cols", constants.UpsertOtherColsDefault, false, "")
	switches.addFlag(c, &cfg.ConstraintName, "constraint-name", constants.UpsertConstraintNameDefault, false, "")
}

// addCommonRunFlags registers connection, logging and output flags shared by commands that run steps.
func addCommonRunFlags(c *cobra.Command, cfg *actions.RunConfig) {
	switches.addFlag(c, &cfg.ConnectionName, "connection-name", defaultConnectionName(), false, "")
	switches.addFlag(c, &cfg.LogLevel, "log-level", "info", false, "")
	switches.addFlag(c, &cfg.StatsDumpFrequencySeconds, "stats", strconv.Itoa(constants.StatsCaptureFrequencySeconds), false, "")
	switches.addFlag(c, &cfg.OutputFormat, "output", "", false, "")
}
