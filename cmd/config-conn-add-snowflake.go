package cmd

import (
	"fmt"

	"github.com/relloyd/eltpipe/actions"
	"github.com/relloyd/eltpipe/config"
	"github.com/relloyd/eltpipe/constants"
	"github.com/relloyd/eltpipe/rdbms"
	"github.com/spf13/cobra"
)

var configConnSnowflakeCfg = &actions.ConnectionConfig{}
var snowflakeConn = rdbms.SnowflakeConnectionDetails{}

var configConnAddSnowflakeCmd = &cobra.Command{
	Use:   "snowflake",
	Short: "Add a Snowflake connection",
	Long: fmt.Sprintf(`Add a Snowflake connection to the config store %q
by providing a DSN of the form:

snowflake://<user>:<password>@<account>/<database-name>?schema=<schema>&warehouse=<warehouse>&role=<role>

The parts of the DSN are exported to dbt as DBT_USER, DBT_PASSWORD, DBT_ACCOUNT, DBT_DATABASE,
DBT_SCHEMA, DBT_WAREHOUSE and DBT_ROLE.`,
		config.Connections.FullPath),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		f, err := getConnectionGetterSetter()
		if err != nil {
			return err
		}
		configConnSnowflakeCfg.Type = constants.ConnectionTypeSnowflake
		configConnSnowflakeCfg.ConfigFile = f
		configConnSnowflakeCfg.ConnDetails = snowflakeConn
		return actions.RunConnectionAdd(configConnSnowflakeCfg)
	},
}

func init() {
	configConnAddCmd.AddCommand(configConnAddSnowflakeCmd)
	configConnAddSnowflakeCmd.Flags().SortFlags = false
	switches.addFlag(configConnAddSnowflakeCmd, &configConnSnowflakeCfg.LogicalName, "connection-name", constants.DefaultConnectionName, false, "")
	switches.addFlag(configConnAddSnowflakeCmd, &configConnSnowflakeCfg.Force, "force-connection", "", false, "")
	switches.addFlag(configConnAddSnowflakeCmd, &snowflakeConn.Dsn, "dsn", "", true, "")
}
